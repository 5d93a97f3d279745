package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

var exportHeader = []string{"employee_number", "first_name", "last_name", "email", "job_title", "org_unit", "manager", "employment_type", "status", "start_date"}

func exportRow(emp Employee) []string {
	return []string{
		emp.EmployeeNumber, emp.FirstName, emp.LastName, emp.Email, emp.JobTitle,
		emp.OrgUnitName, emp.ManagerName, emp.EmploymentType, emp.Status, formatDate(emp.StartDate),
	}
}

// WriteCSV writes the employee directory. Sensitive fields are never exported.
func WriteCSV(w io.Writer, employees []Employee) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, emp := range employees {
		if err := writer.Write(exportRow(emp)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePDF renders the employee directory as an A4 landscape table.
func WritePDF(w io.Writer, employees []Employee, title string, generated time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s, %d employees", generated.Format("2006-01-02 15:04"), len(employees)))
	pdf.Ln(9)

	cols := []struct {
		title string
		width float64
	}{
		{"No.", 22}, {"Name", 50}, {"Email", 62}, {"Job title", 45}, {"Org unit", 40}, {"Manager", 40}, {"Status", 18},
	}
	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, emp := range employees {
		values := []string{emp.EmployeeNumber, emp.FullName(), emp.Email, emp.JobTitle, emp.OrgUnitName, emp.ManagerName, emp.Status}
		for i, c := range cols {
			pdf.CellFormat(c.width, 6, truncate(values[i], int(c.width/1.8)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max || max < 4 {
		return value
	}
	return string(runes[:max-3]) + "..."
}
