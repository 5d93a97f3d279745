package leave

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type BalanceReportRow struct {
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName"`
	Balance      Balance `json:"balance"`
}

var reportHeader = []string{"employee_id", "employee_name", "leave_type", "year", "entitlement", "carry_forward", "adjustments", "used", "pending", "remaining", "available"}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func WriteBalancesCSV(w io.Writer, rows []BalanceReportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		b := r.Balance
		if err := writer.Write([]string{
			r.EmployeeID, r.EmployeeName, b.LeaveTypeName, strconv.Itoa(b.Year),
			num(b.Entitlement), num(b.CarryForward), num(b.Adjustments), num(b.Used), num(b.Pending), num(b.Remaining), num(b.Available),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteBalancesPDF(w io.Writer, rows []BalanceReportRow, year int, generated time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Leave balances %d", year))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, "Generated "+generated.Format("2006-01-02 15:04"))
	pdf.Ln(9)

	headers := []string{"Employee", "Leave type", "Entitled", "Carry", "Adjust", "Used", "Pending", "Remaining", "Available"}
	widths := []float64{60, 45, 22, 22, 22, 22, 22, 24, 24}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 8)
	for _, r := range rows {
		b := r.Balance
		values := []string{r.EmployeeName, b.LeaveTypeName, num(b.Entitlement), num(b.CarryForward), num(b.Adjustments), num(b.Used), num(b.Pending), num(b.Remaining), num(b.Available)}
		for i, v := range values {
			align := "R"
			if i < 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, v, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}
