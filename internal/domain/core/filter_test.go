package core

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmployeeQueryDefaults(t *testing.T) {
	q := BuildEmployeeQuery("t-1", EmployeeFilter{}, ScopeAll, "")

	assert.Equal(t, "e.tenant_id = $1", q.Where)
	assert.Equal(t, []any{"t-1"}, q.Args)
	assert.Equal(t, "e.last_name ASC, e.first_name ASC, e.id", q.OrderBy)
	assert.Equal(t, defaultPageSize, q.Limit)
	assert.Zero(t, q.Offset)
}

func TestBuildEmployeeQueryFilters(t *testing.T) {
	q := BuildEmployeeQuery("t-1", EmployeeFilter{
		Query:          "ann_50%",
		OrgUnitIDs:     []string{"ou-1", " ", "ou-2"},
		Status:         StatusActive,
		EmploymentType: EmploymentPartTime,
		ManagerID:      "m-1",
		Sort:           "-startDate",
		Limit:          10000,
		Offset:         -5,
	}, ScopeAll, "")

	require.Len(t, q.Args, 6)
	assert.Equal(t, `%ann\_50\%%`, q.Args[1])
	assert.Equal(t, []string{"ou-1", "ou-2"}, q.Args[2])
	assert.Equal(t, StatusActive, q.Args[3])
	assert.Equal(t, EmploymentPartTime, q.Args[4])
	assert.Equal(t, "m-1", q.Args[5])

	assert.Contains(t, q.Where, "e.first_name ILIKE $2")
	assert.Contains(t, q.Where, "WITH RECURSIVE sub")
	assert.Contains(t, q.Where, "ANY($3)")
	assert.Contains(t, q.Where, "e.status = $4")
	assert.Contains(t, q.Where, "e.employment_type = $5")
	assert.Contains(t, q.Where, "e.manager_id::text = $6")
	assert.Equal(t, "e.start_date DESC, e.id", q.OrderBy)
	assert.Equal(t, maxPageSize, q.Limit)
	assert.Zero(t, q.Offset)
}

func TestBuildEmployeeQueryScope(t *testing.T) {
	team := BuildEmployeeQuery("t-1", EmployeeFilter{}, ScopeTeam, "m-1")
	assert.Contains(t, team.Where, "(e.id::text = $2 OR e.manager_id::text = $2)")
	assert.Equal(t, []any{"t-1", "m-1"}, team.Args)

	self := BuildEmployeeQuery("t-1", EmployeeFilter{}, ScopeSelf, "e-1")
	assert.Contains(t, self.Where, "e.id::text = $2")

	nobody := BuildEmployeeQuery("t-1", EmployeeFilter{}, ScopeSelf, "")
	assert.True(t, strings.HasSuffix(nobody.Where, "FALSE"))
	assert.Len(t, nobody.Args, 1)
}

func TestBuildEmployeeQueryRejectsUnknownSort(t *testing.T) {
	q := BuildEmployeeQuery("t-1", EmployeeFilter{Sort: "salary; DROP TABLE employees"}, ScopeAll, "")
	assert.Equal(t, "e.last_name ASC, e.first_name ASC, e.id", q.OrderBy)
}

func TestDetectReportingCycle(t *testing.T) {
	managers := map[string]string{"ceo": "", "vp": "ceo", "lead": "vp", "dev": "lead"}

	assert.True(t, DetectReportingCycle(managers, "vp", "dev"))
	assert.True(t, DetectReportingCycle(managers, "ceo", "lead"))
	assert.False(t, DetectReportingCycle(managers, "dev", "ceo"))
	assert.False(t, DetectReportingCycle(managers, "new", "lead"))
}

func TestNormalizeContacts(t *testing.T) {
	out := NormalizeContacts([]EmergencyContact{
		{FullName: "", Relationship: "sibling"},
		{FullName: "Ana", Relationship: "spouse"},
		{FullName: "Ben", Relationship: "parent"},
	})
	require.Len(t, out, 2)
	assert.True(t, out[0].IsPrimary)
	assert.False(t, out[1].IsPrimary)

	out = NormalizeContacts([]EmergencyContact{
		{FullName: "Ana", Relationship: "spouse", IsPrimary: true},
		{FullName: "Ben", Relationship: "parent", IsPrimary: true},
	})
	assert.True(t, out[0].IsPrimary)
	assert.False(t, out[1].IsPrimary)
}

func TestWriteCSVOmitsSensitiveFields(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	salary := 99000.0
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Employee{{
		EmployeeNumber: "E-7", FirstName: "Ana", LastName: "Lima", Email: "ana@example.com",
		OrgUnitName: "Platform", Status: StatusActive, StartDate: &start,
		NationalID: "SECRET", Salary: &salary,
	}}))

	assert.NotContains(t, buf.String(), "SECRET")
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "2024-03-01", records[1][9])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, []Employee{{FirstName: "Ana", LastName: "Lima"}}, "Employee directory", time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
