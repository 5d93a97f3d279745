package core

import (
	"fmt"
	"strings"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type EmployeeFilter struct {
	Query          string
	OrgUnitIDs     []string
	Status         string
	EmploymentType string
	ManagerID      string
	Sort           string
	Limit          int
	Offset         int
}

var sortColumns = map[string]string{
	"name":           "e.last_name, e.first_name",
	"employeeNumber": "e.employee_number",
	"startDate":      "e.start_date",
	"email":          "e.email",
	"jobTitle":       "e.job_title",
}

// EmployeeQuery is a parameterized WHERE and ORDER BY clause over employees
// aliased as e. Args start at $1 with the tenant id.
type EmployeeQuery struct {
	Where   string
	OrderBy string
	Args    []any
	Limit   int
	Offset  int
}

// BuildEmployeeQuery translates filter and the viewer's scope into SQL.
// An org unit filter matches the listed units and all units below them.
// Unknown sort keys fall back to name; a leading "-" sorts descending.
func BuildEmployeeQuery(tenantID string, filter EmployeeFilter, scope Scope, viewerEmployeeID string) EmployeeQuery {
	args := []any{tenantID}
	clauses := []string{"e.tenant_id = $1"}
	next := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		p := next("%" + escapeLike(q) + "%")
		clauses = append(clauses, fmt.Sprintf(
			"(e.first_name ILIKE %[1]s OR e.last_name ILIKE %[1]s OR e.email ILIKE %[1]s OR COALESCE(e.employee_number, '') ILIKE %[1]s OR COALESCE(e.job_title, '') ILIKE %[1]s)", p))
	}
	if ids := nonEmpty(filter.OrgUnitIDs); len(ids) > 0 {
		p := next(ids)
		clauses = append(clauses, fmt.Sprintf(`e.org_unit_id IN (
      WITH RECURSIVE sub AS (
        SELECT id FROM org_units WHERE tenant_id = $1 AND id::text = ANY(%s)
        UNION ALL
        SELECT u.id FROM org_units u JOIN sub ON u.parent_id = sub.id
      )
      SELECT id FROM sub
    )`, p))
	}
	if filter.Status != "" {
		clauses = append(clauses, "e.status = "+next(filter.Status))
	}
	if filter.EmploymentType != "" {
		clauses = append(clauses, "e.employment_type = "+next(filter.EmploymentType))
	}
	if filter.ManagerID != "" {
		clauses = append(clauses, "e.manager_id::text = "+next(filter.ManagerID))
	}

	switch scope {
	case ScopeAll:
	case ScopeTeam:
		if viewerEmployeeID == "" {
			clauses = append(clauses, "FALSE")
			break
		}
		p := next(viewerEmployeeID)
		clauses = append(clauses, fmt.Sprintf("(e.id::text = %[1]s OR e.manager_id::text = %[1]s)", p))
	default:
		if viewerEmployeeID == "" {
			clauses = append(clauses, "FALSE")
			break
		}
		clauses = append(clauses, "e.id::text = "+next(viewerEmployeeID))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	return EmployeeQuery{
		Where:   strings.Join(clauses, " AND "),
		OrderBy: orderBy(filter.Sort),
		Args:    args,
		Limit:   limit,
		Offset:  offset,
	}
}

func orderBy(sort string) string {
	dir := "ASC"
	key := sort
	if strings.HasPrefix(key, "-") {
		dir = "DESC"
		key = key[1:]
	}
	cols, ok := sortColumns[key]
	if !ok {
		cols = sortColumns["name"]
	}
	parts := strings.Split(cols, ", ")
	for i, col := range parts {
		parts[i] = col + " " + dir
	}
	return strings.Join(parts, ", ") + ", e.id"
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DetectReportingCycle reports whether making newManagerID the manager of
// employeeID would loop. managers maps employee id to manager id.
func DetectReportingCycle(managers map[string]string, employeeID, newManagerID string) bool {
	seen := map[string]bool{}
	for current := newManagerID; current != ""; current = managers[current] {
		if current == employeeID {
			return true
		}
		if seen[current] {
			return true
		}
		seen[current] = true
	}
	return false
}
