package core

import (
	"testing"

	"hrconsole/internal/domain/auth"
)

func TestFilterEmployeeFields(t *testing.T) {
	cases := []struct {
		name    string
		viewer  Viewer
		visible bool
	}{
		{"hr", Viewer{User: auth.UserContext{RoleName: auth.RoleHR}}, true},
		{"administrator", Viewer{User: auth.UserContext{RoleName: auth.RoleAdministrator}}, true},
		{"custom editor", Viewer{User: auth.UserContext{RoleName: "Payroll Clerk"}, CanEditEmployees: true}, true},
		{"manager of employee", Viewer{User: auth.UserContext{RoleName: auth.RoleManager}, EmployeeID: "m-1"}, false},
		{"employee self", Viewer{User: auth.UserContext{RoleName: auth.RoleEmployee}, EmployeeID: "e-1"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			salary := 120000.0
			emp := &Employee{ID: "e-1", ManagerID: "m-1", NationalID: "ID123", BankAccount: "BANK123", Salary: &salary}
			FilterEmployeeFields(emp, tc.viewer)

			if SensitiveVisible(tc.viewer) != tc.visible {
				t.Fatalf("SensitiveVisible = %v, want %v", !tc.visible, tc.visible)
			}
			kept := emp.NationalID != "" && emp.BankAccount != "" && emp.Salary != nil
			cleared := emp.NationalID == "" && emp.BankAccount == "" && emp.Salary == nil
			if tc.visible && !kept {
				t.Fatalf("sensitive fields dropped: %+v", emp)
			}
			if !tc.visible && !cleared {
				t.Fatalf("sensitive fields leaked: %+v", emp)
			}
		})
	}
}

func TestScopeFor(t *testing.T) {
	cases := []struct {
		name   string
		viewer Viewer
		want   Scope
	}{
		{"administrator", Viewer{User: auth.UserContext{RoleName: auth.RoleAdministrator}}, ScopeAll},
		{"hr", Viewer{User: auth.UserContext{RoleName: auth.RoleHR}}, ScopeAll},
		{"custom editor", Viewer{User: auth.UserContext{RoleName: "Ops"}, CanEditEmployees: true}, ScopeAll},
		{"manager", Viewer{User: auth.UserContext{RoleName: auth.RoleManager}}, ScopeTeam},
		{"employee", Viewer{User: auth.UserContext{RoleName: auth.RoleEmployee}}, ScopeSelf},
		{"custom viewer", Viewer{User: auth.UserContext{RoleName: "Ops"}}, ScopeSelf},
		{"custom role managing people", Viewer{User: auth.UserContext{RoleName: "Team Lead"}, HasReports: true}, ScopeTeam},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScopeFor(tc.viewer); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestInScope(t *testing.T) {
	manager := Viewer{User: auth.UserContext{RoleName: auth.RoleManager}, EmployeeID: "m-1"}
	if !InScope(manager, Employee{ID: "e-1", ManagerID: "m-1"}) {
		t.Fatal("manager should see direct report")
	}
	if !InScope(manager, Employee{ID: "m-1"}) {
		t.Fatal("manager should see self")
	}
	if InScope(manager, Employee{ID: "e-2", ManagerID: "m-2"}) {
		t.Fatal("manager should not see other teams")
	}

	orphan := Viewer{User: auth.UserContext{RoleName: auth.RoleEmployee}}
	if InScope(orphan, Employee{ID: ""}) {
		t.Fatal("viewer without an employee record should see nobody")
	}
}
