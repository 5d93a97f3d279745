package auth

// Permission keys are "<module key>:<action>" and are derived from each
// role's module permission map.
const (
	PermDashboardView = "dashboard:view"

	PermEmployeesView   = "employees:view"
	PermEmployeesCreate = "employees:create"
	PermEmployeesEdit   = "employees:edit"

	PermOrgView   = "org:view"
	PermOrgCreate = "org:create"
	PermOrgEdit   = "org:edit"
	PermOrgDelete = "org:delete"

	PermLeaveRequestsView   = "leave.requests:view"
	PermLeaveRequestsCreate = "leave.requests:create"
	PermLeaveRequestsEdit   = "leave.requests:edit"
	PermLeaveBalancesView   = "leave.balances:view"
	PermLeaveBalancesEdit   = "leave.balances:edit"
	PermLeaveSettingsView   = "leave.settings:view"
	PermLeaveSettingsEdit   = "leave.settings:edit"

	PermAttendanceView   = "attendance:view"
	PermAttendanceCreate = "attendance:create"

	PermJobsView         = "recruitment.jobs:view"
	PermJobsCreate       = "recruitment.jobs:create"
	PermJobsEdit         = "recruitment.jobs:edit"
	PermCandidatesView   = "recruitment.candidates:view"
	PermCandidatesCreate = "recruitment.candidates:create"
	PermCandidatesEdit   = "recruitment.candidates:edit"

	PermSettingsView  = "settings:view"
	PermRolesView     = "settings.roles:view"
	PermRolesCreate   = "settings.roles:create"
	PermRolesEdit     = "settings.roles:edit"
	PermRolesDelete   = "settings.roles:delete"
	PermModulesView   = "settings.modules:view"
	PermModulesCreate = "settings.modules:create"
	PermModulesEdit   = "settings.modules:edit"
	PermUsersView     = "settings.users:view"
	PermUsersEdit     = "settings.users:edit"
	PermAuditView     = "settings.audit:view"
)

// RoutePermissions lists every key a route is guarded by.
var RoutePermissions = []string{
	PermDashboardView,
	PermEmployeesView,
	PermEmployeesCreate,
	PermEmployeesEdit,
	PermOrgView,
	PermOrgCreate,
	PermOrgEdit,
	PermOrgDelete,
	PermLeaveRequestsView,
	PermLeaveRequestsCreate,
	PermLeaveRequestsEdit,
	PermLeaveBalancesView,
	PermLeaveBalancesEdit,
	PermLeaveSettingsView,
	PermLeaveSettingsEdit,
	PermAttendanceView,
	PermAttendanceCreate,
	PermJobsView,
	PermJobsCreate,
	PermJobsEdit,
	PermCandidatesView,
	PermCandidatesCreate,
	PermCandidatesEdit,
	PermSettingsView,
	PermRolesView,
	PermRolesCreate,
	PermRolesEdit,
	PermRolesDelete,
	PermModulesView,
	PermModulesCreate,
	PermModulesEdit,
	PermUsersView,
	PermUsersEdit,
	PermAuditView,
}
