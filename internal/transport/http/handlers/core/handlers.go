package corehandler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/core"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// EmployeeService is satisfied by core.Service.
type EmployeeService interface {
	Viewer(ctx context.Context, user auth.UserContext) (core.Viewer, error)
	Me(ctx context.Context, v core.Viewer) (*core.Employee, error)
	List(ctx context.Context, v core.Viewer, filter core.EmployeeFilter) ([]core.Employee, int, error)
	Export(ctx context.Context, v core.Viewer, filter core.EmployeeFilter) ([]core.Employee, error)
	Get(ctx context.Context, v core.Viewer, employeeID, requestID string) (*core.Employee, error)
	Create(ctx context.Context, tenantID string, emp core.Employee, login *core.LoginInput) (*core.Employee, error)
	Update(ctx context.Context, tenantID string, emp core.Employee) (*core.Employee, *core.Employee, error)
	EmergencyContacts(ctx context.Context, v core.Viewer, employeeID string) ([]core.EmergencyContact, error)
	ReplaceEmergencyContacts(ctx context.Context, v core.Viewer, employeeID string, contacts []core.EmergencyContact) ([]core.EmergencyContact, error)
	ManagerHistory(ctx context.Context, v core.Viewer, employeeID string) ([]core.ManagerHistoryEntry, error)
}

type Handler struct {
	Service EmployeeService
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service EmployeeService, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesView, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesCreate, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesView, h.Perms)).Get("/export.csv", h.handleExportCSV)
		r.With(middleware.RequirePermission(auth.PermEmployeesView, h.Perms)).Get("/export.pdf", h.handleExportPDF)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesView, h.Perms)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermEmployeesEdit, h.Perms)).Put("/", h.handleUpdate)
			r.Get("/emergency-contacts", h.handleListContacts)
			r.Put("/emergency-contacts", h.handleReplaceContacts)
			r.With(middleware.RequirePermission(auth.PermEmployeesView, h.Perms)).Get("/manager-history", h.handleManagerHistory)
		})
	})
}

var employeeErrors = []shared.ErrorCase{
	shared.NotFound(core.ErrNotFound),
	shared.Forbidden(core.ErrForbidden),
	shared.BadRequest(core.ErrInvalidManager, "invalid_manager"),
	shared.Conflict(core.ErrReportingCycle, "reporting_cycle"),
	shared.BadRequest(auth.ErrWeakPassword, "weak_password"),
}

func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) (core.Viewer, bool) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return core.Viewer{}, false
	}
	v, err := h.Service.Viewer(r.Context(), user)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "viewer_failed", "failed to resolve caller")
		return core.Viewer{}, false
	}
	return v, true
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Me(r.Context(), v)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "me_failed", "failed to load profile", employeeErrors...)
		return
	}
	api.Success(w, map[string]any{
		"user": map[string]string{
			"id":       v.User.UserID,
			"tenantId": v.User.TenantID,
			"roleId":   v.User.RoleID,
			"role":     v.User.RoleName,
		},
		"employee": emp,
	}, middleware.GetRequestID(r.Context()))
}

func parseFilter(r *http.Request) core.EmployeeFilter {
	q := r.URL.Query()
	page := shared.ParsePage(r, 50, 500)
	var units []string
	for _, raw := range q["orgUnitId"] {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				units = append(units, id)
			}
		}
	}
	return core.EmployeeFilter{
		Query:          q.Get("q"),
		OrgUnitIDs:     units,
		Status:         q.Get("status"),
		EmploymentType: q.Get("employmentType"),
		ManagerID:      q.Get("managerId"),
		Sort:           q.Get("sort"),
		Limit:          page.Limit,
		Offset:         page.Offset,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	filter := parseFilter(r)
	employees, total, err := h.Service.List(r.Context(), v, filter)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "employee_list_failed", "failed to list employees", employeeErrors...)
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, employees, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	employees, err := h.Service.Export(r.Context(), v, parseFilter(r))
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "employee_export_failed", "failed to export employees", employeeErrors...)
		return
	}
	var buf bytes.Buffer
	if err := core.WriteCSV(&buf, employees); err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "employee_export_failed", "failed to export employees")
		return
	}
	h.Audit.Log(r.Context(), v.User.TenantID, v.User.UserID, "employees.export", "employee", "csv", nil, map[string]int{"rows": len(employees)})
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=employees.csv")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	employees, err := h.Service.Export(r.Context(), v, parseFilter(r))
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "employee_export_failed", "failed to export employees", employeeErrors...)
		return
	}
	var buf bytes.Buffer
	if err := core.WritePDF(&buf, employees, "Employee directory", time.Now()); err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "employee_export_failed", "failed to export employees")
		return
	}
	h.Audit.Log(r.Context(), v.User.TenantID, v.User.UserID, "employees.export", "employee", "pdf", nil, map[string]int{"rows": len(employees)})
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=employees.pdf")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if !shared.ValidID(w, middleware.GetRequestID(r.Context()), "employeeID", employeeID) {
		return
	}
	emp, err := h.Service.Get(r.Context(), v, employeeID, middleware.GetRequestID(r.Context()))
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "employee_get_failed", "failed to load employee", employeeErrors...)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

type employeePayload struct {
	EmployeeNumber string           `json:"employeeNumber"`
	FirstName      string           `json:"firstName"`
	LastName       string           `json:"lastName"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	DateOfBirth    string           `json:"dateOfBirth"`
	Address        string           `json:"address"`
	JobTitle       string           `json:"jobTitle"`
	NationalID     string           `json:"nationalId"`
	BankAccount    string           `json:"bankAccount"`
	Salary         *float64         `json:"salary"`
	Currency       string           `json:"currency"`
	EmploymentType string           `json:"employmentType"`
	OrgUnitID      string           `json:"orgUnitId"`
	ManagerID      string           `json:"managerId"`
	StartDate      string           `json:"startDate"`
	EndDate        string           `json:"endDate"`
	Status         string           `json:"status"`
	Login          *core.LoginInput `json:"login,omitempty"`
}

// toEmployee validates the payload and converts it. Dates are optional but
// must parse when present.
func (p employeePayload) toEmployee(v *shared.Validator) core.Employee {
	v.Required("firstName", p.FirstName, "is required")
	v.Required("email", p.Email, "is required")
	if p.Email != "" && !strings.Contains(p.Email, "@") {
		v.Add("email", "must be a valid email")
	}
	v.Enum("status", p.Status, []string{core.StatusActive, core.StatusOnLeave, core.StatusTerminated}, "must be a known status")
	v.Enum("employmentType", p.EmploymentType, []string{core.EmploymentFullTime, core.EmploymentPartTime, core.EmploymentContractor, core.EmploymentIntern}, "must be a known employment type")
	v.UUID("orgUnitId", p.OrgUnitID, false)
	v.UUID("managerId", p.ManagerID, false)
	if p.Salary != nil {
		v.NonNegative("salary", *p.Salary)
	}
	dob := optionalDate(v, "dateOfBirth", p.DateOfBirth)
	start := optionalDate(v, "startDate", p.StartDate)
	end := optionalDate(v, "endDate", p.EndDate)
	if start != nil && end != nil {
		v.DateOrder("startDate", *start, "endDate", *end)
	}
	return core.Employee{
		EmployeeNumber: strings.TrimSpace(p.EmployeeNumber),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Phone:          strings.TrimSpace(p.Phone),
		DateOfBirth:    dob,
		Address:        strings.TrimSpace(p.Address),
		JobTitle:       strings.TrimSpace(p.JobTitle),
		NationalID:     strings.TrimSpace(p.NationalID),
		BankAccount:    strings.TrimSpace(p.BankAccount),
		Salary:         p.Salary,
		Currency:       strings.ToUpper(strings.TrimSpace(p.Currency)),
		EmploymentType: strings.ToLower(strings.TrimSpace(p.EmploymentType)),
		OrgUnitID:      strings.TrimSpace(p.OrgUnitID),
		ManagerID:      strings.TrimSpace(p.ManagerID),
		StartDate:      start,
		EndDate:        end,
		Status:         strings.ToLower(strings.TrimSpace(p.Status)),
	}
}

func optionalDate(v *shared.Validator, field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parsed, ok := v.Date(field, raw)
	if !ok {
		return nil
	}
	return &parsed
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload employeePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	emp := payload.toEmployee(v)
	if payload.Login != nil {
		v.UUID("login.roleId", payload.Login.RoleID, true)
		v.Required("login.password", payload.Login.Password, "is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	created, err := h.Service.Create(r.Context(), user.TenantID, emp, payload.Login)
	if err != nil {
		shared.WriteError(w, requestID, err, "employee_create_failed", "failed to create employee", employeeErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "employee.create", "employee", created.ID, nil, created)
	api.Created(w, created, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !shared.ValidID(w, middleware.GetRequestID(r.Context()), "employeeID", employeeID) {
		return
	}
	var payload employeePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	emp := payload.toEmployee(v)
	if payload.Login != nil {
		v.Add("login", "cannot be set on update")
	}
	if v.Reject(w, requestID) {
		return
	}
	emp.ID = employeeID

	before, after, err := h.Service.Update(r.Context(), user.TenantID, emp)
	if err != nil {
		shared.WriteError(w, requestID, err, "employee_update_failed", "failed to update employee", employeeErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "employee.update", "employee", employeeID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if !shared.ValidID(w, middleware.GetRequestID(r.Context()), "employeeID", employeeID) {
		return
	}
	contacts, err := h.Service.EmergencyContacts(r.Context(), v, employeeID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "contacts_failed", "failed to list emergency contacts", employeeErrors...)
		return
	}
	api.Success(w, contacts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReplaceContacts(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if !shared.ValidID(w, middleware.GetRequestID(r.Context()), "employeeID", employeeID) {
		return
	}
	var payload []core.EmergencyContact
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	validator := shared.NewValidator()
	for _, c := range payload {
		validator.Required("fullName", c.FullName, "is required for every contact")
		validator.Required("phone", c.Phone, "is required for every contact")
	}
	if validator.Reject(w, requestID) {
		return
	}
	contacts, err := h.Service.ReplaceEmergencyContacts(r.Context(), v, employeeID, payload)
	if err != nil {
		shared.WriteError(w, requestID, err, "contacts_update_failed", "failed to update emergency contacts", employeeErrors...)
		return
	}
	h.Audit.Log(r.Context(), v.User.TenantID, v.User.UserID, "employee.contacts.replace", "employee", employeeID, nil, contacts)
	api.Success(w, contacts, requestID)
}

func (h *Handler) handleManagerHistory(w http.ResponseWriter, r *http.Request) {
	v, ok := h.viewer(w, r)
	if !ok {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	if !shared.ValidID(w, middleware.GetRequestID(r.Context()), "employeeID", employeeID) {
		return
	}
	history, err := h.Service.ManagerHistory(r.Context(), v, employeeID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "manager_history_failed", "failed to load manager history", employeeErrors...)
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}
