package orghandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/org"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// OrgService is satisfied by org.Service.
type OrgService interface {
	List(ctx context.Context, tenantID string) ([]org.OrgUnit, error)
	Tree(ctx context.Context, tenantID string) ([]*org.Node, error)
	Create(ctx context.Context, tenantID string, input org.UnitInput) (org.OrgUnit, error)
	Update(ctx context.Context, tenantID, unitID string, input org.UnitInput) (org.OrgUnit, org.OrgUnit, error)
	Move(ctx context.Context, tenantID, unitID, newParentID string) (org.OrgUnit, org.OrgUnit, error)
	Reorder(ctx context.Context, tenantID, parentID string, orderedIDs []string) (map[string]int, error)
	Delete(ctx context.Context, tenantID, unitID string) (org.OrgUnit, error)
	Chart(ctx context.Context, tenantID, rootEmployeeID string) ([]*org.ChartNode, error)
}

type Handler struct {
	Service OrgService
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service OrgService, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/org", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgView, h.Perms)).Get("/units", h.handleList)
		r.With(middleware.RequirePermission(auth.PermOrgCreate, h.Perms)).Post("/units", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermOrgView, h.Perms)).Get("/units/tree", h.handleTree)
		r.With(middleware.RequirePermission(auth.PermOrgEdit, h.Perms)).Post("/units/reorder", h.handleReorder)
		r.With(middleware.RequirePermission(auth.PermOrgEdit, h.Perms)).Put("/units/{unitID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermOrgEdit, h.Perms)).Post("/units/{unitID}/move", h.handleMove)
		r.With(middleware.RequirePermission(auth.PermOrgDelete, h.Perms)).Delete("/units/{unitID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermOrgView, h.Perms)).Get("/chart", h.handleChart)
	})
}

var orgErrors = []shared.ErrorCase{
	shared.NotFound(org.ErrNotFound),
	shared.BadRequest(org.ErrInvalidKind, "invalid_kind"),
	shared.BadRequest(org.ErrInvalidPlacement, "invalid_placement"),
	shared.BadRequest(org.ErrNotPermutation, "invalid_order"),
	shared.Conflict(org.ErrCycle, "org_cycle"),
	shared.Conflict(org.ErrInUse, "org_unit_in_use"),
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	units, err := h.Service.List(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "org_list_failed", "failed to list org units")
		return
	}
	api.Success(w, units, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	tree, err := h.Service.Tree(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "org_tree_failed", "failed to build org tree")
		return
	}
	if tree == nil {
		tree = []*org.Node{}
	}
	api.Success(w, tree, middleware.GetRequestID(r.Context()))
}

type unitPayload struct {
	Name              string `json:"name"`
	Kind              string `json:"kind"`
	ParentID          string `json:"parentId"`
	ManagerEmployeeID string `json:"managerEmployeeId"`
}

func (p unitPayload) input(v *shared.Validator, kindRequired bool) org.UnitInput {
	v.Required("name", p.Name, "is required")
	if kindRequired {
		v.Required("kind", p.Kind, "is required")
	}
	v.Enum("kind", p.Kind, []string{string(org.KindCompany), string(org.KindDivision), string(org.KindDepartment), string(org.KindTeam)}, "must be company, division, department or team")
	v.UUID("parentId", p.ParentID, false)
	v.UUID("managerEmployeeId", p.ManagerEmployeeID, false)
	return org.UnitInput{
		Name:              strings.TrimSpace(p.Name),
		Kind:              org.Kind(strings.ToLower(strings.TrimSpace(p.Kind))),
		ParentID:          strings.TrimSpace(p.ParentID),
		ManagerEmployeeID: strings.TrimSpace(p.ManagerEmployeeID),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload unitPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	input := payload.input(v, true)
	if v.Reject(w, requestID) {
		return
	}
	unit, err := h.Service.Create(r.Context(), user.TenantID, input)
	if err != nil {
		shared.WriteError(w, requestID, err, "org_create_failed", "failed to create org unit", orgErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "org.unit.create", "org_unit", unit.ID, nil, unit)
	api.Created(w, unit, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	unitID := chi.URLParam(r, "unitID")
	if !shared.ValidID(w, requestID, "unitID", unitID) {
		return
	}
	var payload unitPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	input := payload.input(v, false)
	if input.ParentID != "" {
		v.Add("parentId", "use the move endpoint")
	}
	if v.Reject(w, requestID) {
		return
	}
	before, after, err := h.Service.Update(r.Context(), user.TenantID, unitID, input)
	if err != nil {
		shared.WriteError(w, requestID, err, "org_update_failed", "failed to update org unit", orgErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "org.unit.update", "org_unit", unitID, before, after)
	api.Success(w, after, requestID)
}

type movePayload struct {
	ParentID string `json:"parentId"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	unitID := chi.URLParam(r, "unitID")
	if !shared.ValidID(w, requestID, "unitID", unitID) {
		return
	}
	var payload movePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("parentId", payload.ParentID, false)
	if v.Reject(w, requestID) {
		return
	}
	before, after, err := h.Service.Move(r.Context(), user.TenantID, unitID, strings.TrimSpace(payload.ParentID))
	if err != nil {
		shared.WriteError(w, requestID, err, "org_move_failed", "failed to move org unit", orgErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "org.unit.move", "org_unit", unitID, before, after)
	api.Success(w, after, requestID)
}

type reorderPayload struct {
	ParentID   string   `json:"parentId"`
	OrderedIDs []string `json:"orderedIds"`
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload reorderPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("parentId", payload.ParentID, false)
	if len(payload.OrderedIDs) == 0 {
		v.Add("orderedIds", "is required")
	}
	if v.Reject(w, requestID) {
		return
	}
	orders, err := h.Service.Reorder(r.Context(), user.TenantID, payload.ParentID, payload.OrderedIDs)
	if err != nil {
		shared.WriteError(w, requestID, err, "org_reorder_failed", "failed to reorder org units", orgErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "org.unit.reorder", "org_unit", payload.ParentID, nil, orders)
	api.Success(w, orders, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	unitID := chi.URLParam(r, "unitID")
	if !shared.ValidID(w, requestID, "unitID", unitID) {
		return
	}
	unit, err := h.Service.Delete(r.Context(), user.TenantID, unitID)
	if err != nil {
		shared.WriteError(w, requestID, err, "org_delete_failed", "failed to delete org unit", orgErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "org.unit.delete", "org_unit", unitID, unit, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	root := strings.TrimSpace(r.URL.Query().Get("rootEmployeeId"))
	if root != "" && !shared.ValidID(w, requestID, "rootEmployeeId", root) {
		return
	}
	chart, err := h.Service.Chart(r.Context(), user.TenantID, root)
	if err != nil {
		shared.WriteError(w, requestID, err, "org_chart_failed", "failed to build org chart", orgErrors...)
		return
	}
	if chart == nil {
		chart = []*org.ChartNode{}
	}
	api.Success(w, chart, requestID)
}
