package accesshandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrconsole/internal/domain/access"
	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

// AccessService is satisfied by access.Service.
type AccessService interface {
	ListRoles(ctx context.Context, tenantID string) ([]access.Role, error)
	GetRole(ctx context.Context, tenantID, roleID string) (access.Role, error)
	CreateRole(ctx context.Context, tenantID string, input access.RoleInput) (access.Role, error)
	UpdateRole(ctx context.Context, tenantID, roleID, name, description string) (access.Role, error)
	DeleteRole(ctx context.Context, tenantID, roleID string) (access.Role, error)
	ApplyAction(ctx context.Context, tenantID, roleID, moduleID string, action access.Action, enabling bool) (access.PermissionMap, access.PermissionMap, error)
	ReplacePermissions(ctx context.Context, tenantID, roleID string, perms access.PermissionMap) (access.PermissionMap, access.PermissionMap, error)
	Navigation(ctx context.Context, tenantID, roleID string) ([]access.MenuNode, error)
	ListModules(ctx context.Context, tenantID string) ([]access.NavigationModule, error)
	CreateModule(ctx context.Context, tenantID string, module access.NavigationModule) (access.NavigationModule, error)
	UpdateModule(ctx context.Context, tenantID string, module access.NavigationModule) (access.NavigationModule, error)
	ReorderModules(ctx context.Context, tenantID, parentID string, orderedIDs []string) ([]access.NavigationModule, error)
	ListUsers(ctx context.Context, tenantID string) ([]access.UserRole, error)
	AssignRole(ctx context.Context, tenantID, userID, roleID string) error
}

// KeySource lists the flattened permission keys held by a role.
type KeySource interface {
	Keys(ctx context.Context, roleID string) ([]string, error)
}

type Handler struct {
	Service AccessService
	Perms   middleware.PermissionStore
	Keys    KeySource
	Audit   *audit.Service
}

func NewHandler(service AccessService, perms middleware.PermissionStore, keys KeySource, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Keys: keys, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me/navigation", h.handleNavigation)
	r.Get("/me/permissions", h.handleMyPermissions)

	r.Route("/settings/roles", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermRolesView, h.Perms)).Get("/", h.handleListRoles)
		r.With(middleware.RequirePermission(auth.PermRolesCreate, h.Perms)).Post("/", h.handleCreateRole)
		r.Route("/{roleID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermRolesView, h.Perms)).Get("/", h.handleGetRole)
			r.With(middleware.RequirePermission(auth.PermRolesEdit, h.Perms)).Put("/", h.handleUpdateRole)
			r.With(middleware.RequirePermission(auth.PermRolesDelete, h.Perms)).Delete("/", h.handleDeleteRole)
			r.With(middleware.RequirePermission(auth.PermRolesView, h.Perms)).Get("/permissions", h.handleGetPermissions)
			r.With(middleware.RequirePermission(auth.PermRolesEdit, h.Perms)).Put("/permissions", h.handleReplacePermissions)
			r.With(middleware.RequirePermission(auth.PermRolesEdit, h.Perms)).Patch("/permissions", h.handleApplyAction)
		})
	})

	r.Route("/settings/modules", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermModulesView, h.Perms)).Get("/", h.handleListModules)
		r.With(middleware.RequirePermission(auth.PermModulesCreate, h.Perms)).Post("/", h.handleCreateModule)
		r.With(middleware.RequirePermission(auth.PermModulesEdit, h.Perms)).Post("/reorder", h.handleReorderModules)
		r.With(middleware.RequirePermission(auth.PermModulesEdit, h.Perms)).Put("/{moduleID}", h.handleUpdateModule)
	})

	r.Route("/settings/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersView, h.Perms)).Get("/", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermUsersEdit, h.Perms)).Put("/{userID}/role", h.handleAssignRole)
	})
}

var accessErrors = []shared.ErrorCase{
	shared.NotFound(access.ErrNotFound),
	shared.BadRequest(access.ErrUnknownModule, "unknown_module"),
	shared.BadRequest(access.ErrUnknownAction, "unknown_action"),
	shared.BadRequest(access.ErrNotPermutation, "invalid_order"),
	shared.Conflict(access.ErrCycle, "module_cycle"),
	shared.Conflict(access.ErrSystemRole, "system_role"),
	shared.Conflict(access.ErrRoleInUse, "role_in_use"),
	shared.Conflict(access.ErrConflict, "conflict"),
}

func (h *Handler) handleNavigation(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	menu, err := h.Service.Navigation(r.Context(), user.TenantID, user.RoleID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "navigation_failed", "failed to build navigation", accessErrors...)
		return
	}
	if menu == nil {
		menu = []access.MenuNode{}
	}
	api.Success(w, menu, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyPermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	keys, err := h.Keys.Keys(r.Context(), user.RoleID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "permissions_failed", "failed to load permissions")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	api.Success(w, keys, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRoles(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	roles, err := h.Service.ListRoles(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "role_list_failed", "failed to list roles")
		return
	}
	api.Success(w, roles, middleware.GetRequestID(r.Context()))
}

type rolePayload struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Permissions access.PermissionMap `json:"permissions"`
}

func (h *Handler) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload rolePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if v.Reject(w, requestID) {
		return
	}
	role, err := h.Service.CreateRole(r.Context(), user.TenantID, access.RoleInput{
		Name:        payload.Name,
		Description: strings.TrimSpace(payload.Description),
		Permissions: payload.Permissions,
	})
	if err != nil {
		shared.WriteError(w, requestID, err, "role_create_failed", "failed to create role", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "role.create", "role", role.ID, nil, role)
	api.Created(w, role, requestID)
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "roleID")
	return id, shared.ValidID(w, middleware.GetRequestID(r.Context()), "roleID", id)
}

func (h *Handler) handleGetRole(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.Service.GetRole(r.Context(), user.TenantID, roleID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "role_get_failed", "failed to load role", accessErrors...)
		return
	}
	api.Success(w, role, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload rolePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "is required")
	if payload.Permissions != nil {
		v.Add("permissions", "use the permissions endpoint")
	}
	if v.Reject(w, requestID) {
		return
	}
	role, err := h.Service.UpdateRole(r.Context(), user.TenantID, roleID, strings.TrimSpace(payload.Name), strings.TrimSpace(payload.Description))
	if err != nil {
		shared.WriteError(w, requestID, err, "role_update_failed", "failed to update role", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "role.update", "role", roleID, nil, role)
	api.Success(w, role, requestID)
}

func (h *Handler) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	role, err := h.Service.DeleteRole(r.Context(), user.TenantID, roleID)
	if err != nil {
		shared.WriteError(w, requestID, err, "role_delete_failed", "failed to delete role", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "role.delete", "role", roleID, role, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleGetPermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.Service.GetRole(r.Context(), user.TenantID, roleID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "permissions_failed", "failed to load permissions", accessErrors...)
		return
	}
	perms := role.Permissions
	if perms == nil {
		perms = access.PermissionMap{}
	}
	api.Success(w, perms, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReplacePermissions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload access.PermissionMap
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	before, after, err := h.Service.ReplacePermissions(r.Context(), user.TenantID, roleID, payload)
	if err != nil {
		shared.WriteError(w, requestID, err, "permissions_update_failed", "failed to update permissions", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "role.permissions.replace", "role", roleID, before, after)
	api.Success(w, after, requestID)
}

type actionPayload struct {
	ModuleID string `json:"moduleId"`
	Action   string `json:"action"`
	Enabling *bool  `json:"enabling"`
}

// handleApplyAction toggles one checkbox of the permission matrix and
// returns the whole cascaded map.
func (h *Handler) handleApplyAction(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	roleID, ok := h.roleID(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload actionPayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("moduleId", payload.ModuleID, true)
	v.Required("action", payload.Action, "is required")
	v.Enum("action", payload.Action, []string{"view", "create", "edit", "delete"}, "must be view, create, edit or delete")
	if payload.Enabling == nil {
		v.Add("enabling", "is required")
	}
	if v.Reject(w, requestID) {
		return
	}

	action := access.Action(strings.ToLower(strings.TrimSpace(payload.Action)))
	before, after, err := h.Service.ApplyAction(r.Context(), user.TenantID, roleID, payload.ModuleID, action, *payload.Enabling)
	if err != nil {
		shared.WriteError(w, requestID, err, "permissions_update_failed", "failed to update permissions", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "role.permissions.apply", "role", roleID, before, after)
	api.Success(w, after, requestID)
}

func (h *Handler) handleListModules(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	modules, err := h.Service.ListModules(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "module_list_failed", "failed to list modules", accessErrors...)
		return
	}
	api.Success(w, modules, middleware.GetRequestID(r.Context()))
}

type modulePayload struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	ParentID  string `json:"parentId"`
	SortOrder int    `json:"sortOrder"`
	Path      string `json:"path"`
	Icon      string `json:"icon"`
}

func (p modulePayload) validate(v *shared.Validator, create bool) {
	if create {
		v.Required("key", p.Key, "is required")
		if strings.ContainsAny(p.Key, ": ") {
			v.Add("key", "must not contain spaces or colons")
		}
	}
	v.Required("name", p.Name, "is required")
	v.UUID("parentId", p.ParentID, false)
	if p.SortOrder < 0 {
		v.Add("sortOrder", "must not be negative")
	}
}

func (p modulePayload) module() access.NavigationModule {
	return access.NavigationModule{
		Key:       strings.TrimSpace(p.Key),
		Name:      strings.TrimSpace(p.Name),
		ParentID:  strings.TrimSpace(p.ParentID),
		SortOrder: p.SortOrder,
		Path:      strings.TrimSpace(p.Path),
		Icon:      strings.TrimSpace(p.Icon),
	}
}

func (h *Handler) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	var payload modulePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	payload.validate(v, true)
	if v.Reject(w, requestID) {
		return
	}
	module, err := h.Service.CreateModule(r.Context(), user.TenantID, payload.module())
	if err != nil {
		shared.WriteError(w, requestID, err, "module_create_failed", "failed to create module", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "module.create", "navigation_module", module.ID, nil, module)
	api.Created(w, module, requestID)
}

func (h *Handler) handleUpdateModule(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	moduleID := chi.URLParam(r, "moduleID")
	if !shared.ValidID(w, requestID, "moduleID", moduleID) {
		return
	}
	var payload modulePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	payload.validate(v, false)
	if v.Reject(w, requestID) {
		return
	}
	module := payload.module()
	module.ID = moduleID
	updated, err := h.Service.UpdateModule(r.Context(), user.TenantID, module)
	if err != nil {
		shared.WriteError(w, requestID, err, "module_update_failed", "failed to update module", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "module.update", "navigation_module", moduleID, nil, updated)
	api.Success(w, updated, requestID)
}

type reorderPayload struct {
	ParentID   string   `json:"parentId"`
	OrderedIDs []string `json:"orderedIds"`
}

func (h *Handler) handleReorderModules(w http.ResponseWriter, r *http.Request) {
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
	modules, err := h.Service.ReorderModules(r.Context(), user.TenantID, payload.ParentID, payload.OrderedIDs)
	if err != nil {
		shared.WriteError(w, requestID, err, "module_reorder_failed", "failed to reorder modules", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "module.reorder", "navigation_module", payload.ParentID, nil, payload.OrderedIDs)
	api.Success(w, modules, requestID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	users, err := h.Service.ListUsers(r.Context(), user.TenantID)
	if err != nil {
		shared.WriteError(w, middleware.GetRequestID(r.Context()), err, "user_list_failed", "failed to list users")
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

type assignRolePayload struct {
	RoleID string `json:"roleId"`
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userID")
	if !shared.ValidID(w, requestID, "userID", userID) {
		return
	}
	var payload assignRolePayload
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.UUID("roleId", payload.RoleID, true)
	if userID == user.UserID {
		v.Add("userID", "cannot change your own role")
	}
	if v.Reject(w, requestID) {
		return
	}
	if err := h.Service.AssignRole(r.Context(), user.TenantID, userID, payload.RoleID); err != nil {
		shared.WriteError(w, requestID, err, "role_assign_failed", "failed to assign role", accessErrors...)
		return
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, "user.role.assign", "user", userID, nil, payload)
	api.Success(w, map[string]string{"status": "assigned"}, requestID)
}
