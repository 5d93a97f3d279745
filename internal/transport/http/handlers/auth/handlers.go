package authhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/notifications"
	cryptoutil "hrconsole/internal/platform/crypto"
	"hrconsole/internal/transport/http/api"
	"hrconsole/internal/transport/http/middleware"
	"hrconsole/internal/transport/http/shared"
)

const (
	sessionTTL     = 8 * time.Hour
	defaultBaseURL = "http://localhost:8080"
	mfaIssuer      = "HR Console"
)

// AuthService is the credential and session side of *auth.Service.
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (auth.AuthUser, error)
	StartSession(ctx context.Context, userID string, ttl time.Duration) (string, error)
	RotateSession(ctx context.Context, userID, sessionID string, ttl time.Duration) (string, error)
	EndSession(ctx context.Context, userID, sessionID string) error
	CurrentRole(ctx context.Context, userID string) (string, string, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error
	GetMFASecret(ctx context.Context, userID string) ([]byte, error)
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
	RequestPasswordReset(ctx context.Context, email string, ttl time.Duration) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
}

type Handler struct {
	Service   AuthService
	Secret    string
	Crypto    *cryptoutil.Service
	Mailer    notifications.Mailer
	EmailFrom string
	BaseURL   string
	ResetTTL  time.Duration
	Audit     *audit.Service
}

func NewHandler(service AuthService, secret string, crypto *cryptoutil.Service, mailer notifications.Mailer, emailFrom, baseURL string, resetTTL time.Duration, auditSvc *audit.Service) *Handler {
	return &Handler{
		Service:   service,
		Secret:    secret,
		Crypto:    crypto,
		Mailer:    mailer,
		EmailFrom: emailFrom,
		BaseURL:   baseURL,
		ResetTTL:  resetTTL,
		Audit:     auditSvc,
	}
}

// RegisterPublicRoutes mounts endpoints that run before authentication.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/request-reset", h.HandleRequestReset)
	r.Post("/auth/reset", h.HandleResetPassword)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Post("/auth/mfa/setup", h.HandleMFASetup)
	r.Post("/auth/mfa/enable", h.HandleMFAEnable)
	r.Post("/auth/mfa/disable", h.HandleMFADisable)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

type sessionUser struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	RoleID   string `json:"roleId"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *sessionUser `json:"user,omitempty"`
}

func (h *Handler) issue(claims auth.Claims) (sessionResponse, error) {
	token, err := auth.GenerateToken(h.Secret, claims, sessionTTL)
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{Token: token, ExpiresAt: time.Now().Add(sessionTTL).UTC()}, nil
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	user, err := h.Service.Authenticate(r.Context(), strings.TrimSpace(payload.Email), payload.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("login lookup failed", "err", err)
		}
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}

	if user.MFAEnabled {
		if payload.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
			return
		}
		secret, err := h.decryptSecret(user.MFASecretEn)
		if err != nil || secret == "" || !totp.Validate(payload.MFACode, secret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
			return
		}
	}

	sessionID, err := h.Service.StartSession(r.Context(), user.ID, sessionTTL)
	if err != nil {
		slog.Error("start session failed", "userId", user.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", requestID)
		return
	}

	resp, err := h.issue(auth.Claims{UserID: user.ID, TenantID: user.TenantID, RoleID: user.RoleID, RoleName: user.RoleName, SessionID: sessionID})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}
	resp.User = &sessionUser{ID: user.ID, TenantID: user.TenantID, RoleID: user.RoleID, Role: user.RoleName, Email: user.Email}

	if err := h.Service.UpdateLastLogin(r.Context(), user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	h.Audit.Log(r.Context(), user.TenantID, user.ID, "auth.login", "user", user.ID, nil, nil)

	api.Success(w, resp, requestID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok && user.SessionID != "" {
		if err := h.Service.EndSession(r.Context(), user.UserID, user.SessionID); err != nil {
			slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

// HandleRefresh rotates the session and re-reads the user's role, so a role
// change takes effect at the next refresh.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	raw := middleware.BearerToken(r)
	if raw == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	claims, err := auth.ParseToken(h.Secret, raw)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	next, err := h.Service.RotateSession(r.Context(), claims.UserID, claims.SessionID, sessionTTL)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", requestID)
			return
		}
		slog.Error("rotate session failed", "userId", claims.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", requestID)
		return
	}

	roleID, roleName, err := h.Service.CurrentRole(r.Context(), claims.UserID)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "account unavailable", requestID)
		return
	}

	resp, err := h.issue(auth.Claims{UserID: claims.UserID, TenantID: claims.TenantID, RoleID: roleID, RoleName: roleName, SessionID: next})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}
	resp.User = &sessionUser{ID: claims.UserID, TenantID: claims.TenantID, RoleID: roleID, Role: roleName}
	api.Success(w, resp, requestID)
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if !h.mfaAvailable(w, requestID) {
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: user.UserID,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", requestID)
		return
	}
	secret := key.Secret()
	encrypted, err := h.Crypto.EncryptString(secret)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", requestID)
		return
	}
	if err := h.Service.UpdateMFASecret(r.Context(), user.UserID, encrypted); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", requestID)
		return
	}

	api.Success(w, map[string]string{"secret": secret, "otpauthUrl": key.URL()}, requestID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.toggleMFA(w, r, false)
}

func (h *Handler) toggleMFA(w http.ResponseWriter, r *http.Request, enable bool) {
	user, ok := middleware.CurrentUser(w, r)
	if !ok {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	if !h.mfaAvailable(w, requestID) {
		return
	}
	var payload mfaCodeRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	secretEnc, err := h.Service.GetMFASecret(r.Context(), user.UserID)
	if err != nil || len(secretEnc) == 0 {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestID)
		return
	}
	secret, err := h.Crypto.DecryptString(secretEnc)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa secret", requestID)
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestID)
		return
	}

	if err := h.Service.SetMFAEnabled(r.Context(), user.UserID, enable); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_update_failed", "failed to update mfa", requestID)
		return
	}
	status, action := "disabled", "auth.mfa.disable"
	if enable {
		status, action = "enabled", "auth.mfa.enable"
	}
	h.Audit.Log(r.Context(), user.TenantID, user.UserID, action, "user", user.UserID, nil, nil)
	api.Success(w, map[string]string{"status": status}, requestID)
}

// HandleRequestReset always answers the same way so callers cannot probe
// which emails exist.
func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload resetRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	email := strings.TrimSpace(payload.Email)
	token, err := h.Service.RequestPasswordReset(r.Context(), email, h.resetTTL())
	switch {
	case errors.Is(err, auth.ErrNotFound):
	case err != nil:
		slog.Warn("password reset request failed", "err", err)
	case h.Mailer != nil:
		link := buildResetLink(h.BaseURL, token)
		if err := h.Mailer.Send(r.Context(), h.EmailFrom, email, "Reset your password", buildResetEmailMessage(link, h.resetTTL())); err != nil {
			slog.Warn("password reset email failed", "err", err)
		}
	}

	api.Success(w, map[string]string{"status": "reset_requested"}, requestID)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload resetPasswordRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	if _, err := h.Service.ResetPassword(r.Context(), payload.Token, payload.NewPassword); err != nil {
		shared.WriteError(w, requestID, err, "update_failed", "failed to update password",
			shared.BadRequest(auth.ErrWeakPassword, "weak_password"),
			shared.ErrorCase{Err: auth.ErrNotFound, Status: http.StatusBadRequest, Code: "invalid_token", Message: "invalid or expired token"},
		)
		return
	}

	api.Success(w, map[string]string{"status": "password_reset"}, requestID)
}

func (h *Handler) mfaAvailable(w http.ResponseWriter, requestID string) bool {
	if h.Crypto == nil || !h.Crypto.Configured() {
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", requestID)
		return false
	}
	return true
}

func (h *Handler) decryptSecret(enc []byte) (string, error) {
	if h.Crypto != nil && h.Crypto.Configured() {
		return h.Crypto.DecryptString(enc)
	}
	return string(enc), nil
}

func (h *Handler) resetTTL() time.Duration {
	if h.ResetTTL > 0 {
		return h.ResetTTL
	}
	return 2 * time.Hour
}

func buildResetLink(baseURL, token string) string {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		base, _ = url.Parse(defaultBaseURL)
	}
	base.Path = path.Join("/", base.Path, "reset")
	query := url.Values{}
	query.Set("token", token)
	base.RawQuery = query.Encode()
	return base.String()
}

func buildResetEmailMessage(link string, ttl time.Duration) string {
	hours := int(ttl.Hours())
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf("A password reset was requested for your account.\n\nOpen %s to choose a new password. The link expires in %d hour(s).\n\nIf you did not request this, ignore this email.", link, hours)
}
