package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/UNI-BIG-CAT/gatekeeper/internal/errcode"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/model"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/server/middleware"
	"github.com/UNI-BIG-CAT/gatekeeper/internal/service"
)

// AdminService is the session lifecycle used by AdminHandler.
// *service.SessionManager implements it.
type AdminService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.Admin, error)
	Activate(ctx context.Context, req model.ActivateRequest) (*service.Session, error)
	Login(ctx context.Context, req model.LoginRequest) (*service.Session, error)
	Logout(ctx context.Context, p model.Payload) error
}

// AdminHandler serves the /admin routes.
type AdminHandler struct {
	svc AdminService
	responder
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc AdminService, msgs *errcode.Catalog, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, responder: responder{msgs: msgs, logger: logger}}
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

// Register creates a pending admin.
// POST /admin/register
func (h *AdminHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := readJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, errcode.BadRequest, nil)
		return
	}

	admin, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.success(w, model.RegisterResponse{
		AdminID:   admin.ID,
		AdminName: admin.Name,
		RoleID:    admin.RoleID,
		Email:     admin.Email,
		Phone:     admin.Phone,
	})
}

// ActivateEmailCode redeems an activation code and logs the admin in.
// GET /admin/activeEmailCode?admin_id=&code=
func (h *AdminHandler) ActivateEmailCode(w http.ResponseWriter, r *http.Request) {
	adminID, err := queryInt64(r, "admin_id")
	if err != nil {
		h.fail(w, http.StatusBadRequest, errcode.BadRequest, nil)
		return
	}

	s, err := h.svc.Activate(r.Context(), model.ActivateRequest{
		AdminID: adminID,
		Code:    r.URL.Query().Get("code"),
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.success(w, loginResponse(s))
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// Login starts a session for an enabled admin.
// POST /admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := readJSON(r, &req); err != nil {
		h.fail(w, http.StatusBadRequest, errcode.BadRequest, nil)
		return
	}

	s, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.success(w, loginResponse(s))
}

// My returns the identity of the live session. It must be mounted behind
// Authenticate and RequireLiveSession.
// GET /admin/my
func (h *AdminHandler) My(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetProfile(r.Context())
	if p == nil {
		h.fail(w, http.StatusUnauthorized, errcode.Unauthenticated, nil)
		return
	}
	h.success(w, model.AdminInfoResponse{
		AdminID:   p.AdminID,
		AdminName: p.AdminName,
		Email:     p.Email,
		Phone:     p.Phone,
		RoleID:    p.RoleID,
	})
}

// Logout destroys the session named by the bearer token.
// POST /admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		h.fail(w, http.StatusUnauthorized, errcode.Unauthenticated, nil)
		return
	}
	if err := h.svc.Logout(r.Context(), principal.Payload()); err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.success(w, "logged out")
}

func loginResponse(s *service.Session) model.LoginResponse {
	return model.LoginResponse{
		AdminID:   s.Profile.AdminID,
		AdminName: s.Profile.AdminName,
		RoleID:    s.Profile.RoleID,
		Email:     s.Profile.Email,
		Phone:     s.Profile.Phone,
		JWTToken:  s.BearerToken,
	}
}
