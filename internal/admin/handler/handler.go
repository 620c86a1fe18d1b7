// Package handler exposes administrator login and roster management over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sigil/internal/admin/models"
	"sigil/internal/admin/service"
	dErrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/httputil"
	"sigil/pkg/requestcontext"
)

// Service defines the admin operations the handler depends on.
type Service interface {
	Login(ctx context.Context, adminID, password string) (*service.Session, error)
	Add(ctx context.Context, name, adminID, password string) (models.PublicAdmin, error)
	Remove(ctx context.Context, adminID string) error
	List(ctx context.Context) ([]models.PublicAdmin, error)
}

// Handler handles admin authentication and roster endpoints.
type Handler struct {
	logger *slog.Logger
	admin  Service
}

// New creates a new admin Handler.
func New(admin Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		admin:  admin,
	}
}

// Register registers the public admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/institution", h.handleLogin)
}

// RegisterAdmin registers the routes behind the admin guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admins", h.handleList)
	r.Post("/admin/add", h.handleAdd)
	r.Post("/admin/remove", h.handleRemove)
}

type loginRequest struct {
	AdminID  string `json:"adminId"`
	Password string `json:"password"`
}

func (r *loginRequest) Normalize() {
	r.AdminID = strings.TrimSpace(r.AdminID)
}

func (r *loginRequest) Validate() error {
	if r.AdminID == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "adminId and password are required")
	}
	return nil
}

type loginResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	Admin   models.PublicAdmin `json:"admin"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[loginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.admin.Login(ctx, req.AdminID, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "admin login rejected",
			"request_id", requestID,
			"admin_id", req.AdminID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   session.Token,
		Admin:   session.Admin,
	})
}

type listAdminsResponse struct {
	Admins []models.PublicAdmin `json:"admins"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	admins, err := h.admin.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list admins",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listAdminsResponse{Admins: admins})
}

type addAdminRequest struct {
	Name     string `json:"name"`
	AdminID  string `json:"adminId"`
	Password string `json:"password"`
}

func (r *addAdminRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.AdminID = strings.TrimSpace(r.AdminID)
}

func (r *addAdminRequest) Validate() error {
	if r.Name == "" || r.AdminID == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "name, adminId, and password are required")
	}
	return nil
}

type addAdminResponse struct {
	Message string             `json:"message"`
	Admin   models.PublicAdmin `json:"admin"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[addAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	admin, err := h.admin.Add(ctx, req.Name, req.AdminID, req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to add admin",
			"request_id", requestID,
			"admin_id", req.AdminID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, addAdminResponse{
		Message: "Admin added successfully",
		Admin:   admin,
	})
}

type removeAdminRequest struct {
	AdminID string `json:"adminId"`
}

func (r *removeAdminRequest) Normalize() {
	r.AdminID = strings.TrimSpace(r.AdminID)
}

func (r *removeAdminRequest) Validate() error {
	if r.AdminID == "" {
		return dErrors.New(dErrors.CodeValidation, "adminId is required")
	}
	return nil
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[removeAdminRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.admin.Remove(ctx, req.AdminID); err != nil {
		h.logger.WarnContext(ctx, "failed to remove admin",
			"request_id", requestID,
			"admin_id", req.AdminID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Admin removed successfully",
	})
}
