// Package users exposes the user directory consumed by the users screen.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lotworks/lotworks/internal/platform/httpx"
	"github.com/lotworks/lotworks/internal/profile"
	"github.com/lotworks/lotworks/internal/rbac"
	"github.com/lotworks/lotworks/internal/shared"
)

// Directory lists profile records.
type Directory interface {
	List(ctx context.Context) ([]profile.User, error)
}

// Handler manages user directory endpoints.
type Handler struct {
	logger    *slog.Logger
	directory Directory
	mw        rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, directory Directory, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, directory: directory, mw: mw}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireScreen(shared.ScreenUsers))
		r.Get("/", h.listUsers)
	})
}

type userView struct {
	profile.User
	DisplayName string `json:"display_name"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.directory.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]userView, len(users))
	for i, user := range users {
		views[i] = userView{User: user, DisplayName: user.DisplayName()}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": views})
}
