package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lotworks/lotworks/internal/identity"
	"github.com/lotworks/lotworks/internal/platform/httpx"
	"github.com/lotworks/lotworks/internal/rbac"
	"github.com/lotworks/lotworks/internal/session"
	"github.com/lotworks/lotworks/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows. All authorization
// state flows out of the session manager; this layer only translates.
type Handler struct {
	logger    *slog.Logger
	manager   *session.Manager
	registry  *rbac.Registry
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, manager *session.Manager, registry *rbac.Registry) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		manager:   manager,
		registry:  registry,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignUp)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type signUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Role      string `json:"role" validate:"required"`
}

type outcomeResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type sessionResponse struct {
	User          any                  `json:"user"`
	Loading       bool                 `json:"loading"`
	Authenticated bool                 `json:"authenticated"`
	State         string               `json:"state"`
	Flags         rbac.CapabilityFlags `json:"flags"`
	Screens       []shared.Screen      `json:"screens"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, outcomeResponse{Message: "Email and password are required"})
		return
	}
	if err := h.manager.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.logger.Warn("sign in rejected", slog.String("email", req.Email))
		httpx.JSON(w, http.StatusUnauthorized, outcomeResponse{Message: "Invalid email or password"})
		return
	}
	httpx.JSON(w, http.StatusOK, outcomeResponse{OK: true, Message: "Signed in"})
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, outcomeResponse{Message: "All fields are required"})
		return
	}
	role, err := shared.ParseRole(req.Role)
	if err != nil {
		httpx.JSON(w, http.StatusBadRequest, outcomeResponse{Message: "Unknown role"})
		return
	}
	meta := identity.SignUpMetadata{FirstName: req.FirstName, LastName: req.LastName, Role: role}
	if err := h.manager.SignUp(r.Context(), req.Email, req.Password, meta); err != nil {
		h.logger.Warn("sign up rejected", slog.String("email", req.Email), slog.Any("error", err))
		httpx.JSON(w, http.StatusBadRequest, outcomeResponse{Message: "Could not create the account"})
		return
	}
	httpx.JSON(w, http.StatusOK, outcomeResponse{OK: true, Message: "Account created"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.SignOut(r.Context()); err != nil {
		h.logger.Error("sign out", slog.Any("error", err))
		httpx.JSON(w, http.StatusBadGateway, outcomeResponse{Message: "Sign out failed"})
		return
	}
	httpx.JSON(w, http.StatusOK, outcomeResponse{OK: true, Message: "Signed out"})
}

// handleSession exposes the reactive {user, loading, authenticated} triple
// plus the role's capability flags and granted screens. Flags come from the
// role alone; screens come from the registry alone.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := h.manager.Snapshot()
	res := sessionResponse{
		Loading:       snap.Loading,
		Authenticated: snap.Authenticated(),
		State:         snap.State.String(),
		Screens:       []shared.Screen{},
	}
	if snap.User != nil {
		res.User = snap.User
		res.Flags = rbac.FlagsFor(snap.User.Role)
		screens, err := h.registry.List(r.Context(), snap.User.Role)
		if err != nil {
			h.logger.Error("list session screens", slog.Any("error", err))
		} else {
			res.Screens = screens
		}
	}
	httpx.JSON(w, http.StatusOK, res)
}
