package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lotworks/lotworks/internal/platform/httpx"
	"github.com/lotworks/lotworks/internal/shared"
)

// Handler exposes the administrative permission-matrix API. Every mutation
// response carries the refetched grant set so the matrix UI always renders
// confirmed storage state.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	mw        Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, registry *Registry, mw Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		registry:  registry,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers permission routes. Reads need the permissions screen;
// writes additionally need the admin tier.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireScreen(shared.ScreenPermissions))
		r.Get("/screens", h.listScreens)
		r.Get("/{role}", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireScreen(shared.ScreenPermissions), h.mw.RequireAdminTier)
		r.Post("/{role}", h.add)
		r.Put("/{role}", h.replace)
		r.Delete("/{role}/{screen}", h.remove)
	})
}

type grantSetResponse struct {
	Role    shared.Role     `json:"role"`
	Screens []shared.Screen `json:"screens"`
}

type addPermissionRequest struct {
	Screen string `json:"screen" validate:"required"`
}

type replacePermissionsRequest struct {
	Screens []string `json:"screens" validate:"dive,required"`
}

func (h *Handler) listScreens(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"screens": shared.Screens(), "roles": shared.PermissionRoles()})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	role, err := parseRoleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	screens, err := h.registry.List(r.Context(), role)
	if err != nil {
		h.logger.Error("list permissions", slog.String("role", role.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantSetResponse{Role: role, Screens: screens})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	role, err := parseRoleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req addPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	screen, err := shared.ParseScreen(req.Screen)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	screens, err := h.registry.Add(r.Context(), role, screen)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantSetResponse{Role: role, Screens: screens})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	role, err := parseRoleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	screen, err := shared.ParseScreen(chi.URLParam(r, "screen"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	screens, err := h.registry.Remove(r.Context(), role, screen)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantSetResponse{Role: role, Screens: screens})
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	role, err := parseRoleParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req replacePermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	screens := make([]shared.Screen, 0, len(req.Screens))
	seen := make(map[shared.Screen]struct{}, len(req.Screens))
	for _, raw := range req.Screens {
		screen, err := shared.ParseScreen(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if _, dup := seen[screen]; dup {
			continue
		}
		seen[screen] = struct{}{}
		screens = append(screens, screen)
	}
	stored, err := h.registry.Replace(r.Context(), role, screens)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, grantSetResponse{Role: role, Screens: stored})
}

func parseRoleParam(r *http.Request) (shared.Role, error) {
	return shared.ParseRole(chi.URLParam(r, "role"))
}
