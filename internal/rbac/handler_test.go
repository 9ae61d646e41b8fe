package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/lotworks/lotworks/internal/profile"
	"github.com/lotworks/lotworks/internal/session"
	"github.com/lotworks/lotworks/internal/shared"
)

func newPermissionsRouter(t *testing.T, store *memStore, actor session.Snapshot) http.Handler {
	t.Helper()
	registry := NewRegistry(store, nil)
	mw := Middleware{Sessions: stubSessions{snap: actor}, Gate: NewGate(registry)}
	r := chi.NewRouter()
	r.Route("/api/permissions", NewHandler(nil, registry, mw).MountRoutes)
	return r
}

func adminActor() session.Snapshot {
	return session.Snapshot{
		State: session.StateAuthenticated,
		User:  &profile.User{ID: "a1", Role: shared.RoleAdmin},
	}
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeGrants(t *testing.T, rec *httptest.ResponseRecorder) []shared.Screen {
	t.Helper()
	var body struct {
		Screens []shared.Screen `json:"screens"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Screens
}

func TestPermissionsAPIRequiresPermissionsScreen(t *testing.T) {
	store := newMemStore()
	router := newPermissionsRouter(t, store, adminActor())

	// Even an admin is locked out of the matrix without the grant.
	rec := doJSON(router, http.MethodGet, "/api/permissions/seller", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionsAPIWritesNeedAdminTier(t *testing.T) {
	store := newMemStore()
	seedGrants(t, store, shared.RoleSeller, shared.ScreenPermissions)
	actor := session.Snapshot{
		State: session.StateAuthenticated,
		User:  &profile.User{ID: "s1", Role: shared.RoleSeller},
	}
	router := newPermissionsRouter(t, store, actor)

	rec := doJSON(router, http.MethodGet, "/api/permissions/seller", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/permissions/seller", `{"screen":"vehicles"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionsAPIAddAndRemove(t *testing.T) {
	store := newMemStore()
	seedGrants(t, store, shared.RoleAdmin, shared.ScreenPermissions)
	router := newPermissionsRouter(t, store, adminActor())

	rec := doJSON(router, http.MethodPost, "/api/permissions/seller", `{"screen":"dashboard"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []shared.Screen{shared.ScreenDashboard}, decodeGrants(t, rec))

	rec = doJSON(router, http.MethodDelete, "/api/permissions/seller/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeGrants(t, rec))
}

func TestPermissionsAPIReplaceDeduplicates(t *testing.T) {
	store := newMemStore()
	seedGrants(t, store, shared.RoleAdmin, shared.ScreenPermissions)
	seedGrants(t, store, shared.RoleSeller, shared.ScreenDashboard)
	router := newPermissionsRouter(t, store, adminActor())

	rec := doJSON(router, http.MethodPut, "/api/permissions/seller",
		`{"screens":["customers","tasks","customers"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []shared.Screen{shared.ScreenCustomers, shared.ScreenTasks}, decodeGrants(t, rec))

	rec = doJSON(router, http.MethodPut, "/api/permissions/seller", `{"screens":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeGrants(t, rec))
}

func TestPermissionsAPIRejectsUnknownIdentifiers(t *testing.T) {
	store := newMemStore()
	seedGrants(t, store, shared.RoleAdmin, shared.ScreenPermissions)
	router := newPermissionsRouter(t, store, adminActor())

	rec := doJSON(router, http.MethodGet, "/api/permissions/janitor", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/permissions/seller", `{"screen":"warehouse"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
