package users_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/lotworks/lotworks/internal/profile"
	"github.com/lotworks/lotworks/internal/rbac"
	"github.com/lotworks/lotworks/internal/session"
	"github.com/lotworks/lotworks/internal/shared"
	"github.com/lotworks/lotworks/internal/users"
	_ "github.com/lotworks/lotworks/testing"
)

type stubDirectory struct {
	list []profile.User
}

func (s stubDirectory) List(ctx context.Context) ([]profile.User, error) {
	return s.list, nil
}

type stubSessions struct {
	snap session.Snapshot
}

func (s stubSessions) Snapshot() session.Snapshot { return s.snap }

type stubGrants struct {
	mu     sync.Mutex
	grants map[shared.Role]map[shared.Screen]struct{}
}

func newStubGrants() *stubGrants {
	return &stubGrants{grants: make(map[shared.Role]map[shared.Screen]struct{})}
}

func (s *stubGrants) List(ctx context.Context, role shared.Role) ([]shared.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	screens := make([]shared.Screen, 0, len(s.grants[role]))
	for screen := range s.grants[role] {
		screens = append(screens, screen)
	}
	sort.Slice(screens, func(i, j int) bool { return screens[i] < screens[j] })
	return screens, nil
}

func (s *stubGrants) Add(ctx context.Context, role shared.Role, screen shared.Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[role] == nil {
		s.grants[role] = make(map[shared.Screen]struct{})
	}
	s.grants[role][screen] = struct{}{}
	return nil
}

func (s *stubGrants) Remove(ctx context.Context, role shared.Role, screen shared.Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[role], screen)
	return nil
}

func (s *stubGrants) Replace(ctx context.Context, role shared.Role, screens []shared.Screen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[shared.Screen]struct{}, len(screens))
	for _, screen := range screens {
		next[screen] = struct{}{}
	}
	s.grants[role] = next
	return nil
}

func newUsersRouter(t *testing.T, snap session.Snapshot, granted bool) http.Handler {
	t.Helper()
	grants := newStubGrants()
	if granted && snap.User != nil {
		require.NoError(t, grants.Add(context.Background(), snap.User.Role, shared.ScreenUsers))
	}
	registry := rbac.NewRegistry(grants, nil)
	mw := rbac.Middleware{Sessions: stubSessions{snap: snap}, Gate: rbac.NewGate(registry)}

	directory := stubDirectory{list: []profile.User{
		{ID: "u1", FirstName: "mara", LastName: "voss", Email: "mara@lot.test", Role: shared.RoleManager},
		{ID: "u2", Email: "intake@lot.test", Role: shared.RoleSeller},
	}}

	r := chi.NewRouter()
	r.Route("/api/users", users.NewHandler(nil, directory, mw).MountRoutes)
	return r
}

func getUsers(router http.Handler) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users/", nil))
	return rec
}

func TestListUsersRequiresSession(t *testing.T) {
	router := newUsersRouter(t, session.Snapshot{State: session.StateUnauthenticated}, false)
	require.Equal(t, http.StatusUnauthorized, getUsers(router).Code)
}

func TestListUsersRequiresGrant(t *testing.T) {
	snap := session.Snapshot{
		State: session.StateAuthenticated,
		User:  &profile.User{ID: "u1", Role: shared.RoleSeller},
	}
	router := newUsersRouter(t, snap, false)
	require.Equal(t, http.StatusForbidden, getUsers(router).Code)
}

func TestListUsersRendersDisplayNames(t *testing.T) {
	snap := session.Snapshot{
		State: session.StateAuthenticated,
		User:  &profile.User{ID: "u1", Role: shared.RoleManager},
	}
	router := newUsersRouter(t, snap, true)

	rec := getUsers(router)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Mara Voss")
	require.Contains(t, rec.Body.String(), "intake@lot.test")
}
