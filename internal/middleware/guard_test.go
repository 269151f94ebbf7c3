package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/gamehub/internal/backend"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/session"
	"github.com/olegiv/gamehub/internal/testutil"
)

// fakeAuth reports the same identity, or error, for every client.
type fakeAuth struct {
	identity *backend.Identity
	err      error
}

func (f *fakeAuth) SignUp(context.Context, string, string, string) (backend.Identity, error) {
	return backend.Identity{}, errors.New("not implemented")
}

func (f *fakeAuth) SignIn(context.Context, string, string, string) (backend.Identity, error) {
	return backend.Identity{}, errors.New("not implemented")
}

func (f *fakeAuth) SignOut(context.Context, string) error { return nil }

func (f *fakeAuth) CurrentIdentity(context.Context, string) (*backend.Identity, error) {
	return f.identity, f.err
}

func (f *fakeAuth) OnIdentityChange(_ context.Context, _ string, fn func(*backend.Identity)) (func(), error) {
	fn(f.identity)
	return func() {}, nil
}

type fakeRoles map[string]model.Role

func (f fakeRoles) Resolve(_ context.Context, uid string) model.Role {
	if r, ok := f[uid]; ok {
		return r
	}
	return model.RoleUser
}

func newGuardedHandler(t *testing.T, auth backend.Auth, access Access) (*scs.SessionManager, http.Handler, *session.Context) {
	t.Helper()
	testutil.InitI18n(t)
	sm := session.New(testutil.TestDB(t), true, 0)
	roles := fakeRoles{"admin-uid": model.RoleAdmin}

	var seen session.Context
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := sm.LoadAndSave(LoadSession(sm, auth, roles, time.Second)(Require(sm, access)(final)))
	return sm, h, &seen
}

func TestRequire(t *testing.T) {
	user := &backend.Identity{UID: "user-uid", Email: "user@example.com"}
	admin := &backend.Identity{UID: "admin-uid", Email: "admin@example.com"}

	tests := []struct {
		name     string
		access   Access
		identity *backend.Identity
		wantCode int
		wantLoc  string
	}{
		{"any signed out", AccessAny, nil, http.StatusOK, ""},
		{"guest signed out", AccessGuest, nil, http.StatusOK, ""},
		{"guest signed in", AccessGuest, user, http.StatusSeeOther, HomePath},
		{"authenticated signed out", AccessAuthenticated, nil, http.StatusSeeOther, LandingPath},
		{"authenticated user", AccessAuthenticated, user, http.StatusOK, ""},
		{"admin signed out", AccessAdmin, nil, http.StatusSeeOther, LandingPath},
		{"admin as user", AccessAdmin, user, http.StatusSeeOther, HomePath},
		{"admin as admin", AccessAdmin, admin, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h, _ := newGuardedHandler(t, &fakeAuth{identity: tt.identity}, tt.access)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/page", nil))

			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if loc := rr.Header().Get("Location"); loc != tt.wantLoc {
				t.Errorf("Location = %q, want %q", loc, tt.wantLoc)
			}
		})
	}
}

func TestLoadSession_BuildsContext(t *testing.T) {
	admin := &backend.Identity{UID: "admin-uid", Email: "admin@example.com"}
	_, h, seen := newGuardedHandler(t, &fakeAuth{identity: admin}, AccessAny)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen.ClientID == "" {
		t.Error("ClientID should be set")
	}
	if !seen.IsAdmin() || seen.UID() != "admin-uid" {
		t.Errorf("context = %+v", seen)
	}
	if seen.Lang != "id" {
		t.Errorf("Lang = %q, want id", seen.Lang)
	}
}

func TestLoadSession_IdentityErrorFailsClosed(t *testing.T) {
	auth := &fakeAuth{identity: &backend.Identity{UID: "admin-uid"}, err: backend.ErrNetwork}
	_, h, seen := newGuardedHandler(t, auth, AccessAny)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen.SignedIn() || seen.Role != model.RoleUser {
		t.Errorf("context after identity error = %+v", seen)
	}
}

func TestLanguage(t *testing.T) {
	testutil.InitI18n(t)
	sm := session.New(testutil.TestDB(t), true, 0)

	tests := []struct {
		name   string
		stored string
		accept string
		want   string
	}{
		{"default", "", "", "en"},
		{"accept header", "", "id", "id"},
		{"unsupported accept", "", "fr-FR", "en"},
		{"session wins", "en", "id", "en"},
		{"unsupported session value ignored", "fr", "id", "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.stored != "" {
					sm.Put(r.Context(), session.KeyLang, tt.stored)
				}
				got = Language(sm, r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("Language() = %q, want %q", got, tt.want)
			}
		})
	}
}
