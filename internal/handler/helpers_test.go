package handler

import (
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/gamehub/internal/cache"
	"github.com/olegiv/gamehub/internal/catalog"
	"github.com/olegiv/gamehub/internal/middleware"
	"github.com/olegiv/gamehub/internal/render"
	"github.com/olegiv/gamehub/internal/role"
	"github.com/olegiv/gamehub/internal/session"
	"github.com/olegiv/gamehub/internal/testutil"
	"github.com/olegiv/gamehub/internal/workflow"
	"github.com/olegiv/gamehub/web"
)

const testTimeout = 5 * time.Second

// testApp is a fully wired gamehub served by httptest.
type testApp struct {
	t        *testing.T
	backend  *testutil.Backend
	store    *catalog.Store
	renderer *render.Renderer
	server   *httptest.Server
}

// newTestRenderer parses the embedded templates.
func newTestRenderer(t *testing.T, cfg render.Config) *render.Renderer {
	t.Helper()
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	cfg.TemplatesFS = templatesFS
	cfg.IsDev = true
	r, err := render.New(cfg)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return r
}

// newTestApp wires the app; opts may adjust the handlers before mounting.
func newTestApp(t *testing.T, opts ...func(*Handlers)) *testApp {
	t.Helper()
	testutil.InitI18n(t)

	be := testutil.TestBackend(t)
	sm := session.New(be.DB, true, time.Hour)
	renderer := newTestRenderer(t, render.Config{SessionManager: sm})

	roleCache := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = roleCache.Close() })
	roles := role.NewResolver(be.Docs, roleCache, time.Minute, role.WithAccounts(be.Auth))

	store := catalog.NewStore(be.Docs)
	handlers := Handlers{
		Auth:      NewAuthHandler(be.Auth, roles, renderer, sm, 6, testTimeout),
		Catalog:   NewCatalogHandler(store, renderer, testTimeout),
		Dashboard: NewDashboardHandler(store, renderer, testTimeout),
		Admin:     NewAdminHandler(store, workflow.NewRunner(nil), session.NewTickets(sm), renderer, testTimeout),
		Stream:    NewStreamHandler(store, be.Auth, renderer, time.Minute),
		Health:    NewHealthHandler(be.DB, be.Docs, t.TempDir(), "test"),
	}

	for _, opt := range opts {
		opt(&handlers)
	}

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LoadSession(sm, be.Auth, roles, testTimeout))
	r.NotFound(NotFound(renderer))
	handlers.Mount(r, sm, testTimeout)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testApp{t: t, backend: be, store: store, renderer: renderer, server: srv}
}

// testClient is one browser with its own cookie jar. Redirects are not
// followed so tests can assert on them.
type testClient struct {
	t    *testing.T
	app  *testApp
	http *http.Client
}

func (a *testApp) newClient() *testClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		a.t.Fatalf("cookiejar: %v", err)
	}
	return &testClient{
		t:   a.t,
		app: a,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// result is a fully read response.
type result struct {
	Status   int
	Location string
	Body     string
	Header   http.Header
}

func (c *testClient) do(req *http.Request) result {
	c.t.Helper()
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("reading body: %v", err)
	}
	return result{
		Status:   resp.StatusCode,
		Location: resp.Header.Get("Location"),
		Body:     string(body),
		Header:   resp.Header,
	}
}

func (c *testClient) get(path string) result {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.app.server.URL+path, nil)
	if err != nil {
		c.t.Fatalf("NewRequest: %v", err)
	}
	return c.do(req)
}

func (c *testClient) post(path string, form url.Values) result {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.app.server.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		c.t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// follow requests the redirect target of res and returns the page.
func (c *testClient) follow(res result) result {
	c.t.Helper()
	if res.Location == "" {
		c.t.Fatalf("expected a redirect, got status %d", res.Status)
	}
	return c.get(res.Location)
}

func (c *testClient) register(email, password string) result {
	c.t.Helper()
	return c.post("/register", url.Values{
		"email":            {email},
		"password":         {password},
		"confirm_password": {password},
	})
}

// signedInAdmin returns a client signed in as the first registered
// identity, which is the admin.
func (a *testApp) signedInAdmin() *testClient {
	a.t.Helper()
	c := a.newClient()
	res := c.register("admin@example.com", "secret123")
	assertRedirect(a.t, res, "/games")
	return c
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

func assertRedirect(t *testing.T, res result, location string) {
	t.Helper()
	if res.Status != http.StatusSeeOther {
		t.Fatalf("status = %d; want %d (body %q)", res.Status, http.StatusSeeOther, res.Body)
	}
	if res.Location != location {
		t.Fatalf("Location = %q; want %q", res.Location, location)
	}
}

func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q", want)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body unexpectedly contains %q", u)
		}
	}
}
