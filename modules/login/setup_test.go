package login_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/idsrv/modules/login"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/csrf"
	"github.com/dmitrymomot/idsrv/pkg/external"
	"github.com/dmitrymomot/idsrv/pkg/signin"
)

const testSecret = "this-is-a-very-long-secret-key-32-chars-long"

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	users   *MockUserService
	clients *MockClientStore
	cookies *cookie.Manager
	signins *signin.Store
	guard   *csrf.Guard
}

func testConfig() login.Config {
	cfg := login.DefaultConfig()
	cfg.EndSessionCallbackURL = "https://idsrv.example/connect/endsession/callback"
	cfg.ProtocolLogoutURLs = []string{"https://idsrv.example/wsfed/signout"}
	return cfg
}

func newEnv(t *testing.T, cfg login.Config, opts ...login.Option) *testEnv {
	t.Helper()

	cookies, err := cookie.NewFromConfig(cookie.Config{Secrets: testSecret, Path: "/", Secure: true, HttpOnly: true})
	require.NoError(t, err)
	signins, err := signin.NewStore(cookies, signin.DefaultConfig())
	require.NoError(t, err)
	guard, err := csrf.New(cookies, csrf.DefaultConfig())
	require.NoError(t, err)

	env := &testEnv{
		users:   &MockUserService{},
		clients: &MockClientStore{},
		cookies: cookies,
		signins: signins,
		guard:   guard,
	}

	opts = append([]login.Option{
		login.WithClientStore(env.clients),
		login.WithClock(func() time.Time { return testNow }),
	}, opts...)
	svc, err := login.New(cfg, env.users, cookies, signins, guard, testViews(), opts...)
	require.NoError(t, err)
	env.handler = svc.Handle()

	t.Cleanup(func() {
		env.users.AssertExpectations(t)
		env.clients.AssertExpectations(t)
	})
	return env
}

// captureLogs returns an option routing service logs into the buffer.
func captureLogs() (login.Option, *bytes.Buffer) {
	var buf bytes.Buffer
	return login.WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func withProviders(t *testing.T, providers ...external.Provider) login.Option {
	t.Helper()
	reg, err := external.NewRegistry(providers...)
	require.NoError(t, err)
	return login.WithProviders(reg)
}

// begin stores a sign-in message the way the protocol layer would.
func (e *testEnv) begin(t *testing.T, msg signin.Message) (string, *http.Cookie) {
	t.Helper()
	if msg.ReturnURL == "" {
		msg.ReturnURL = "/connect/authorize/callback?client_id=mvc"
	}
	rec := httptest.NewRecorder()
	id, err := e.signins.Begin(rec, httptest.NewRequest(http.MethodGet, "/", nil), msg)
	require.NoError(t, err)
	return id, cookieByName(t, rec, e.signins.CookieName(id))
}

func (e *testEnv) beginSignOut(t *testing.T, msg signin.SignOutMessage) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	id, err := e.signins.BeginSignOut(rec, msg)
	require.NoError(t, err)
	return id, cookieByName(t, rec, "SignOutMessage")
}

func (e *testEnv) csrfToken(t *testing.T) (string, *http.Cookie) {
	t.Helper()
	rec := httptest.NewRecorder()
	token, err := e.guard.Token(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return token, cookieByName(t, rec, csrf.DefaultConfig().CookieName)
}

func (e *testEnv) fullTicket(t *testing.T, subject string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	ticket := authn.NewFullTicket(authn.Full{Subject: subject}, time.Now(), time.Hour, false)
	require.NoError(t, e.cookies.SetProtected(rec, "idsrv", authn.PurposeFull, ticket, time.Hour))
	return cookieByName(t, rec, "idsrv")
}

func (e *testEnv) readFullTicket(t *testing.T, c *http.Cookie) authn.FullTicket {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	var ticket authn.FullTicket
	_, err := e.cookies.GetProtected(req, c.Name, authn.PurposeFull, &ticket)
	require.NoError(t, err)
	return ticket
}

func (e *testEnv) serve(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// cookieByName returns the last Set-Cookie header for name.
func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	require.NotNil(t, found, "cookie %q not set", name)
	return found
}

func hasCookie(rec *httptest.ResponseRecorder, name string) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return true
		}
	}
	return false
}

func setCookieCount(rec *httptest.ResponseRecorder, name string) int {
	n := 0
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			n++
		}
	}
	return n
}

func isExpired(c *http.Cookie) bool {
	return c.MaxAge < 0
}

// testViews render their params as JSON so tests can inspect them.
func testViews() *login.Views {
	return &login.Views{
		Login:        jsonView[login.LoginPageParams]("login"),
		Error:        jsonView[login.ErrorPageParams]("error"),
		LogoutPrompt: jsonView[login.LogoutPromptParams]("logout_prompt"),
		LoggedOut:    jsonView[login.LoggedOutParams]("logged_out"),
	}
}

func jsonView[P any](page string) func(P) templ.Component {
	return func(p P) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			return json.NewEncoder(w).Encode(map[string]any{"page": page, "params": p})
		})
	}
}

func decodePage[P any](t *testing.T, rec *httptest.ResponseRecorder, page string) P {
	t.Helper()
	var body struct {
		Page   string `json:"page"`
		Params P      `json:"params"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	require.Equal(t, page, body.Page, rec.Body.String())
	return body.Params
}

func boolPtr(b bool) *bool { return &b }
