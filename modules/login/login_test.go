package login_test

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dmitrymomot/idsrv/modules/login"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/i18n"
	"github.com/dmitrymomot/idsrv/pkg/metrics"
	"github.com/dmitrymomot/idsrv/pkg/signin"
	"github.com/dmitrymomot/idsrv/pkg/throttle"
)

func signInMsg(id string) any {
	return mock.MatchedBy(func(m signin.Message) bool { return m.ID == id })
}

func localAttempt(username, password string) any {
	return mock.MatchedBy(func(in authn.LocalContext) bool {
		return in.Username == username && in.Password == password
	})
}

func loginForm(token, username, password string) url.Values {
	return url.Values{
		"idsrv.xsrf": {token},
		"username":   {username},
		"password":   {password},
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	env := newEnv(t, testConfig())

	_, err := login.New(testConfig(), nil, env.cookies, env.signins, env.guard, testViews())
	assert.ErrorIs(t, err, login.ErrMissingDependency)

	_, err = login.New(testConfig(), env.users, nil, env.signins, env.guard, testViews())
	assert.ErrorIs(t, err, login.ErrMissingDependency)

	_, err = login.New(testConfig(), env.users, env.cookies, env.signins, env.guard, &login.Views{})
	assert.ErrorIs(t, err, login.ErrMissingDependency)
}

func TestLoginPage(t *testing.T) {
	t.Parallel()

	t.Run("unknown sign-in is not found", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())

		rec := env.serve(get("/login?signin=doesnotexist"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing signin parameter is not found", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())

		rec := env.serve(get("/login"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("renders form and providers", func(t *testing.T) {
		t.Parallel()
		google := &fakeProvider{name: "google", caption: "Google"}
		env := newEnv(t, testConfig(), withProviders(t, google))
		id, sc := env.begin(t, signin.Message{ClientID: "mvc", LoginHint: "alice"})

		env.clients.On("FindClientByID", mock.Anything, "mvc").
			Return(&authn.Client{ClientID: "mvc", ClientName: "MVC Client"}, nil).Once()
		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusOK, rec.Code)

		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Equal(t, "MVC Client", p.ClientName)
		assert.Equal(t, "/login?signin="+id, p.FormAction)
		assert.Equal(t, "alice", p.Username)
		assert.Empty(t, p.ErrorMessage)
		assert.True(t, p.AllowRememberMe)
		assert.False(t, p.RememberMe)
		assert.Equal(t, "idsrv.xsrf", p.CSRF.Name)
		assert.NotEmpty(t, p.CSRF.Value)
		require.Len(t, p.Providers, 1)
		assert.Equal(t, "Google", p.Providers[0].Caption)
		assert.Equal(t, "/login/external?provider=google&signin="+id, p.Providers[0].URL)

		assert.True(t, hasCookie(rec, "idsrv.xsrf"))
	})

	t.Run("nil pre-authentication result renders form", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(nil, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusOK, rec.Code)
		decodePage[login.LoginPageParams](t, rec, "login")
	})

	t.Run("pre-authentication error renders error page", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).
			Return(authn.Error{Message: "Your account is locked."}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, "Your account is locked.", p.Message)
	})

	t.Run("pre-authentication full result signs in", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{ReturnURL: "/connect/authorize/callback?x=1"})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).
			Return(authn.Full{Subject: "818727", DisplayName: "Alice"}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/connect/authorize/callback?x=1", rec.Header().Get("Location"))

		ticket := env.readFullTicket(t, cookieByName(t, rec, "idsrv"))
		assert.Equal(t, "818727", ticket.Subject)
		assert.Equal(t, authn.IdentityProviderLocal, ticket.IdentityProvider)
		assert.True(t, isExpired(cookieByName(t, rec, sc.Name)))
	})

	t.Run("user service failure renders error page", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).
			Return(nil, errors.New("db down")).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, login.MsgUnexpectedError, p.Message)
	})

	t.Run("invalid result is a failure", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.Full{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, hasCookie(rec, "idsrv"))
	})

	t.Run("idp hint redirects to provider", func(t *testing.T) {
		t.Parallel()
		google := &fakeProvider{name: "google"}
		env := newEnv(t, testConfig(), withProviders(t, google))
		id, sc := env.begin(t, signin.Message{IdP: "google"})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://google.example/authorize?"))
		assert.True(t, hasCookie(rec, "idsrv.external"))
	})

	t.Run("unknown idp hint renders form", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{IdP: "nope"})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusOK, rec.Code)
		decodePage[login.LoginPageParams](t, rec, "login")
		assert.False(t, hasCookie(rec, "idsrv.external"))
	})

	t.Run("local disabled with single provider redirects", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.EnableLocalLogin = false
		env := newEnv(t, cfg, withProviders(t, &fakeProvider{name: "github"}))
		id, sc := env.begin(t, signin.Message{})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://github.example/authorize?"))
	})

	t.Run("local disabled by client with several providers renders links only", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig(), withProviders(t, &fakeProvider{name: "github"}, &fakeProvider{name: "google"}))
		id, sc := env.begin(t, signin.Message{ClientID: "spa"})

		env.clients.On("FindClientByID", mock.Anything, "spa").
			Return(&authn.Client{ClientID: "spa", EnableLocalLogin: boolPtr(false)}, nil).Once()
		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Empty(t, p.FormAction)
		assert.Len(t, p.Providers, 2)
	})

	t.Run("client cannot enable local login disabled by deployment", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.EnableLocalLogin = false
		env := newEnv(t, cfg, withProviders(t, &fakeProvider{name: "github"}, &fakeProvider{name: "google"}))
		id, sc := env.begin(t, signin.Message{ClientID: "mvc"})

		env.clients.On("FindClientByID", mock.Anything, "mvc").
			Return(&authn.Client{ClientID: "mvc", EnableLocalLogin: boolPtr(true)}, nil).Once()
		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Empty(t, p.FormAction)
		assert.Len(t, p.Providers, 2)
	})

	t.Run("client restrictions filter providers", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig(), withProviders(t, &fakeProvider{name: "github"}, &fakeProvider{name: "google"}))
		id, sc := env.begin(t, signin.Message{ClientID: "mvc"})

		env.clients.On("FindClientByID", mock.Anything, "mvc").
			Return(&authn.Client{ClientID: "mvc", IdentityProviderRestrictions: []string{"google"}}, nil).Once()
		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		require.Len(t, p.Providers, 1)
		assert.Equal(t, "google", p.Providers[0].Name)
	})

	t.Run("no login method", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.EnableLocalLogin = false
		env := newEnv(t, cfg)
		id, sc := env.begin(t, signin.Message{})

		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, login.MsgNoLoginMethod, p.Message)
	})

	t.Run("unknown client uses defaults", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{ClientID: "ghost"})

		env.clients.On("FindClientByID", mock.Anything, "ghost").Return(nil, authn.ErrClientNotFound).Once()
		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id)).Return(authn.None{}, nil).Once()

		rec := env.serve(get("/login?signin="+id), sc)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.NotEmpty(t, p.FormAction)
	})
}

func TestLogin_Post(t *testing.T) {
	t.Parallel()

	t.Run("requires form content type", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})

		req := postForm("/login?signin="+id, url.Values{"username": {"alice"}})
		req.Header.Set("Content-Type", "application/json")
		rec := env.serve(req, sc)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("rejects missing anti-forgery token", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})

		rec := env.serve(postForm("/login?signin="+id, url.Values{"username": {"alice"}, "password": {"pw"}}), sc)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, login.MsgCSRFRejected, p.Message)
		env.users.AssertNotCalled(t, "AuthenticateLocal", mock.Anything, mock.Anything)
	})

	t.Run("rejects mismatched anti-forgery token", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})
		_, xsrf := env.csrfToken(t)

		rec := env.serve(postForm("/login?signin="+id, loginForm("forged", "alice", "pw")), sc, xsrf)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown sign-in is an error page", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		token, xsrf := env.csrfToken(t)

		rec := env.serve(postForm("/login?signin=missing", loginForm(token, "alice", "pw")), xsrf)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, login.MsgFlowCorrupted, p.Message)
	})

	t.Run("empty username", func(t *testing.T) {
		t.Parallel()
		withLogs, logs := captureLogs()
		env := newEnv(t, testConfig(), withLogs)
		id, sc := env.begin(t, signin.Message{})
		token, xsrf := env.csrfToken(t)

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "   ", "pw")), sc, xsrf)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Equal(t, login.MsgUsernameRequired, p.ErrorMessage)
		assert.Equal(t, token, p.CSRF.Value)
		env.users.AssertNotCalled(t, "AuthenticateLocal", mock.Anything, mock.Anything)
		assert.Contains(t, logs.String(), login.ErrValidation.Error())
	})

	t.Run("local login disabled for client", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{ClientID: "spa"})
		token, xsrf := env.csrfToken(t)

		env.clients.On("FindClientByID", mock.Anything, "spa").
			Return(&authn.Client{ClientID: "spa", EnableLocalLogin: boolPtr(false)}, nil).Once()

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "pw")), sc, xsrf)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, login.MsgLocalLoginDisabled, p.Message)
	})

	t.Run("local login disabled by deployment despite client", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.EnableLocalLogin = false
		env := newEnv(t, cfg)
		id, sc := env.begin(t, signin.Message{ClientID: "mvc"})
		token, xsrf := env.csrfToken(t)

		env.clients.On("FindClientByID", mock.Anything, "mvc").
			Return(&authn.Client{ClientID: "mvc", EnableLocalLogin: boolPtr(true)}, nil).Once()

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "pw")), sc, xsrf)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, login.MsgLocalLoginDisabled, p.Message)
		env.users.AssertNotCalled(t, "AuthenticateLocal", mock.Anything, mock.Anything)
		assert.False(t, hasCookie(rec, "idsrv"))
	})

	rejections := []struct {
		name    string
		result  authn.Result
		message string
	}{
		{name: "none", result: authn.None{}, message: login.MsgInvalidCredentials},
		{name: "nil", result: nil, message: login.MsgInvalidCredentials},
		{name: "error", result: authn.Error{Message: "Account disabled."}, message: "Account disabled."},
	}
	for _, tt := range rejections {
		t.Run("rejected with "+tt.name, func(t *testing.T) {
			t.Parallel()
			env := newEnv(t, testConfig())
			id, sc := env.begin(t, signin.Message{})
			token, xsrf := env.csrfToken(t)

			env.users.On("AuthenticateLocal", mock.Anything, localAttempt("alice", "wrong")).
				Return(tt.result, nil).Once()

			form := loginForm(token, "alice", "wrong")
			form.Set("rememberMe", "on")
			rec := env.serve(postForm("/login?signin="+id, form), sc, xsrf)
			require.Equal(t, http.StatusOK, rec.Code)

			p := decodePage[login.LoginPageParams](t, rec, "login")
			assert.Equal(t, tt.message, p.ErrorMessage)
			assert.Equal(t, "alice", p.Username)
			assert.True(t, p.RememberMe)
			assert.False(t, hasCookie(rec, "idsrv"))
			assert.False(t, hasCookie(rec, sc.Name))
		})
	}

	t.Run("full result issues ticket and returns", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{ReturnURL: "/connect/authorize/callback?client_id=mvc&state=abc"})
		token, xsrf := env.csrfToken(t)

		env.users.On("AuthenticateLocal", mock.Anything, localAttempt("alice", "secret")).
			Return(authn.Full{Subject: "818727", DisplayName: "Alice Smith"}, nil).Once()

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "secret")), sc, xsrf)
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/connect/authorize/callback?client_id=mvc&state=abc", rec.Header().Get("Location"))

		c := cookieByName(t, rec, "idsrv")
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Expires.IsZero())
		assert.Zero(t, c.MaxAge)

		ticket := env.readFullTicket(t, c)
		assert.Equal(t, "818727", ticket.Subject)
		assert.Equal(t, "Alice Smith", ticket.DisplayName)
		assert.Equal(t, authn.MethodPassword, ticket.AuthenticationMethod)
		assert.Equal(t, authn.IdentityProviderLocal, ticket.IdentityProvider)
		assert.Equal(t, testNow, ticket.IssuedAt)
		assert.False(t, ticket.Persistent)

		assert.True(t, isExpired(cookieByName(t, rec, sc.Name)))
	})

	t.Run("partial result redirects to resume url", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{ReturnURL: "/connect/authorize/callback?client_id=mvc"})
		token, xsrf := env.csrfToken(t)

		env.users.On("AuthenticateLocal", mock.Anything, localAttempt("alice", "secret")).
			Return(authn.Partial{ResumeURL: "/account/mfa?step=1", TempSubject: "818727"}, nil).Once()

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "secret")), sc, xsrf)
		require.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/account/mfa", loc.Path)
		assert.Equal(t, "1", loc.Query().Get("step"))
		assert.NotEmpty(t, loc.Query().Get("resume"))

		partial := cookieByName(t, rec, "idsrv.partial")
		assert.True(t, partial.Expires.IsZero(), "partial ticket must be session only")
		assert.False(t, hasCookie(rec, "idsrv"))
		assert.False(t, hasCookie(rec, sc.Name), "sign-in flow stays open until resumed")
	})

	t.Run("remembers last username", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig()
		cfg.RememberLastUsername = true
		env := newEnv(t, cfg)
		id, sc := env.begin(t, signin.Message{})
		token, xsrf := env.csrfToken(t)

		env.users.On("AuthenticateLocal", mock.Anything, localAttempt("alice@example.com", "secret")).
			Return(authn.Full{Subject: "818727"}, nil).Once()

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice@example.com", "secret")), sc, xsrf)
		require.Equal(t, http.StatusFound, rec.Code)
		remembered := cookieByName(t, rec, "idsrv.username")

		id2, sc2 := env.begin(t, signin.Message{})
		env.users.On("PreAuthenticate", mock.Anything, signInMsg(id2)).Return(authn.None{}, nil).Once()

		rec = env.serve(get("/login?signin="+id2), sc2, remembered)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Equal(t, "alice@example.com", p.Username)
	})

	t.Run("user service failure", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{})
		token, xsrf := env.csrfToken(t)

		env.users.On("AuthenticateLocal", mock.Anything, mock.Anything).
			Return(nil, errors.New("ldap unreachable")).Once()

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "secret")), sc, xsrf)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, hasCookie(rec, "idsrv"))
	})
}

func TestLogin_RememberMePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		allowRememberMe bool
		isPersistent    bool
		rememberMe      []string
		wantPersistent  bool
	}{
		{name: "checkbox on", allowRememberMe: true, rememberMe: []string{"on"}, wantPersistent: true},
		{name: "checked box with hidden fallback", allowRememberMe: true, rememberMe: []string{"true", "false"}, wantPersistent: true},
		{name: "unchecked box sends hidden false over persistent default", allowRememberMe: true, isPersistent: true, rememberMe: []string{"false"}, wantPersistent: false},
		{name: "checkbox absent keeps session default", allowRememberMe: true, wantPersistent: false},
		{name: "checkbox absent keeps persistent default", allowRememberMe: true, isPersistent: true, wantPersistent: true},
		{name: "checkbox ignored when not allowed", rememberMe: []string{"on"}, wantPersistent: false},
		{name: "persistent when not allowed", isPersistent: true, rememberMe: []string{"false"}, wantPersistent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.Cookie = authn.CookiePolicy{
				AllowRememberMe: tt.allowRememberMe,
				IsPersistent:    tt.isPersistent,
				Lifetime:        8 * time.Hour,
			}
			env := newEnv(t, cfg)
			id, sc := env.begin(t, signin.Message{})
			token, xsrf := env.csrfToken(t)

			env.users.On("AuthenticateLocal", mock.Anything, mock.Anything).
				Return(authn.Full{Subject: "818727"}, nil).Once()

			form := loginForm(token, "alice", "secret")
			for _, v := range tt.rememberMe {
				form.Add("rememberMe", v)
			}
			rec := env.serve(postForm("/login?signin="+id, form), sc, xsrf)
			require.Equal(t, http.StatusFound, rec.Code)

			c := cookieByName(t, rec, "idsrv")
			ticket := env.readFullTicket(t, c)
			assert.Equal(t, tt.wantPersistent, ticket.Persistent)
			assert.Equal(t, testNow.Add(8*time.Hour), ticket.ExpiresAt)
			if tt.wantPersistent {
				assert.Equal(t, ticket.ExpiresAt.Unix(), c.Expires.Unix())
			} else {
				assert.True(t, c.Expires.IsZero())
			}
		})
	}
}

func TestLogin_Throttle(t *testing.T) {
	t.Parallel()

	store := throttle.NewMemoryStore(throttle.WithCleanupInterval(0))
	limiter, err := throttle.New(store, throttle.Config{Enabled: true, MaxAttempts: 2, Window: time.Minute})
	require.NoError(t, err)

	env := newEnv(t, testConfig(), login.WithThrottle(limiter))
	id, sc := env.begin(t, signin.Message{})
	token, xsrf := env.csrfToken(t)

	env.users.On("AuthenticateLocal", mock.Anything, localAttempt("alice", "wrong")).
		Return(authn.None{}, nil).Twice()

	for range 2 {
		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "wrong")), sc, xsrf)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Equal(t, login.MsgInvalidCredentials, p.ErrorMessage)
	}

	rec := env.serve(postForm("/login?signin="+id, loginForm(token, "ALICE", "right")), sc, xsrf)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodePage[login.LoginPageParams](t, rec, "login")
	assert.Equal(t, login.MsgThrottled, p.ErrorMessage)
	env.users.AssertNumberOfCalls(t, "AuthenticateLocal", 2)
}

func TestLogin_Observability(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	m := metrics.New(prometheus.NewRegistry())

	env := newEnv(t, testConfig(), login.WithTracerProvider(tp), login.WithMetrics(m))
	id, sc := env.begin(t, signin.Message{ClientID: "mvc"})
	token, xsrf := env.csrfToken(t)

	env.clients.On("FindClientByID", mock.Anything, "mvc").Return(&authn.Client{ClientID: "mvc"}, nil)
	env.users.On("AuthenticateLocal", mock.Anything, mock.Anything).
		Return(authn.Full{Subject: "818727"}, nil).Once()

	rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "secret")), sc, xsrf)
	require.Equal(t, http.StatusFound, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "login.authenticate_local", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("idsrv.client_id", "mvc"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("idsrv.result", "full"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Logins.WithLabelValues(metrics.FlowLocal, "full")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.UserServiceDuration))
}

func germanMessages(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(map[string]map[string]any{
		"en": {"login": map[string]any{"username_required": login.MsgUsernameRequired}},
		"de": {"login": map[string]any{
			"username_required":   "Benutzername ist erforderlich.",
			"no_partial_login":    "Es gibt keine ausstehende Anmeldung.",
			"invalid_credentials": "Benutzername oder Passwort ist falsch.",
		}},
	})
	require.NoError(t, err)
	return tr
}

func TestLogin_LocalizedMessages(t *testing.T) {
	t.Parallel()

	t.Run("ui locales of the sign-in request", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig(), login.WithTranslator(germanMessages(t)))
		id, sc := env.begin(t, signin.Message{UILocales: "fr de"})
		token, xsrf := env.csrfToken(t)

		req := postForm("/login?signin="+id, loginForm(token, " ", "pw"))
		req.Header.Set("Accept-Language", "en")
		rec := env.serve(req, sc, xsrf)
		require.Equal(t, http.StatusOK, rec.Code)

		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Equal(t, "de", p.Lang)
		assert.Equal(t, "Benutzername ist erforderlich.", p.ErrorMessage)
	})

	t.Run("accept language without ui locales", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig(), login.WithTranslator(germanMessages(t)))
		id, sc := env.begin(t, signin.Message{})
		token, xsrf := env.csrfToken(t)

		env.users.On("AuthenticateLocal", mock.Anything, localAttempt("alice", "wrong")).
			Return(authn.None{}, nil).Once()

		req := postForm("/login?signin="+id, loginForm(token, "alice", "wrong"))
		req.Header.Set("Accept-Language", "de-AT,de;q=0.9,en;q=0.5")
		rec := env.serve(req, sc, xsrf)

		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Equal(t, "Benutzername oder Passwort ist falsch.", p.ErrorMessage)
	})

	t.Run("backend messages pass through", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig(), login.WithTranslator(germanMessages(t)))
		id, sc := env.begin(t, signin.Message{UILocales: "de"})
		token, xsrf := env.csrfToken(t)

		env.users.On("AuthenticateLocal", mock.Anything, mock.Anything).
			Return(authn.Error{Message: "Account locked."}, nil).Once()

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "alice", "pw")), sc, xsrf)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Equal(t, "Account locked.", p.ErrorMessage)
	})

	t.Run("missing translation keeps built-in text", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig(), login.WithTranslator(germanMessages(t)))
		id, sc := env.begin(t, signin.Message{UILocales: "de"})

		rec := env.serve(postForm("/login?signin="+id, loginForm("forged", "alice", "pw")), sc)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, login.MsgCSRFRejected, p.Message)
	})

	t.Run("error page uses accept language", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig(), login.WithTranslator(germanMessages(t)))

		req := get("/login/resume")
		req.Header.Set("Accept-Language", "de")
		rec := env.serve(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		p := decodePage[login.ErrorPageParams](t, rec, "error")
		assert.Equal(t, "de", p.Lang)
		assert.Equal(t, "Es gibt keine ausstehende Anmeldung.", p.Message)
	})

	t.Run("no translator keeps english", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t, testConfig())
		id, sc := env.begin(t, signin.Message{UILocales: "de"})
		token, xsrf := env.csrfToken(t)

		rec := env.serve(postForm("/login?signin="+id, loginForm(token, "", "pw")), sc, xsrf)
		p := decodePage[login.LoginPageParams](t, rec, "login")
		assert.Empty(t, p.Lang)
		assert.Equal(t, login.MsgUsernameRequired, p.ErrorMessage)
	})
}
