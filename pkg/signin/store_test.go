package signin_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/signin"
	"github.com/dmitrymomot/idsrv/pkg/ticket"
)

const testSecret = "this-is-a-very-long-secret-key-32-chars-long"

func newStore(t *testing.T, cfg signin.Config, opts ...signin.StoreOption) *signin.Store {
	t.Helper()
	p, err := ticket.New([]string{testSecret})
	require.NoError(t, err)
	m, err := cookie.New(p)
	require.NoError(t, err)
	s, err := signin.NewStore(m, cfg, opts...)
	require.NoError(t, err)
	return s
}

func requestWith(cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestNewStore_RequiresCookieManager(t *testing.T) {
	t.Parallel()
	_, err := signin.NewStore(nil, signin.DefaultConfig())
	assert.ErrorIs(t, err, signin.ErrNoCookieWriter)
}

func TestStore_BeginResolve(t *testing.T) {
	t.Parallel()
	store := newStore(t, signin.DefaultConfig())

	msg := signin.Message{
		ReturnURL: "/authorize?client_id=mvc",
		ClientID:  "mvc",
		IdP:       "google",
		LoginHint: "alice",
		AcrValues: []string{"tenant:acme"},
	}

	rec := httptest.NewRecorder()
	id, err := store.Begin(rec, requestWith(), msg)
	require.NoError(t, err)
	assert.True(t, signin.ValidID(id))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "SignInMessage."+id, cookies[0].Name)

	got, err := store.Resolve(requestWith(cookies...), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, msg.ReturnURL, got.ReturnURL)
	assert.Equal(t, msg.ClientID, got.ClientID)
	assert.Equal(t, msg.IdP, got.IdP)
	assert.Equal(t, msg.LoginHint, got.LoginHint)
	assert.Equal(t, msg.AcrValues, got.AcrValues)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_BeginKeepsProvidedID(t *testing.T) {
	t.Parallel()
	store := newStore(t, signin.DefaultConfig())

	rec := httptest.NewRecorder()
	id, err := store.Begin(rec, nil, signin.Message{ID: "abc_123", ReturnURL: "/"})
	require.NoError(t, err)
	assert.Equal(t, "abc_123", id)

	_, err = store.Begin(httptest.NewRecorder(), nil, signin.Message{ID: "bad id;", ReturnURL: "/"})
	assert.ErrorIs(t, err, signin.ErrInvalidID)

	_, err = store.Begin(httptest.NewRecorder(), nil, signin.Message{ID: "x"})
	assert.ErrorIs(t, err, signin.ErrMissingReturn)
}

func TestStore_ResolveNotFound(t *testing.T) {
	t.Parallel()
	store := newStore(t, signin.DefaultConfig())

	rec := httptest.NewRecorder()
	id, err := store.Begin(rec, nil, signin.Message{ReturnURL: "/authorize"})
	require.NoError(t, err)
	valid := rec.Result().Cookies()[0]

	tests := []struct {
		name    string
		id      string
		cookies []*http.Cookie
	}{
		{name: "empty id", id: ""},
		{name: "malformed id", id: "../etc", cookies: []*http.Cookie{valid}},
		{name: "too long id", id: strings.Repeat("a", 65)},
		{name: "missing cookie", id: id},
		{name: "other id", id: "deadbeef", cookies: []*http.Cookie{valid}},
		{name: "tampered", id: id, cookies: []*http.Cookie{{Name: valid.Name, Value: valid.Value[:len(valid.Value)-2] + "AA"}}},
		{name: "cookie renamed to other id", id: "renamed", cookies: []*http.Cookie{{Name: "SignInMessage.renamed", Value: valid.Value}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := store.Resolve(requestWith(tt.cookies...), tt.id)
			assert.ErrorIs(t, err, signin.ErrNotFound)
		})
	}
}

func TestStore_ResolveExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	p, err := ticket.New([]string{testSecret}, ticket.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	m, err := cookie.New(p)
	require.NoError(t, err)
	cfg := signin.DefaultConfig()
	cfg.TTL = time.Minute
	store, err := signin.NewStore(m, cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	id, err := store.Begin(rec, nil, signin.Message{ReturnURL: "/authorize"})
	require.NoError(t, err)

	later, err := ticket.New([]string{testSecret}, ticket.WithClock(func() time.Time { return now.Add(2 * time.Minute) }))
	require.NoError(t, err)
	lm, err := cookie.New(later)
	require.NoError(t, err)
	lateStore, err := signin.NewStore(lm, cfg)
	require.NoError(t, err)

	_, err = lateStore.Resolve(requestWith(rec.Result().Cookies()...), id)
	assert.ErrorIs(t, err, signin.ErrNotFound)
	assert.ErrorIs(t, err, ticket.ErrExpired)
}

func TestStore_PurgesOldestFlows(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	step := 0
	clock := func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	cfg := signin.DefaultConfig()
	cfg.MaxConcurrentFlows = 3
	store := newStore(t, cfg, signin.WithClock(clock))

	var jar []*http.Cookie
	var ids []string
	for range 3 {
		rec := httptest.NewRecorder()
		id, err := store.Begin(rec, requestWith(jar...), signin.Message{ReturnURL: "/authorize"})
		require.NoError(t, err)
		ids = append(ids, id)
		jar = append(jar, rec.Result().Cookies()...)
	}

	rec := httptest.NewRecorder()
	_, err := store.Begin(rec, requestWith(jar...), signin.Message{ReturnURL: "/authorize"})
	require.NoError(t, err)

	var expired []string
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			expired = append(expired, c.Name)
		}
	}
	assert.Equal(t, []string{"SignInMessage." + ids[0]}, expired)
}

func TestStore_ClearAll(t *testing.T) {
	t.Parallel()
	store := newStore(t, signin.DefaultConfig())

	req := requestWith(
		&http.Cookie{Name: "SignInMessage.a", Value: "x"},
		&http.Cookie{Name: "SignInMessage.b", Value: "y"},
		&http.Cookie{Name: "idsrv", Value: "z"},
	)
	rec := httptest.NewRecorder()
	store.ClearAll(rec, req)

	names := map[string]int{}
	for _, c := range rec.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge)
		names[c.Name]++
	}
	assert.Equal(t, map[string]int{"SignInMessage.a": 1, "SignInMessage.b": 1, "SignOutMessage": 1}, names)
}

func TestStore_SignOut(t *testing.T) {
	t.Parallel()
	store := newStore(t, signin.DefaultConfig())

	rec := httptest.NewRecorder()
	id, err := store.BeginSignOut(rec, signin.SignOutMessage{ClientID: "mvc", ReturnURL: "https://app.example.com/"})
	require.NoError(t, err)

	req := requestWith(rec.Result().Cookies()...)
	got, err := store.ResolveSignOut(req, id)
	require.NoError(t, err)
	assert.Equal(t, "mvc", got.ClientID)
	assert.Equal(t, "https://app.example.com/", got.ReturnURL)

	_, err = store.ResolveSignOut(req, "other")
	assert.ErrorIs(t, err, signin.ErrNotFound)
	_, err = store.ResolveSignOut(req, "")
	assert.ErrorIs(t, err, signin.ErrNotFound)
	_, err = store.ResolveSignOut(requestWith(), id)
	assert.ErrorIs(t, err, signin.ErrNotFound)
}
