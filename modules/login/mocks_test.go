package login_test

import (
	"context"
	"net/url"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/signin"
)

// MockUserService is a mock implementation of authn.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) PreAuthenticate(ctx context.Context, msg signin.Message) (authn.Result, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authn.Result), args.Error(1)
}

func (m *MockUserService) AuthenticateLocal(ctx context.Context, in authn.LocalContext) (authn.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authn.Result), args.Error(1)
}

func (m *MockUserService) AuthenticateExternal(ctx context.Context, in authn.ExternalContext) (authn.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(authn.Result), args.Error(1)
}

// MockClientStore is a mock implementation of authn.ClientStore.
type MockClientStore struct {
	mock.Mock
}

func (m *MockClientStore) FindClientByID(ctx context.Context, clientID string) (*authn.Client, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authn.Client), args.Error(1)
}

// fakeProvider is an external provider that never leaves the process.
type fakeProvider struct {
	name    string
	caption string
	claims  authn.Claims
	err     error

	mu        sync.Mutex
	exchanged []string
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Caption() string { return p.caption }

func (p *fakeProvider) AuthCodeURL(state, verifier, nonce string) string {
	return "https://" + p.name + ".example/authorize?" + url.Values{
		"state": {state},
		"nonce": {nonce},
	}.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, code, _, _ string) (authn.Claims, error) {
	p.mu.Lock()
	p.exchanged = append(p.exchanged, code)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.claims.Clone(), nil
}
