package localusers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/config"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/signin"
)

// User is one account.
type User struct {
	Subject      string `yaml:"subject"`
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	DisplayName  string `yaml:"display_name"`
	Disabled     bool   `yaml:"disabled"`
	// PendingAction turns a successful login into a partial one that
	// resumes at this URL.
	PendingAction  string          `yaml:"pending_action"`
	ExternalLogins []ExternalLogin `yaml:"external_logins"`
}

// ExternalLogin links a provider account to a user.
type ExternalLogin struct {
	Provider string `yaml:"provider"`
	ID       string `yaml:"id"`
}

// File is the YAML layout read by LoadFile.
type File struct {
	Users []User `yaml:"users"`
}

// Service implements authn.UserService.
type Service struct {
	byUsername map[string]*User
	byExternal map[string]*User
	dummyHash  []byte
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

var _ authn.UserService = (*Service)(nil)

// New creates a service for users.
func New(users []User, opts ...Option) (*Service, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("idsrv-timing-equalizer"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	s := &Service{
		byUsername: make(map[string]*User, len(users)),
		byExternal: make(map[string]*User),
		dummyHash:  dummy,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := range users {
		u := &users[i]
		if u.Subject == "" || u.Username == "" {
			return nil, fmt.Errorf("%w: subject and username are required", ErrInvalidUser)
		}
		key := NormalizeUsername(u.Username)
		if _, ok := s.byUsername[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, u.Username)
		}
		s.byUsername[key] = u

		for _, l := range u.ExternalLogins {
			ek := externalKey(l.Provider, l.ID)
			if _, ok := s.byExternal[ek]; ok {
				return nil, fmt.Errorf("%w: external login %s/%s", ErrDuplicateUser, l.Provider, l.ID)
			}
			s.byExternal[ek] = u
		}
	}
	return s, nil
}

// LoadFile reads users from a YAML file.
func LoadFile(path string, opts ...Option) (*Service, error) {
	f, err := config.LoadYAML[File](path)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return New(f.Users, opts...)
}

// NormalizeUsername folds case and compatibility forms.
func NormalizeUsername(username string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(username)))
}

// HashPassword returns a bcrypt hash suitable for User.PasswordHash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// PreAuthenticate never signs in without interaction.
func (s *Service) PreAuthenticate(context.Context, signin.Message) (authn.Result, error) {
	return authn.None{}, nil
}

// AuthenticateLocal verifies a username and password. Unknown users cost
// the same bcrypt comparison as known ones.
func (s *Service) AuthenticateLocal(ctx context.Context, in authn.LocalContext) (authn.Result, error) {
	u, ok := s.byUsername[NormalizeUsername(in.Username)]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return authn.None{}, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return authn.None{}, nil
	}
	if u.Disabled {
		s.logger.InfoContext(ctx, "disabled account tried to sign in",
			logger.Component("localusers"),
			logger.Subject(u.Subject),
		)
		return authn.Error{Message: MsgAccountDisabled}, nil
	}
	return s.result(u, authn.MethodPassword, authn.IdentityProviderLocal), nil
}

// AuthenticateExternal maps a linked provider account to its user.
func (s *Service) AuthenticateExternal(ctx context.Context, in authn.ExternalContext) (authn.Result, error) {
	u, ok := s.byExternal[externalKey(in.Identity.Provider, in.Identity.ProviderID)]
	if !ok {
		s.logger.DebugContext(ctx, "external login not linked",
			logger.Component("localusers"),
			logger.Provider(in.Identity.Provider),
		)
		return authn.None{}, nil
	}
	if u.Disabled {
		return authn.Error{Message: MsgAccountDisabled}, nil
	}
	return s.result(u, authn.MethodExternal, in.Identity.Provider), nil
}

func (s *Service) result(u *User, method, idp string) authn.Result {
	if u.PendingAction != "" {
		return authn.Partial{
			ResumeURL:            u.PendingAction,
			TempSubject:          u.Subject,
			Name:                 u.DisplayName,
			AuthenticationMethod: method,
			IdentityProvider:     idp,
		}
	}
	return authn.Full{
		Subject:              u.Subject,
		DisplayName:          u.DisplayName,
		AuthenticationMethod: method,
		IdentityProvider:     idp,
	}
}

func externalKey(provider, id string) string {
	return provider + "\x00" + id
}
