package client

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/config"
)

// MemoryStore is an in-process client registry.
type MemoryStore struct {
	mu      sync.RWMutex
	clients map[string]authn.Client
}

// NewMemoryStore creates a store holding clients. Ids must be unique and
// non-empty.
func NewMemoryStore(clients ...authn.Client) (*MemoryStore, error) {
	s := &MemoryStore{clients: make(map[string]authn.Client, len(clients))}
	for _, c := range clients {
		if err := validate(c); err != nil {
			return nil, err
		}
		if _, ok := s.clients[c.ClientID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateClient, c.ClientID)
		}
		s.clients[c.ClientID] = clone(c)
	}
	return s, nil
}

// File is the YAML layout read by LoadFile.
//
//	clients:
//	  - client_id: mvc
//	    client_name: MVC Client
//	    enable_local_login: false
//	    identity_provider_restrictions: [google]
//	    logout_uri: https://mvc.example/signout-oidc
type File struct {
	Clients []authn.Client `yaml:"clients"`
}

// LoadFile reads clients from a YAML file.
func LoadFile(path string) (*MemoryStore, error) {
	f, err := config.LoadYAML[File](path)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return NewMemoryStore(f.Clients...)
}

// FindClientByID implements authn.ClientStore.
func (s *MemoryStore) FindClientByID(_ context.Context, clientID string) (*authn.Client, error) {
	s.mu.RLock()
	c, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return nil, authn.ErrClientNotFound
	}
	out := clone(c)
	return &out, nil
}

// Put adds or replaces a client.
func (s *MemoryStore) Put(c authn.Client) error {
	if err := validate(c); err != nil {
		return err
	}
	s.mu.Lock()
	s.clients[c.ClientID] = clone(c)
	s.mu.Unlock()
	return nil
}

// Len returns the number of clients.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func validate(c authn.Client) error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("%w: empty client_id", ErrInvalidClient)
	}
	return nil
}

func clone(c authn.Client) authn.Client {
	c.IdentityProviderRestrictions = slices.Clone(c.IdentityProviderRestrictions)
	if c.EnableLocalLogin != nil {
		v := *c.EnableLocalLogin
		c.EnableLocalLogin = &v
	}
	return c
}
