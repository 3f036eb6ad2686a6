package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps clients in PostgreSQL.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store on db. The schema is expected to be
// migrated with Migrations.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const findClientSQL = `
SELECT client_id, client_name, enable_local_login, identity_provider_restrictions, logout_uri
FROM idsrv_clients
WHERE client_id = $1`

// FindClientByID implements authn.ClientStore.
func (s *PostgresStore) FindClientByID(ctx context.Context, clientID string) (*authn.Client, error) {
	var c authn.Client
	err := s.db.QueryRow(ctx, findClientSQL, clientID).Scan(
		&c.ClientID,
		&c.ClientName,
		&c.EnableLocalLogin,
		&c.IdentityProviderRestrictions,
		&c.LogoutURI,
	)
	if pg.IsNotFoundError(err) {
		return nil, authn.ErrClientNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, fmt.Errorf("find client %s: %w", clientID, err))
	}
	return &c, nil
}

const upsertClientSQL = `
INSERT INTO idsrv_clients (client_id, client_name, enable_local_login, identity_provider_restrictions, logout_uri)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (client_id) DO UPDATE SET
    client_name = EXCLUDED.client_name,
    enable_local_login = EXCLUDED.enable_local_login,
    identity_provider_restrictions = EXCLUDED.identity_provider_restrictions,
    logout_uri = EXCLUDED.logout_uri,
    updated_at = now()`

// Save inserts or updates a client.
func (s *PostgresStore) Save(ctx context.Context, c authn.Client) error {
	if err := validate(c); err != nil {
		return err
	}
	restrictions := c.IdentityProviderRestrictions
	if restrictions == nil {
		restrictions = []string{}
	}
	if _, err := s.db.Exec(ctx, upsertClientSQL,
		c.ClientID, c.ClientName, c.EnableLocalLogin, restrictions, c.LogoutURI,
	); err != nil {
		return errors.Join(ErrStoreFailure, fmt.Errorf("save client %s: %w", c.ClientID, err))
	}
	return nil
}

// Delete removes a client. Deleting an unknown client reports
// authn.ErrClientNotFound.
func (s *PostgresStore) Delete(ctx context.Context, clientID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM idsrv_clients WHERE client_id = $1`, clientID)
	if err != nil {
		return errors.Join(ErrStoreFailure, fmt.Errorf("delete client %s: %w", clientID, err))
	}
	if tag.RowsAffected() == 0 {
		return authn.ErrClientNotFound
	}
	return nil
}
