package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oasip/internal/app/db"
)

// PostgresStore keeps the token in the client_tokens table.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

// OpenPostgresStore connects to dsn, migrates, and returns the store plus a closer.
func OpenPostgresStore(ctx context.Context, dsn, key string) (*PostgresStore, func(), error) {
	if dsn == "" {
		return nil, nil, errors.New("database URL is empty")
	}
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return NewPostgresStore(pool, key), pool.Close, nil
}

// NewPostgresStore wraps a migrated pool.
func NewPostgresStore(pool *pgxpool.Pool, key string) *PostgresStore {
	return &PostgresStore{pool: pool, key: key}
}

func (s *PostgresStore) Key() string { return s.key }

func (s *PostgresStore) WithKey(key string) TokenStore {
	return &PostgresStore{pool: s.pool, key: key}
}

func (s *PostgresStore) Get(ctx context.Context) (string, error) {
	var token string
	err := s.pool.QueryRow(ctx,
		`SELECT token FROM client_tokens WHERE token_key = $1`, s.key,
	).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select token: %w", err)
	}
	return token, nil
}

func (s *PostgresStore) Set(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO client_tokens (token_key, token, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token_key) DO UPDATE SET token = EXCLUDED.token, updated_at = now()`,
		s.key, token,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM client_tokens WHERE token_key = $1`, s.key); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
