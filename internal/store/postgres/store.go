package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"profile_sync/internal/model"
)

// DBPool is the subset of pgxpool.Pool the store uses, so tests can mock it.
type DBPool interface {
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New verifies the connection before returning the store.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// Connect opens a pool for databaseURL and wraps it.
func Connect(ctx context.Context, databaseURL string, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func tableFor(network model.Network) (string, error) {
	if !network.Valid() {
		return "", fmt.Errorf("%w: %q", model.ErrUnsupportedNetwork, string(network))
	}
	return pgx.Identifier{network.Table()}.Sanitize(), nil
}

func (s *Store) LookupAccount(ctx context.Context, network model.Network, login string) (model.AccountRow, error) {
	table, err := tableFor(network)
	if err != nil {
		return model.AccountRow{}, err
	}

	row := model.AccountRow{Login: login}
	err = s.pool.QueryRow(ctx,
		`SELECT cookies::text, proxy_host, proxy_port::text, proxy_username, proxy_password, browser_gologin FROM `+table+` WHERE login = $1`,
		login,
	).Scan(&row.Cookies, &row.ProxyHost, &row.ProxyPort, &row.ProxyUsername, &row.ProxyPassword, &row.ProfileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AccountRow{}, fmt.Errorf("%s in %s: %w", login, network, model.ErrAccountNotFound)
	}
	if err != nil {
		return model.AccountRow{}, fmt.Errorf("failed to query %s account: %w", network, err)
	}
	return row, nil
}

// SetProfileID stores the remote profile id on the login row.
func (s *Store) SetProfileID(ctx context.Context, network model.Network, login, profileID string) error {
	table, err := tableFor(network)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `UPDATE `+table+` SET browser_gologin = $1 WHERE login = $2`, profileID, login)
	if err != nil {
		return fmt.Errorf("failed to update %s account: %w", network, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s in %s: %w", login, network, model.ErrAccountNotFound)
	}
	s.log.Debug("profile id stored",
		zap.String("network", string(network)),
		zap.String("login", login),
		zap.String("profile_id", profileID))
	return nil
}
