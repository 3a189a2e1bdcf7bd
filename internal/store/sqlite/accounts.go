package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"profile_sync/internal/model"
)

func tableFor(network model.Network) (string, error) {
	if !network.Valid() {
		return "", fmt.Errorf("%w: %q", model.ErrUnsupportedNetwork, string(network))
	}
	return quoteIdent(network.Table()), nil
}

// UpsertAccount inserts or replaces the row for acc.Login.
func (s *Store) UpsertAccount(ctx context.Context, network model.Network, acc model.AccountRow) error {
	if strings.TrimSpace(acc.Login) == "" {
		return errors.New("login is required")
	}
	table, err := tableFor(network)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (login, cookies, proxy_host, proxy_port, proxy_username, proxy_password, browser_gologin, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(login) DO UPDATE SET
			cookies = excluded.cookies,
			proxy_host = excluded.proxy_host,
			proxy_port = excluded.proxy_port,
			proxy_username = excluded.proxy_username,
			proxy_password = excluded.proxy_password,
			browser_gologin = excluded.browser_gologin,
			updated_at = excluded.updated_at
	`, acc.Login, acc.Cookies, acc.ProxyHost, acc.ProxyPort, acc.ProxyUsername, acc.ProxyPassword, acc.ProfileID, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert %s account: %w", network, err)
	}
	return nil
}

func (s *Store) LookupAccount(ctx context.Context, network model.Network, login string) (model.AccountRow, error) {
	table, err := tableFor(network)
	if err != nil {
		return model.AccountRow{}, err
	}

	var row struct {
		cookies       sql.NullString
		proxyHost     sql.NullString
		proxyPort     sql.NullString
		proxyUsername sql.NullString
		proxyPassword sql.NullString
		profileID     sql.NullString
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT cookies, proxy_host, proxy_port, proxy_username, proxy_password, browser_gologin
		FROM `+table+` WHERE login = ?
	`, login).Scan(&row.cookies, &row.proxyHost, &row.proxyPort, &row.proxyUsername, &row.proxyPassword, &row.profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AccountRow{}, fmt.Errorf("%s in %s: %w", login, network, model.ErrAccountNotFound)
	}
	if err != nil {
		return model.AccountRow{}, fmt.Errorf("query %s account: %w", network, err)
	}
	return model.AccountRow{
		Login:         login,
		Cookies:       nullable(row.cookies),
		ProxyHost:     nullable(row.proxyHost),
		ProxyPort:     nullable(row.proxyPort),
		ProxyUsername: nullable(row.proxyUsername),
		ProxyPassword: nullable(row.proxyPassword),
		ProfileID:     nullable(row.profileID),
	}, nil
}

func (s *Store) SetProfileID(ctx context.Context, network model.Network, login, profileID string) error {
	table, err := tableFor(network)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE `+table+` SET browser_gologin = ?, updated_at = ? WHERE login = ?`,
		profileID, time.Now().UnixMilli(), login)
	if err != nil {
		return fmt.Errorf("update %s account: %w", network, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s in %s: %w", login, network, model.ErrAccountNotFound)
	}
	return nil
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
