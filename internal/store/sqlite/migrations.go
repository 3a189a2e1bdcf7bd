package sqlite

import (
	"context"
	"fmt"

	"profile_sync/internal/model"
)

func (s *Store) migrate(ctx context.Context) error {
	for _, network := range model.Networks() {
		stmt := `CREATE TABLE IF NOT EXISTS ` + quoteIdent(network.Table()) + ` (
			login TEXT PRIMARY KEY,
			cookies TEXT,
			proxy_host TEXT,
			proxy_port TEXT,
			proxy_username TEXT,
			proxy_password TEXT,
			browser_gologin TEXT,
			updated_at INTEGER NOT NULL DEFAULT 0
		);`
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", network, err)
		}
	}
	return nil
}
