package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"profile_sync/internal/model"
	"profile_sync/internal/store/sqlite"
)

// seedRow is one account in a seed file. YAML and JSON files both parse.
type seedRow struct {
	Login         string  `yaml:"login"`
	Cookies       *string `yaml:"cookies"`
	ProxyHost     *string `yaml:"proxy_host"`
	ProxyPort     *string `yaml:"proxy_port"`
	ProxyUsername *string `yaml:"proxy_username"`
	ProxyPassword *string `yaml:"proxy_password"`
	ProfileID     *string `yaml:"browser_gologin"`
}

func newAccountsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Maintain the local sqlite account database",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seed <network> <file>",
		Short: "Insert or replace account rows from a YAML or JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := model.ParseNetwork(args[0])
			if err != nil {
				return err
			}
			if a.cfg.Database.Driver != "sqlite" {
				return fmt.Errorf("accounts seed needs database.driver sqlite, have %q", a.cfg.Database.Driver)
			}

			raw, err := afero.ReadFile(a.deps.FS, args[1])
			if err != nil {
				return err
			}
			var rows []seedRow
			if err := yaml.Unmarshal(raw, &rows); err != nil {
				return fmt.Errorf("parse %s: %w", args[1], err)
			}

			s, err := sqlite.Open(cmd.Context(), a.cfg.Database.SQLitePath)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, r := range rows {
				err := s.UpsertAccount(cmd.Context(), network, model.AccountRow{
					Login:         r.Login,
					Cookies:       r.Cookies,
					ProxyHost:     r.ProxyHost,
					ProxyPort:     r.ProxyPort,
					ProxyUsername: r.ProxyUsername,
					ProxyPassword: r.ProxyPassword,
					ProfileID:     r.ProfileID,
				})
				if err != nil {
					return fmt.Errorf("seed %q: %w", r.Login, err)
				}
			}
			a.bus.Log("info", "accounts seeded", map[string]any{"network": string(network), "rows": len(rows)})
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d %s accounts\n", len(rows), network)
			return err
		},
	})
	return cmd
}
