package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"profile_sync/internal/accounts"
	"profile_sync/internal/export"
	"profile_sync/internal/model"
	"profile_sync/internal/normalize"
)

type fetchReport struct {
	Network   model.Network                  `json:"network" yaml:"network"`
	Usernames []string                       `json:"-" yaml:"-"`
	Results   map[string]model.AccountResult `json:"results" yaml:"results"`
	Summary   map[string]int                 `json:"summary" yaml:"summary"`
	Files     map[string]string              `json:"files,omitempty" yaml:"files,omitempty"`
}

func (a *app) newFetcher(s accounts.Store) *accounts.Fetcher {
	classifier := normalize.New()
	classifier.TTL = a.cfg.Engine.CookieTTL()
	return accounts.NewFetcher(s, accounts.WithClassifier(classifier), accounts.WithLogger(a.log))
}

func newFetchCmd(a *app) *cobra.Command {
	var exportDir string

	cmd := &cobra.Command{
		Use:   "fetch <network> <usernames...>",
		Short: "Read and normalize cookies and proxy settings for usernames",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := model.ParseNetwork(args[0])
			if err != nil {
				return err
			}
			usernames := accounts.Usernames(args[1:])
			if len(usernames) == 0 {
				return fmt.Errorf("no usernames given")
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			results, err := a.newFetcher(s).FetchUserData(cmd.Context(), network, usernames)
			if err != nil {
				return err
			}
			rep := fetchReport{
				Network:   network,
				Usernames: usernames,
				Results:   results,
				Summary:   accounts.Summarize(results),
			}

			if exportDir != "" {
				w, err := export.NewWriter(a.deps.FS, exportDir, a.cfg.Export.Format)
				if err != nil {
					return err
				}
				if rep.Files, err = w.WriteAll(network, results); err != nil {
					return fmt.Errorf("export cookies: %w", err)
				}
			}
			return a.render(cmd.OutOrStdout(), rep, rep.writeText)
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "write cookie files for successful results to this directory")
	return cmd
}

func (r fetchReport) writeText(w io.Writer) error {
	for _, u := range r.Usernames {
		res := r.Results[u]
		line := fmt.Sprintf("%s\t%s\tcookies=%d\tproxy=%s", u, res.Status, res.Count, yesNo(res.Proxy != nil))
		if res.Error != "" {
			line += "\terror=" + res.Error
		}
		if path, ok := r.Files[u]; ok {
			line += "\tfile=" + path
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, formatKV(r.Summary))
	return err
}
