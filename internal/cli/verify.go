package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"profile_sync/internal/model"
	"profile_sync/internal/verify"
)

func newVerifyCmd(a *app) *cobra.Command {
	var headless bool

	cmd := &cobra.Command{
		Use:   "verify <network> <username>",
		Short: "Load a username's cookies into a local browser and check the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := model.ParseNetwork(args[0])
			if err != nil {
				return err
			}
			username := strings.TrimSpace(args[1])

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			results, err := a.newFetcher(s).FetchUserData(cmd.Context(), network, []string{username})
			if err != nil {
				return err
			}
			res := results[username]
			if res.Status != model.StatusSuccess || len(res.Cookies) == 0 {
				return fmt.Errorf("no cookies for %s (%s)", username, res.Status)
			}

			vcfg := a.cfg.Verify
			if cmd.Flags().Changed("headless") {
				vcfg.Headless = headless
			}
			rep, err := verify.New(vcfg, a.bus).Verify(cmd.Context(), network, username, res.Cookies)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), rep, func(w io.Writer) error {
				status := "ok"
				if !rep.OK {
					status = "logged_out"
				}
				line := fmt.Sprintf("%s\t%s\tloaded=%d\tkept=%d", rep.Username, status, rep.Loaded, len(rep.Present))
				if len(rep.Missing) > 0 {
					line += "\tmissing=" + strings.Join(rep.Missing, ",")
				}
				_, err := fmt.Fprintln(w, line)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	return cmd
}
