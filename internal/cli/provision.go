package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"profile_sync/internal/accounts"
	"profile_sync/internal/engine"
	"profile_sync/internal/model"
	"profile_sync/internal/notify"
)

// promptConfirmer asks on in/out before an existing profile is updated.
// Anything but y or yes declines; EOF declines too.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) ConfirmUpdate(ctx context.Context, network model.Network, username string, existing model.RemoteProfile) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s profile %q (%s) already exists for %s. Update it? [y/N]: ", network, existing.Name, existing.ID, username)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func newProvisionCmd(a *app) *cobra.Command {
	var (
		force   bool
		yes     bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "provision <network> <usernames...>",
		Short: "Create or update a GoLogin profile per username and store its id",
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

			api, err := a.api()
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var confirm engine.Confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
			if yes {
				confirm = engine.ConfirmFunc(func(context.Context, model.Network, string, model.RemoteProfile) (bool, error) {
					return true, nil
				})
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Engine.Workers
			}

			prov := engine.New(engine.Options{
				API:      api,
				Accounts: a.newFetcher(s),
				Confirm:  confirm,
				Bus:      a.bus,
				Notifier: notify.FromConfig(a.cfg.Notify, a.bus),
				Logger:   a.log,
				Workers:  workers,
			})
			summary, err := prov.Run(cmd.Context(), network, usernames, force)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), summary, func(w io.Writer) error {
				return writeSummaryText(w, summary)
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "update existing profiles without asking")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "answer yes to every update prompt")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "usernames provisioned concurrently")
	return cmd
}

func writeSummaryText(w io.Writer, s model.BatchSummary) error {
	for _, o := range s.Outcomes {
		line := fmt.Sprintf("%s\t%s", o.Username, o.State)
		if o.ProfileID != "" {
			line += "\tprofile=" + o.ProfileID
		}
		if o.WriteBack != model.WriteBackNone {
			line += "\t" + string(o.WriteBack)
		}
		if o.FetchStatus != "" && o.State == model.StateIneligible {
			line += "\tfetch=" + string(o.FetchStatus)
		}
		for _, warn := range o.Warnings {
			line += "\twarning=" + warn
		}
		if o.Error != "" {
			line += "\terror=" + o.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	counts := make(map[string]int)
	for state, n := range s.Counts() {
		counts[string(state)] = n
	}
	counts["total"] = len(s.Outcomes)
	_, err := fmt.Fprintf(w, "run %s: %s\n", s.RunID, formatKV(counts))
	return err
}

func newWriteBackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "writeback <network> <username> <profileID>",
		Short: "Store a profile id for a username without touching GoLogin",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			network, err := model.ParseNetwork(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			prov := engine.New(engine.Options{Accounts: a.newFetcher(s), Bus: a.bus, Logger: a.log})
			if err := prov.RetryWriteBack(cmd.Context(), network, args[1], args[2]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", args[1], model.WriteBackOK, args[2])
			return err
		},
	}
}
