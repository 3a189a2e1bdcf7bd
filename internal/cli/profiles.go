package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"profile_sync/internal/model"
)

func newProfilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Inspect and remove GoLogin profiles",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			profiles, err := api.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), profiles, func(w io.Writer) error {
				for _, p := range profiles {
					if err := writeProfileLine(w, p); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(w, "total=%d\n", len(profiles))
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			p, err := api.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), p, func(w io.Writer) error {
				return writeProfileLine(w, p)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			if err := api.DeleteProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.bus.Log("info", "profile deleted", map[string]any{"profileId": args[0]})
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cookies <id>",
		Short: "Show the cookies stored on a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			cookies, err := api.GetCookies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), cookies, func(w io.Writer) error {
				for _, c := range cookies {
					if _, err := fmt.Fprintf(w, "%s\t%s\t%s\tsession=%s\n", c.Domain, c.Path, c.Name, yesNo(c.Session)); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(w, "total=%d\n", len(cookies))
				return err
			})
		},
	})
	return cmd
}

func writeProfileLine(w io.Writer, p model.RemoteProfile) error {
	proxy := "none"
	if p.Proxy != nil && p.Proxy.Host != "" {
		proxy = fmt.Sprintf("%s:%d", p.Proxy.Host, p.Proxy.Port)
	}
	_, err := fmt.Fprintf(w, "%s\t%s\tproxy=%s\n", p.ID, p.Name, proxy)
	return err
}
