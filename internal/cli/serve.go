package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"profile_sync/internal/engine"
	"profile_sync/internal/export"
	"profile_sync/internal/httpapi"
	"profile_sync/internal/notify"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the websocket event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
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

			exporter, err := export.NewWriter(a.deps.FS, a.cfg.Export.Dir, a.cfg.Export.Format)
			if err != nil {
				return err
			}

			fetcher := a.newFetcher(s)
			prov := engine.New(engine.Options{
				API:      api,
				Accounts: fetcher,
				Bus:      a.bus,
				Notifier: notify.FromConfig(a.cfg.Notify, a.bus),
				Logger:   a.log,
				Workers:  a.cfg.Engine.Workers,
			})
			srv := httpapi.New(httpapi.Options{
				Cfg:      a.cfg,
				Bus:      a.bus,
				Accounts: fetcher,
				Runner:   prov,
				API:      api,
				Exporter: exporter,
			})

			server := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- server.ListenAndServe()
			}()
			a.bus.Log("info", "server starting", map[string]any{"addr": a.cfg.Server.Addr})

			select {
			case <-ctx.Done():
				a.bus.Log("info", "shutdown signal received", nil)
			case err := <-serverErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.bus.Log("error", "http server error", map[string]any{"error": err.Error()})
					return err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
			a.bus.Log("info", "server stopped", nil)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
