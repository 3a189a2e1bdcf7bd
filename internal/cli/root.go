// Package cli wires the profilesync commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"profile_sync/internal/config"
	"profile_sync/internal/logbus"
	"profile_sync/internal/observability"
	"profile_sync/internal/provider"
	"profile_sync/internal/provider/gologin"
	"profile_sync/internal/secrets"
	"profile_sync/internal/store"
)

// TokenStore keeps the GoLogin token outside the config file.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Delete() error
}

// Deps are the external resources commands reach for. Tests replace them.
type Deps struct {
	Tokens    TokenStore
	OpenStore func(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (store.Store, error)
	NewAPI    func(cfg config.GoLoginConfig, token string, bus *logbus.Bus, log *zap.Logger) (provider.ProfileAPI, error)
	FS        afero.Fs
	// Logger, when set, is used instead of the process logger.
	Logger *zap.Logger
}

func DefaultDeps() Deps {
	return Deps{
		Tokens:    secrets.NewTokenStore(),
		OpenStore: store.Open,
		NewAPI: func(cfg config.GoLoginConfig, token string, bus *logbus.Bus, log *zap.Logger) (provider.ProfileAPI, error) {
			c, err := gologin.New(cfg, token, gologin.WithBus(bus), gologin.WithLogger(log))
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		FS: afero.NewOsFs(),
	}
}

type app struct {
	deps    Deps
	cfgPath string
	output  string

	cfg config.Config
	log *zap.Logger
	bus *logbus.Bus
}

// NewRootCmd builds the command tree around deps.
func NewRootCmd(deps Deps) *cobra.Command {
	a := &app{deps: deps}

	root := &cobra.Command{
		Use:           "profilesync",
		Short:         "Sync social account cookies and proxies into GoLogin browser profiles.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.bus != nil {
				a.bus.Close()
			}
			observability.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "config.yaml", "config file (optional)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format: text, json or yaml")

	root.AddCommand(
		newFetchCmd(a),
		newProvisionCmd(a),
		newWriteBackCmd(a),
		newProfilesCmd(a),
		newVerifyCmd(a),
		newServeCmd(a),
		newTokenCmd(a),
		newConfigCmd(a),
		newAccountsCmd(a),
	)
	return root
}

// Execute runs the CLI and exits 1 on error.
func Execute() {
	root := NewRootCmd(DefaultDeps())
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		observability.Sync()
		os.Exit(1)
	}
}

func (a *app) setup() error {
	switch a.output {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	if a.deps.Logger != nil {
		a.log = a.deps.Logger
	} else {
		observability.InitializeLogger(cfg.Logger)
		a.log = observability.GetLogger()
	}
	a.bus = logbus.New(500, logbus.WithLogger(a.log))
	return nil
}

// openStore opens the account database. Callers close it.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	s, err := a.deps.OpenStore(ctx, a.cfg.Database, a.log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Database.Driver, err)
	}
	return s, nil
}

// api builds the GoLogin client, taking the token from config or the keyring.
func (a *app) api() (provider.ProfileAPI, error) {
	var src config.TokenSource
	if a.deps.Tokens != nil {
		src = a.deps.Tokens
	}
	token, err := a.cfg.GoLogin.ResolveToken(src)
	if err != nil {
		return nil, fmt.Errorf("%w: set GOLOGIN_ACCESS_TOKEN or run `profilesync token set`", err)
	}
	return a.deps.NewAPI(a.cfg.GoLogin, token, a.bus, a.log)
}
