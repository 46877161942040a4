// Command spendly-cli drives the Spendly backend from a terminal with the
// same session and page logic as the web front-end.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spendly/internal/auth"
	"spendly/internal/backend"
	"spendly/internal/cache"
	"spendly/internal/cli"
	"spendly/internal/config"
	"spendly/internal/core"
	"spendly/internal/log"
	"spendly/internal/pages"
	"spendly/internal/session"
)

// app is everything a command needs, built once per invocation.
type app struct {
	auth  *auth.Controller
	pages *pages.Set
	prefs *session.Preferences
	close func()
}

type builder func(ctx context.Context) (*app, error)

var (
	flagStore   string
	flagVerbose bool
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd(buildApp).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(build builder) *cobra.Command {
	var a *app
	root := &cobra.Command{
		Use:           "spendly-cli",
		Short:         "Spendly personal finance from the terminal",
		Long:          "Sign in, record transactions, track budgets and goals, and ask the advisor.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = build(cmd.Context())
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil && a.close != nil {
				a.close()
			}
		},
	}
	root.PersistentFlags().StringVar(&flagStore, "store", "", "Session store backend (sqlite, file, memory)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log diagnostics to stderr")

	get := func() *app { return a }
	root.AddCommand(
		newLoginCmd(get),
		newRegisterCmd(get),
		newLogoutCmd(get),
		newWhoamiCmd(get),
		newDashboardCmd(get),
		newTransactionsCmd(get),
		newBudgetsCmd(get),
		newGoalsCmd(get),
		newChatCmd(get),
		newThemeCmd(get),
	)
	return root
}

// buildApp wires the gateway, session store and page controllers from the
// environment. The stored session is resolved before any command runs.
func buildApp(ctx context.Context) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	level := "warn"
	if flagVerbose {
		level = "debug"
	}
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(level)
	lc.Component = log.ComponentCLI
	lc.Output = os.Stderr
	logger := log.New(lc)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagStore != "" {
		cfg.StoreBackend = flagStore
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger)
	store, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	var ctrl *auth.Controller
	gw, err := factory.CreateGateway(ctx, bcfg, backend.GatewayDeps{
		Token: func(ctx context.Context) string { return ctrl.Token(ctx) },
	})
	if err != nil {
		if store.Cleanup != nil {
			_ = store.Cleanup()
		}
		return nil, err
	}
	ctrl = auth.New(gw.Gateway, session.NewStore(store.Store, logger), logger)
	ctrl.Resolve(ctx)

	set := pages.NewSet(pages.Deps{
		Gateway:       gw.Gateway,
		Identity:      ctrl,
		DefaultUserID: core.UserID(cfg.DefaultUserID),
		Categories:    cache.NewLRUCache[[]string](4, time.Minute),
		Logger:        logger,
	})
	return &app{
		auth:  ctrl,
		pages: set,
		prefs: session.NewPreferences(store.Store, logger),
		close: func() {
			if gw.Cleanup != nil {
				_ = gw.Cleanup()
			}
			if store.Cleanup != nil {
				_ = store.Cleanup()
			}
		},
	}, nil
}

var errNotSignedIn = errors.New("not signed in, run `spendly-cli login` first")

// signedIn fails commands that need an account when nobody is signed in.
func signedIn(a *app) error {
	if !a.auth.IsLoggedIn() {
		return errNotSignedIn
	}
	return nil
}

// failure turns a page error into the message the web front-end would show.
func failure(n pages.Notice, err error) error {
	if errors.Is(err, pages.ErrNotLoggedIn) {
		return errNotSignedIn
	}
	if n.Message != "" {
		return errors.New(n.Message)
	}
	return errors.New(pages.ErrorMessage(err, "Request failed"))
}
