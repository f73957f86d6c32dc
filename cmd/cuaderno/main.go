// Command cuaderno is the terminal front end for the roster: it edits
// the device-local store directly and talks to the sync server on
// demand.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/jortega/cuaderno/internal/identity"
	"github.com/jortega/cuaderno/internal/roster"
	"github.com/jortega/cuaderno/internal/storage"
	"github.com/jortega/cuaderno/internal/storage/sqlite"
	"github.com/jortega/cuaderno/pkg/logging"
)

// cliConfig is populated from the environment.
type cliConfig struct {
	DBPath    string `envconfig:"CUADERNO_DB"`
	ServerURL string `envconfig:"CUADERNO_SERVER" default:"http://localhost:8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
}

// app bundles the open store, the loaded roster model and the token
// session for the duration of one command.
type app struct {
	cfg   cliConfig
	store *sqlite.Store
	model *roster.Model
	sess  *identity.Session
}

func openApp(ctx context.Context) (*app, error) {
	var cfg cliConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory, set CUADERNO_DB: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".cuaderno", "cuaderno.db")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	model := roster.New(store, slog.Default())
	model.Load(ctx)

	sess := identity.NewSession()
	if token, ok, err := store.Get(ctx, storage.KeyAuthToken); err == nil && ok {
		if err := sess.SignIn(token); err != nil {
			slog.Warn("stored token is unusable, staying signed out", "error", err)
		}
	}

	return &app{cfg: cfg, store: store, model: model, sess: sess}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close local store", "error", err)
	}
}

// withApp opens the app for one command and closes it after.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return run(ctx, a, args)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "cuaderno",
		Short:         "Student roster and monthly fee tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		addCommand(),
		editCommand(),
		rmCommand(),
		toggleCommand(),
		attendanceCommand(),
		listCommand(),
		totalsCommand(),
		payeesCommand(),
		clearCommand(),
		loginCommand(),
		logoutCommand(),
		syncCommand(),
		statusCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
