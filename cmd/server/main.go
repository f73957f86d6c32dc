package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/jortega/cuaderno/internal/auth"
	"github.com/jortega/cuaderno/internal/service"
	"github.com/jortega/cuaderno/internal/storage/sqlite"
	"github.com/jortega/cuaderno/pkg/logging"
)

const programName = "cuaderno-server"

// serverConfig is populated from the environment.
type serverConfig struct {
	Port      int           `envconfig:"PORT" default:"8080"`
	DBPath    string        `envconfig:"DB_PATH" default:"./data/cuaderno.db"`
	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"720h"`
	LogLevel  string        `envconfig:"LOG_LEVEL" default:"info"`
}

func serveRun(_ *cobra.Command, _ []string) error {
	var cfg serverConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	router := service.NewRouter(service.Deps{
		Authenticator: auth.NewPasswordAuthenticator(store),
		JWTManager:    jwtManager,
		Docs:          store,
		Logger:        slog.Default(),
	})

	// h2c lets clients speak HTTP/2 without TLS when a proxy in front
	// terminates it.
	handler := h2c.NewHandler(router, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("sync server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync server",
		RunE:  serveRun,
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Snapshot sync server for cuaderno",
		RunE:  serveRun,
	}
	rootCmd.AddCommand(serveCommand())

	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
