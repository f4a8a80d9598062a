package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/autosentience/vigil/internal/api"
	"github.com/autosentience/vigil/internal/config"
	"github.com/autosentience/vigil/internal/inference"
	"github.com/autosentience/vigil/internal/logging"
	"github.com/autosentience/vigil/internal/rules"
	"github.com/autosentience/vigil/internal/store"
)

var (
	apiPort     int
	databaseURL string
	rulesPath   string
	modelName   string
	inMemory    bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Vigil API server",
	Long: `Start the Vigil server which receives vehicle telemetry, runs rule
detection and the agent workflow, and serves the maintenance API.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8080, "Port the API server listens on")
	serverCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	serverCmd.Flags().StringVar(&rulesPath, "rules-config", "", "Path to a YAML threshold rules file (built-in rules when empty)")
	serverCmd.Flags().StringVar(&modelName, "model", "", "Inference model name override")
	serverCmd.Flags().BoolVar(&inMemory, "in-memory", false, "Use the in-memory store instead of Postgres")
}

func runServer(cmd *cobra.Command, args []string) {
	logger := logging.GetLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := buildConfig(inMemory)
	HandleError(cfg.Validate(), "Invalid configuration")

	engine, err := buildEngine(cfg)
	HandleError(err, "Failed to load rules")

	st, cleanup, err := buildStore(ctx, cfg)
	HandleError(err, "Failed to connect store")
	defer cleanup()

	client, err := buildClient(cfg)
	HandleError(err, "Failed to create inference client")

	server := api.New(cfg.APIPort, st, engine, client)
	logger.Info("Vigil %s starting with model %s", Version, client.Model())

	if err := server.Start(ctx); err != nil && err != context.Canceled {
		HandleError(err, "Server failed")
	}
	logger.Info("Shutdown complete")
}

// buildConfig assembles the runtime config from flags, falling back to
// the DATABASE_URL environment variable for the connection string.
func buildConfig(useMemory bool) *config.Config {
	dsn := databaseURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	port := apiPort
	if port == 0 {
		port = 8080
	}
	return config.LoadConfig(port, logLevel, dsn, rulesPath, modelName, useMemory)
}

func buildEngine(cfg *config.Config) (*rules.Engine, error) {
	if cfg.RulesConfigPath == "" {
		return rules.NewEngine(rules.DefaultRules()), nil
	}
	loaded, err := rules.LoadRules(cfg.RulesConfigPath)
	if err != nil {
		return nil, err
	}
	return rules.NewEngine(loaded), nil
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.InMemory {
		return store.NewMemory(), func() {}, nil
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("no database configured: set --database-url, DATABASE_URL, or use --in-memory")
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pg, pg.Close, nil
}

func buildClient(cfg *config.Config) (inference.Client, error) {
	infCfg := inference.DefaultConfig()
	if cfg.Model != "" {
		infCfg.Model = cfg.Model
	}
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	return inference.NewAnthropicClient(infCfg), nil
}
