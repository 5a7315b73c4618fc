package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cvforge/cvforge/internal/activity"
	"github.com/cvforge/cvforge/internal/ai/gemini"
	"github.com/cvforge/cvforge/internal/executor"
	"github.com/cvforge/cvforge/internal/httpapi"
	"github.com/cvforge/cvforge/internal/intent"
	applogger "github.com/cvforge/cvforge/internal/logger"
	"github.com/cvforge/cvforge/internal/secrets"
	"github.com/cvforge/cvforge/internal/storage/postgres"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	defaultListenAddress = ":8080"
	shutdownGrace        = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cvforge HTTP server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default "+defaultListenAddress+")")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := applogger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cvforge server", zap.String("version", version))

	if config.Database.URL == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set DATABASE_URL or the database.url key in the configuration file"),
		)
	}

	apiKey, err := resolveGeminiKey(config.AI.Gemini)
	if err != nil {
		logger.Fatal("loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY, GEMINI_API_KEY_FILE or the ai.gemini keys in the configuration file"),
		)
	}

	store, err := postgres.Open(ctx, config.Database.URL)
	if err != nil {
		logger.Fatal("opening the database", zap.Error(err))
	}
	defer store.Close()

	generator, err := gemini.NewClient(ctx, apiKey, config.AI.Gemini.MaxLogLength, logger)
	if err != nil {
		logger.Fatal("creating the gemini client", zap.Error(err))
	}

	registry := taskconfig.NewRegistry()
	resolver := taskconfig.NewResolver(store, registry, logger)
	recorder := activity.NewRecorder(store, logger)

	taskTimeout := parseTimeout(config.AI.Gemini.TaskTimeout, logger, "ai.gemini.task-timeout")
	intentTimeout := parseTimeout(config.AI.Gemini.IntentTimeout, logger, "ai.gemini.intent-timeout")

	exec := executor.New(generator, resolver, store, recorder, taskTimeout, logger)
	router := intent.NewRouter(generator, resolver, store, registry, intentTimeout, logger)

	api := httpapi.NewServer(exec, router, store, store, store, recorder, logger)

	address := config.Server.Address
	if address == "" {
		address = defaultListenAddress
	}

	srv := &http.Server{
		Addr:              address,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", zap.Duration("grace", shutdownGrace))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}

func resolveGeminiKey(cfg *GeminiConfig) (string, error) {
	provider := viper.GetString("ai.provider")
	if provider != "" && provider != "gemini" {
		return "", fmt.Errorf("unsupported ai provider: %s", provider)
	}

	return secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  cfg.APIKeyFile,
	})
}

// parseTimeout turns a config duration string into a time.Duration. Zero
// means "use the component default".
func parseTimeout(raw string, logger *zap.Logger, key string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Fatal("invalid duration in config", zap.String("key", key), zap.Error(err))
	}
	return d
}
