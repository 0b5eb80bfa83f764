package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"dealhound/internal/config"
	"dealhound/internal/extract"
	"dealhound/internal/llm"
	"dealhound/internal/notify"
	"dealhound/internal/service"
	"dealhound/internal/storage"
)

// initStorage opens the database and applies pending migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newGateway builds the classification gateway from viper configuration.
func newGateway(logger *slog.Logger) (*llm.Gateway, error) {
	cfg := llm.Config{
		Provider:      viper.GetString("llm.provider"),
		APIKey:        viper.GetString("llm.api_key"),
		Model:         viper.GetString("llm.model"),
		Temperature:   viper.GetFloat64("llm.temperature"),
		MaxTokens:     viper.GetInt("llm.max_tokens"),
		RateLimit:     viper.GetInt("llm.rate_limit"),
		MaxRetries:    viper.GetInt("llm.max_retries"),
		MinConfidence: viper.GetInt("matching.min_confidence"),
	}
	if cfg.Provider == "" {
		cfg.Provider = "anthropic"
	}
	if timeout := viper.GetInt("llm.call_timeout_seconds"); timeout > 0 {
		cfg.CallTimeout = time.Duration(timeout) * time.Second
	}
	return llm.NewGateway(cfg, logger)
}

// newExtractor picks the deal source: an explicit file (flag or config)
// wins over the extraction service URL.
func newExtractor(dealsFile string) (service.Extractor, error) {
	if dealsFile == "" {
		dealsFile = viper.GetString("extractor.file")
	}
	if dealsFile != "" {
		return extract.NewFileExtractor(config.ExpandPath(dealsFile)), nil
	}
	return extract.NewHTTPExtractor(viper.GetString("extractor.url"))
}

// newNotifier builds the digest notifier, or returns nil when email is not
// configured.
func newNotifier() (service.Notifier, error) {
	apiKey := viper.GetString("notify.api_key")
	if apiKey == "" {
		return nil, nil
	}
	return notify.NewResendNotifier(notify.ResendConfig{
		APIKey:   apiKey,
		From:     viper.GetString("notify.from"),
		Endpoint: viper.GetString("notify.endpoint"),
	})
}
