package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/bachat-dev/bachat/internal/config"
	"github.com/bachat-dev/bachat/internal/estimate"
	"github.com/bachat-dev/bachat/internal/llm"
	"github.com/bachat-dev/bachat/internal/matcher"
	"github.com/bachat-dev/bachat/internal/pricecache"
	"github.com/bachat-dev/bachat/internal/resolver"
	"github.com/bachat-dev/bachat/internal/service"
	"github.com/bachat-dev/bachat/internal/storage"
)

// initStore opens the meal-plan database and runs migrations.
func initStore(ctx context.Context) (*storage.SQLiteStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	} else {
		dbPath = config.ExpandPath(dbPath)
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initCache opens the persistent price cache.
func initCache() (*pricecache.Store, error) {
	cachePath := viper.GetString("cache.path")
	if cachePath == "" {
		cachePath = config.DefaultCachePath()
	} else {
		cachePath = config.ExpandPath(cachePath)
	}

	return pricecache.Open(cachePath, slog.Default())
}

// initCompleter creates the rate-limited completion client when one is
// configured. Without an API key or a local provider, semantic matching
// is simply disabled.
func initCompleter() (*llm.LimitedClient, error) {
	provider := viper.GetString("llm.provider")
	apiKey := viper.GetString("llm.api_key")

	if provider != "ollama" && apiKey == "" {
		slog.Debug("no LLM configured, semantic matching disabled")
		return nil, nil
	}

	return llm.NewClient(llm.Config{
		Provider:  provider,
		APIKey:    apiKey,
		Model:     viper.GetString("llm.model"),
		BaseURL:   viper.GetString("llm.base_url"),
		RateLimit: viper.GetInt("llm.rate_limit"),
	})
}

// initResolver wires cache, matcher and estimate table into a resolver.
// The returned close function stops the completion client if one was
// created. The matcher is always present so its deterministic
// containment shortcut works even without an LLM.
func initResolver(cache *pricecache.Store) (*resolver.Resolver, func(), error) {
	completer, err := initCompleter()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var c service.Completer
	closeFn := func() {}
	if completer != nil {
		c = completer
		closeFn = func() { _ = completer.Close() }
	}

	m := matcher.New(cache, c, slog.Default())
	res := resolver.New(cache, m, estimate.NewTable(), slog.Default())
	return res, closeFn, nil
}
