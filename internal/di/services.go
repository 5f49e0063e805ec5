// Package di provides dependency injection for clients and services.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aristath/flipper/internal/clients/hypixel"
	"github.com/aristath/flipper/internal/clients/lowestbin"
	"github.com/aristath/flipper/internal/clients/mojang"
	"github.com/aristath/flipper/internal/clients/neu"
	"github.com/aristath/flipper/internal/config"
	"github.com/aristath/flipper/internal/modules/display"
	"github.com/aristath/flipper/internal/modules/history"
	"github.com/aristath/flipper/internal/modules/market"
	"github.com/aristath/flipper/internal/modules/pricing"
	"github.com/aristath/flipper/internal/modules/recipes"
	"github.com/aristath/flipper/internal/modules/session"
	"github.com/aristath/flipper/internal/modules/watchlist"
	"github.com/rs/zerolog"
)

// InitializeServices builds clients, services and the session machinery.
// ctx bounds every polling worker; cancelling it stops tracking.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Clients
	container.HypixelClient = hypixel.NewClient(cfg.HypixelBaseURL, cfg.HypixelAPIKey, cfg.HypixelRatePerSec, log)
	container.LowestBINClient = lowestbin.NewClient(cfg.LowestBINURL, log)
	container.MojangClient = mojang.NewClient(cfg.MojangBaseURL, container.ClientDataRepo, log)
	container.NEUClient = neu.NewClient(cfg.NEURepoURL, log)

	if !cfg.HasAPIKey() {
		log.Warn().Msg("HYPIXEL_API_KEY not set, balance sync and profile lookup disabled")
	}

	// Services
	container.MarketService = market.NewService(market.Config{
		Hypixel:   container.HypixelClient,
		LowestBIN: container.LowestBINClient,
		Identity:  container.MojangClient,
		CacheRepo: container.ClientDataRepo,
		Log:       log,
	})
	container.RecipeResolver = recipes.NewResolver(container.NEUClient, container.ClientDataRepo, log)

	rates := pricing.TaxRates{Bazaar: cfg.BazaarTaxRate, Auction: cfg.AuctionTaxRate}
	container.Controller = session.NewController(ctx, session.Config{
		Market:       container.MarketService,
		Recipes:      container.RecipeResolver,
		TaxRates:     rates,
		PollInterval: cfg.PollInterval,
		RetryBackoff: cfg.RetryBackoff,
		Log:          log,
	})
	container.StateManager = display.NewStateManager(history.DefaultCapacity, log)
	container.Loop = display.NewLoop(container.Controller, container.StateManager, display.DefaultTick, log)

	watchlistPath := cfg.WatchlistFile
	if !filepath.IsAbs(watchlistPath) {
		watchlistPath = filepath.Join(cfg.DataDir, watchlistPath)
	}
	container.Watchlist = watchlist.NewStore(watchlistPath, log)
	if err := container.Watchlist.Load(); err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	return nil
}
