/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived dependency of the tracker. It is
 * created by Wire() and handed to the server, which builds handlers from it.
 */
package di

import (
	"github.com/aristath/flipper/internal/clientdata"
	"github.com/aristath/flipper/internal/clients/hypixel"
	"github.com/aristath/flipper/internal/clients/lowestbin"
	"github.com/aristath/flipper/internal/clients/mojang"
	"github.com/aristath/flipper/internal/clients/neu"
	"github.com/aristath/flipper/internal/database"
	"github.com/aristath/flipper/internal/modules/display"
	"github.com/aristath/flipper/internal/modules/market"
	"github.com/aristath/flipper/internal/modules/recipes"
	"github.com/aristath/flipper/internal/modules/session"
	"github.com/aristath/flipper/internal/modules/watchlist"
	"github.com/aristath/flipper/internal/scheduler"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases
	ClientDataDB *database.DB // Cached upstream data (item catalog, recipes, player identities)

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Clients - External API integrations
	HypixelClient   *hypixel.Client   // Bazaar, item catalog, profiles
	LowestBINClient *lowestbin.Client // Auction fallback prices
	MojangClient    *mojang.Client    // Username to uuid
	NEUClient       *neu.Client       // Recipe documents

	// Services
	MarketService  *market.Service
	RecipeResolver *recipes.Resolver
	Controller     *session.Controller
	StateManager   *display.StateManager
	Loop           *display.Loop
	Watchlist      *watchlist.Store

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the scheduled jobs for manual triggering.
type JobInstances struct {
	CatalogRefresh    scheduler.Job
	ClientDataCleanup scheduler.Job
}

// Close releases resources held by the container. Safe to call on a
// partially initialized container.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Controller != nil {
		c.Controller.Close()
	}
	if c.ClientDataDB != nil {
		return c.ClientDataDB.Close()
	}
	return nil
}
