// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aristath/flipper/internal/clientdata"
	"github.com/aristath/flipper/internal/modules/market"
	"github.com/aristath/flipper/internal/scheduler"
	"github.com/rs/zerolog"
)

const (
	catalogRefreshSchedule    = "@every 6h"
	clientDataCleanupSchedule = "@daily"
)

// RegisterJobs creates the maintenance jobs and registers them with a new scheduler.
// The scheduler is not started.
func RegisterJobs(container *Container, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{
		CatalogRefresh:    market.NewCatalogRefreshJob(container.MarketService, log),
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(catalogRefreshSchedule, instances.CatalogRefresh); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", instances.CatalogRefresh.Name(), err)
	}
	if err := sched.AddJob(clientDataCleanupSchedule, instances.ClientDataCleanup); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", instances.ClientDataCleanup.Name(), err)
	}
	container.Scheduler = sched

	return instances, nil
}
