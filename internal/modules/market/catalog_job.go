package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const catalogRefreshTimeout = 30 * time.Second

// CatalogRefreshJob re-fetches the item catalog.
type CatalogRefreshJob struct {
	service *Service
	log     zerolog.Logger
}

// NewCatalogRefreshJob creates a new catalog refresh job.
func NewCatalogRefreshJob(service *Service, log zerolog.Logger) *CatalogRefreshJob {
	return &CatalogRefreshJob{
		service: service,
		log:     log.With().Str("job", "item_catalog_refresh").Logger(),
	}
}

// Run refreshes the catalog.
func (j *CatalogRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), catalogRefreshTimeout)
	defer cancel()

	if err := j.service.RefreshCatalog(ctx); err != nil {
		j.log.Error().Err(err).Msg("Item catalog refresh failed")
		return err
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CatalogRefreshJob) Name() string {
	return "item_catalog_refresh"
}
