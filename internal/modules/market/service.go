// Package market resolves item names and fetches market and account data.
package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/flipper/internal/clientdata"
	"github.com/aristath/flipper/internal/domain"
	"github.com/aristath/flipper/internal/utils"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	catalogCacheKey = "catalog"
	catalogSource   = "hypixel"
)

// Config holds the market service dependencies.
type Config struct {
	Hypixel   HypixelAPI
	LowestBIN LowestBINAPI
	Identity  IdentityAPI
	// CacheRepo is optional - if nil, the catalog is only held in memory.
	CacheRepo *clientdata.Repository
	Log       zerolog.Logger
}

// Service implements domain.MarketData and player profile lookups.
type Service struct {
	hypixel   HypixelAPI
	lowestBIN LowestBINAPI
	identity  IdentityAPI
	cacheRepo *clientdata.Repository
	memory    *gocache.Cache
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates a new market service.
func NewService(cfg Config) *Service {
	return &Service{
		hypixel:   cfg.Hypixel,
		lowestBIN: cfg.LowestBIN,
		identity:  cfg.Identity,
		cacheRepo: cfg.CacheRepo,
		memory:    gocache.New(clientdata.TTLItemCatalog, time.Hour),
		now:       time.Now,
		log:       cfg.Log.With().Str("service", "market").Logger(),
	}
}

var _ domain.MarketData = (*Service)(nil)

// LoadCatalog makes the item catalog available for name resolution.
// Fresh persisted data is used as-is; otherwise the catalog is fetched and
// persisted, falling back to stale persisted data when the fetch fails.
func (s *Service) LoadCatalog(ctx context.Context) error {
	if entries, ok := s.loadPersistedCatalog(false); ok {
		s.setCatalog(NewCatalog(entries))
		s.log.Debug().Int("items", len(entries)).Msg("Item catalog loaded from cache")
		return nil
	}
	return s.RefreshCatalog(ctx)
}

// RefreshCatalog always fetches the catalog from upstream.
func (s *Service) RefreshCatalog(ctx context.Context) error {
	defer utils.OperationTimer("item_catalog_refresh", 10*time.Second, s.log)()

	items, err := s.hypixel.GetItems(ctx)
	if err != nil {
		if entries, ok := s.loadPersistedCatalog(true); ok {
			s.setCatalog(NewCatalog(entries))
			s.log.Warn().Err(err).Int("items", len(entries)).Msg("API failed, using stale cached item catalog")
			return nil
		}
		return fmt.Errorf("failed to fetch item catalog: %w", err)
	}

	entries := make([]CatalogEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, CatalogEntry{ID: domain.ItemID(item.ID), Name: item.Name})
	}

	s.setCatalog(NewCatalog(entries))

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Store(clientdata.TableItemCatalog, catalogSource, entries, clientdata.TTLItemCatalog); err != nil {
			s.log.Warn().Err(err).Msg("Failed to persist item catalog")
		}
	}

	s.log.Info().Int("items", len(entries)).Msg("Item catalog refreshed")
	return nil
}

// Catalog returns the current catalog, or nil while none is loaded.
func (s *Service) Catalog() *Catalog {
	if v, ok := s.memory.Get(catalogCacheKey); ok {
		return v.(*Catalog)
	}
	// The in-memory copy expired; reload whatever is persisted without touching the network.
	if entries, ok := s.loadPersistedCatalog(true); ok {
		catalog := NewCatalog(entries)
		s.setCatalog(catalog)
		return catalog
	}
	return nil
}

func (s *Service) setCatalog(c *Catalog) {
	s.memory.Set(catalogCacheKey, c, gocache.DefaultExpiration)
}

func (s *Service) loadPersistedCatalog(allowStale bool) ([]CatalogEntry, bool) {
	if s.cacheRepo == nil {
		return nil, false
	}
	var entries []CatalogEntry
	found, err := s.cacheRepo.Load(clientdata.TableItemCatalog, catalogSource, &entries, allowStale)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to read cached item catalog")
		return nil, false
	}
	if !found || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// Resolve maps free text to an item id. It never fails: without a catalog
// match the normalized raw input is returned as an unverified id.
func (s *Service) Resolve(query string) domain.Resolution {
	res := domain.Resolution{
		Query:    query,
		Fallback: domain.NormalizeItemID(query),
		Kind:     domain.ResolutionUnverified,
	}
	res.ItemID = res.Fallback

	name := normalizeName(query)
	if name == "" {
		return res
	}

	catalog := s.Catalog()
	if catalog == nil {
		return res
	}

	if id, ok := catalog.LookupName(name); ok {
		res.ItemID, res.Kind, res.MatchedName = id, domain.ResolutionExact, name
		return res
	}
	if id, ok := catalog.LookupID(name); ok {
		res.ItemID, res.Kind = id, domain.ResolutionExact
		return res
	}
	if match, ok := ApproximateMatch(name, catalog.Names(), DefaultMatchCutoff); ok {
		id, _ := catalog.LookupName(match)
		res.ItemID, res.Kind, res.MatchedName = id, domain.ResolutionApproximate, match
		return res
	}

	return res
}

// ResolveItemID is Resolve with approximate matches accepted.
func (s *Service) ResolveItemID(query string) domain.ItemID {
	return s.Resolve(query).ItemID
}

// FetchMarketSnapshot fetches the bazaar and, only when some required id is
// not listed there, the lowest-BIN feed.
func (s *Service) FetchMarketSnapshot(ctx context.Context, required []domain.ItemID) (*domain.MarketSnapshot, error) {
	products, err := s.hypixel.GetBazaar(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.MarketSnapshot{
		Products:  products,
		FetchedAt: s.now(),
	}

	missing := make([]domain.ItemID, 0)
	for _, id := range required {
		if _, ok := products[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return snapshot, nil
	}

	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	s.log.Debug().Interface("missing", missing).Msg("Items not in bazaar, fetching lowest BIN")

	prices, err := s.lowestBIN.GetPrices(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.LowestBIN = prices
	snapshot.UsedFallback = true

	return snapshot, nil
}

// FetchAccountBalance returns purse plus bank of the linked profile member.
// The bool is false when no key or profile is configured or anything fails.
func (s *Service) FetchAccountBalance(ctx context.Context, ref domain.ProfileRef) (float64, bool) {
	if ref.IsZero() || !s.hypixel.HasAPIKey() {
		return 0, false
	}

	profile, err := s.hypixel.GetProfile(ctx, ref.ProfileID)
	if err != nil {
		s.log.Debug().Err(err).Str("profile_id", ref.ProfileID).Msg("Balance sync failed")
		return 0, false
	}

	member, ok := profile.Members[domain.CompactUUID(ref.PlayerUUID)]
	if !ok {
		s.log.Debug().Str("profile_id", ref.ProfileID).Msg("Player is not a member of the linked profile")
		return 0, false
	}

	return member.Total(), true
}

// PlayerProfiles is the result of a username lookup.
type PlayerProfiles struct {
	Username   string           `json:"username"`
	PlayerUUID string           `json:"player_uuid"`
	Profiles   []domain.Profile `json:"profiles"`
}

// ResolveProfiles looks up a username and lists its SkyBlock profiles.
func (s *Service) ResolveProfiles(ctx context.Context, username string) (*PlayerProfiles, error) {
	if !s.hypixel.HasAPIKey() {
		return nil, &domain.LookupError{Username: username, Reason: "api key not configured", Err: domain.ErrCredentialMissing}
	}

	identity, err := s.identity.LookupUUID(ctx, username)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, &domain.LookupError{Username: username, Reason: "no such player"}
	}

	profiles, err := s.hypixel.GetProfiles(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, &domain.LookupError{Username: username, Reason: "no skyblock profiles"}
	}

	name := identity.Name
	if name == "" {
		name = username
	}
	return &PlayerProfiles{
		Username:   name,
		PlayerUUID: domain.CompactUUID(identity.ID),
		Profiles:   profiles,
	}, nil
}
