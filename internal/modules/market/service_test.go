package market

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/flipper/internal/clientdata"
	"github.com/aristath/flipper/internal/clients/hypixel"
	"github.com/aristath/flipper/internal/clients/mojang"
	"github.com/aristath/flipper/internal/database"
	"github.com/aristath/flipper/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHypixel struct {
	apiKey     bool
	bazaar     map[domain.ItemID]domain.Quote
	bazaarErr  error
	items      []hypixel.Item
	itemsErr   error
	itemCalls  int
	profiles   []domain.Profile
	profile    *domain.Profile
	profileErr error
}

func (f *fakeHypixel) HasAPIKey() bool { return f.apiKey }

func (f *fakeHypixel) GetBazaar(ctx context.Context) (map[domain.ItemID]domain.Quote, error) {
	return f.bazaar, f.bazaarErr
}

func (f *fakeHypixel) GetItems(ctx context.Context) ([]hypixel.Item, error) {
	f.itemCalls++
	return f.items, f.itemsErr
}

func (f *fakeHypixel) GetProfiles(ctx context.Context, playerUUID string) ([]domain.Profile, error) {
	return f.profiles, nil
}

func (f *fakeHypixel) GetProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	return f.profile, f.profileErr
}

type fakeLowestBIN struct {
	prices map[domain.ItemID]float64
	err    error
	calls  int
}

func (f *fakeLowestBIN) GetPrices(ctx context.Context) (map[domain.ItemID]float64, error) {
	f.calls++
	return f.prices, f.err
}

type fakeIdentity struct {
	identity *mojang.Identity
	err      error
}

func (f *fakeIdentity) LookupUUID(ctx context.Context, username string) (*mojang.Identity, error) {
	return f.identity, f.err
}

var catalogItems = []hypixel.Item{
	{ID: "ENCHANTED_DIAMOND", Name: "Enchanted Diamond"},
	{ID: "FISHING_ROD", Name: "Fishing Rod"},
	{ID: "STICK", Name: "Stick"},
	{ID: "ASPECT_OF_THE_END", Name: "Aspect of the End"},
}

func setupCache(t *testing.T) *clientdata.Repository {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return clientdata.NewRepository(db.Conn())
}

func newTestService(t *testing.T, hp *fakeHypixel, lb *fakeLowestBIN, id *fakeIdentity) *Service {
	if lb == nil {
		lb = &fakeLowestBIN{}
	}
	if id == nil {
		id = &fakeIdentity{}
	}
	return NewService(Config{
		Hypixel:   hp,
		LowestBIN: lb,
		Identity:  id,
		CacheRepo: setupCache(t),
		Log:       zerolog.Nop(),
	})
}

func TestResolve(t *testing.T) {
	svc := newTestService(t, &fakeHypixel{items: catalogItems}, nil, nil)
	require.NoError(t, svc.LoadCatalog(context.Background()))

	tests := []struct {
		name     string
		query    string
		expected domain.ItemID
		kind     domain.ResolutionKind
	}{
		{"exact name any case", "  enchanted DIAMOND ", "ENCHANTED_DIAMOND", domain.ResolutionExact},
		{"exact id", "fishing_rod", "FISHING_ROD", domain.ResolutionExact},
		{"typo", "enchanted diamnd", "ENCHANTED_DIAMOND", domain.ResolutionApproximate},
		{"unknown", "hyperion blade", "HYPERION_BLADE", domain.ResolutionUnverified},
		{"empty", "   ", "", domain.ResolutionUnverified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Resolve(tt.query)
			assert.Equal(t, tt.expected, res.ItemID)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, domain.NormalizeItemID(tt.query), res.Fallback)
		})
	}
}

func TestResolve_WithoutCatalog(t *testing.T) {
	svc := NewService(Config{Hypixel: &fakeHypixel{}, Log: zerolog.Nop()})

	res := svc.Resolve("enchanted diamond")
	assert.Equal(t, domain.ItemID("ENCHANTED_DIAMOND"), res.ItemID)
	assert.Equal(t, domain.ResolutionUnverified, res.Kind)
	assert.Equal(t, domain.ItemID("ENCHANTED_DIAMOND"), svc.ResolveItemID("enchanted diamond"))
}

func TestLoadCatalog_UsesPersistedCopy(t *testing.T) {
	hp := &fakeHypixel{items: catalogItems}
	cache := setupCache(t)

	first := NewService(Config{Hypixel: hp, CacheRepo: cache, Log: zerolog.Nop()})
	require.NoError(t, first.LoadCatalog(context.Background()))
	assert.Equal(t, 1, hp.itemCalls)

	second := NewService(Config{Hypixel: hp, CacheRepo: cache, Log: zerolog.Nop()})
	require.NoError(t, second.LoadCatalog(context.Background()))
	assert.Equal(t, 1, hp.itemCalls)
	assert.Equal(t, len(catalogItems), second.Catalog().Len())
}

func TestRefreshCatalog_StaleFallback(t *testing.T) {
	cache := setupCache(t)
	entries := []CatalogEntry{{ID: "STICK", Name: "Stick"}}
	require.NoError(t, cache.Store(clientdata.TableItemCatalog, catalogSource, entries, -time.Hour))

	hp := &fakeHypixel{itemsErr: errors.New("boom")}
	svc := NewService(Config{Hypixel: hp, CacheRepo: cache, Log: zerolog.Nop()})

	require.NoError(t, svc.LoadCatalog(context.Background()))
	assert.Equal(t, 1, hp.itemCalls)
	assert.Equal(t, domain.ItemID("STICK"), svc.ResolveItemID("stick"))
}

func TestRefreshCatalog_NoFallback(t *testing.T) {
	svc := NewService(Config{Hypixel: &fakeHypixel{itemsErr: errors.New("boom")}, Log: zerolog.Nop()})
	assert.Error(t, svc.LoadCatalog(context.Background()))
	assert.Nil(t, svc.Catalog())
}

func TestFetchMarketSnapshot_BazaarOnly(t *testing.T) {
	hp := &fakeHypixel{bazaar: map[domain.ItemID]domain.Quote{
		"STICK":  {SellPrice: 5},
		"STRING": {SellPrice: 3},
	}}
	lb := &fakeLowestBIN{}
	svc := newTestService(t, hp, lb, nil)

	snap, err := svc.FetchMarketSnapshot(context.Background(), []domain.ItemID{"STICK", "STRING"})
	require.NoError(t, err)
	assert.False(t, snap.UsedFallback)
	assert.Nil(t, snap.LowestBIN)
	assert.Equal(t, 0, lb.calls)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestFetchMarketSnapshot_FallbackWhenMissing(t *testing.T) {
	hp := &fakeHypixel{bazaar: map[domain.ItemID]domain.Quote{"STICK": {SellPrice: 5}}}
	lb := &fakeLowestBIN{prices: map[domain.ItemID]float64{"HYPERION": 1e9}}
	svc := newTestService(t, hp, lb, nil)

	snap, err := svc.FetchMarketSnapshot(context.Background(), []domain.ItemID{"STICK", "HYPERION"})
	require.NoError(t, err)
	assert.True(t, snap.UsedFallback)
	assert.Equal(t, 1, lb.calls)
	price, ok := snap.FallbackPrice("HYPERION")
	assert.True(t, ok)
	assert.Equal(t, 1e9, price)
}

func TestFetchMarketSnapshot_Errors(t *testing.T) {
	netErr := &domain.NetworkError{Op: "bazaar", URL: "x", StatusCode: 500}

	svc := newTestService(t, &fakeHypixel{bazaarErr: netErr}, nil, nil)
	_, err := svc.FetchMarketSnapshot(context.Background(), []domain.ItemID{"STICK"})
	assert.True(t, domain.IsNetworkError(err))

	lbErr := &domain.NetworkError{Op: "lowestbin", URL: "y", StatusCode: 503}
	svc = newTestService(t, &fakeHypixel{bazaar: map[domain.ItemID]domain.Quote{}}, &fakeLowestBIN{err: lbErr}, nil)
	_, err = svc.FetchMarketSnapshot(context.Background(), []domain.ItemID{"STICK"})
	assert.True(t, domain.IsNetworkError(err))
}

func TestFetchAccountBalance(t *testing.T) {
	ref := domain.ProfileRef{PlayerUUID: "069a79f4-44e9-4726-a5be-fca90e38aaf5", ProfileID: "p1"}
	profile := &domain.Profile{
		ProfileID: "p1",
		Members: map[string]domain.Member{
			"069a79f444e94726a5befca90e38aaf5": {Purse: 1000, Bank: 250},
		},
	}

	t.Run("linked member", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{apiKey: true, profile: profile}, nil, nil)
		balance, ok := svc.FetchAccountBalance(context.Background(), ref)
		assert.True(t, ok)
		assert.Equal(t, 1250.0, balance)
	})

	t.Run("no api key", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{profile: profile}, nil, nil)
		_, ok := svc.FetchAccountBalance(context.Background(), ref)
		assert.False(t, ok)
	})

	t.Run("no profile linked", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{apiKey: true, profile: profile}, nil, nil)
		_, ok := svc.FetchAccountBalance(context.Background(), domain.ProfileRef{})
		assert.False(t, ok)
	})

	t.Run("not a member", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{apiKey: true, profile: profile}, nil, nil)
		_, ok := svc.FetchAccountBalance(context.Background(), domain.ProfileRef{PlayerUUID: "other", ProfileID: "p1"})
		assert.False(t, ok)
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{apiKey: true, profileErr: errors.New("boom")}, nil, nil)
		_, ok := svc.FetchAccountBalance(context.Background(), ref)
		assert.False(t, ok)
	})
}

func TestResolveProfiles(t *testing.T) {
	profiles := []domain.Profile{{ProfileID: "p1", DisplayName: "Apple"}}

	t.Run("success", func(t *testing.T) {
		svc := newTestService(t,
			&fakeHypixel{apiKey: true, profiles: profiles}, nil,
			&fakeIdentity{identity: &mojang.Identity{ID: "ABC-DEF", Name: "Notch"}})

		result, err := svc.ResolveProfiles(context.Background(), "notch")
		require.NoError(t, err)
		assert.Equal(t, "Notch", result.Username)
		assert.Equal(t, "abcdef", result.PlayerUUID)
		assert.Equal(t, profiles, result.Profiles)
	})

	t.Run("no api key", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{}, nil, &fakeIdentity{})
		_, err := svc.ResolveProfiles(context.Background(), "notch")
		var lookupErr *domain.LookupError
		require.True(t, errors.As(err, &lookupErr))
		assert.ErrorIs(t, err, domain.ErrCredentialMissing)
	})

	t.Run("unknown player", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{apiKey: true}, nil, &fakeIdentity{})
		_, err := svc.ResolveProfiles(context.Background(), "ghost")
		var lookupErr *domain.LookupError
		require.True(t, errors.As(err, &lookupErr))
		assert.Equal(t, "no such player", lookupErr.Reason)
	})

	t.Run("no profiles", func(t *testing.T) {
		svc := newTestService(t, &fakeHypixel{apiKey: true}, nil,
			&fakeIdentity{identity: &mojang.Identity{ID: "abc", Name: "Notch"}})
		_, err := svc.ResolveProfiles(context.Background(), "notch")
		var lookupErr *domain.LookupError
		require.True(t, errors.As(err, &lookupErr))
	})
}

func TestCatalogRefreshJob(t *testing.T) {
	hp := &fakeHypixel{items: catalogItems}
	svc := newTestService(t, hp, nil, nil)

	job := NewCatalogRefreshJob(svc, zerolog.Nop())
	assert.Equal(t, "item_catalog_refresh", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, len(catalogItems), svc.Catalog().Len())

	hp.itemsErr = errors.New("boom")
	// Stale persisted copy keeps the refresh successful.
	assert.NoError(t, job.Run())
}
