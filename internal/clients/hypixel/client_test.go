package hypixel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/flipper/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bazaarPayload = `{
  "success": true,
  "lastUpdated": 1700000000000,
  "products": {
    "STICK": {"product_id": "STICK", "quick_status": {"productId": "STICK", "sellPrice": 5, "sellVolume": 1000, "buyPrice": 6}},
    "FISHING_ROD": {"product_id": "FISHING_ROD", "quick_status": {"productId": "FISHING_ROD", "sellPrice": 40, "sellVolume": 321, "buyPrice": 50}}
  }
}`

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestGetBazaar(t *testing.T) {
	server := newTestServer(t, map[string]string{"/v2/skyblock/bazaar": bazaarPayload})
	defer server.Close()

	client := NewClient(server.URL, "", 0, zerolog.Nop())
	quotes, err := client.GetBazaar(context.Background())
	require.NoError(t, err)

	require.Len(t, quotes, 2)
	rod := quotes["FISHING_ROD"]
	assert.Equal(t, 50.0, rod.BuyPrice)
	assert.Equal(t, 40.0, rod.SellPrice)
	assert.Equal(t, int64(321), rod.SellVolume)
}

func TestGetBazaar_Unsuccessful(t *testing.T) {
	server := newTestServer(t, map[string]string{"/v2/skyblock/bazaar": `{"success": false, "cause": "maintenance"}`})
	defer server.Close()

	client := NewClient(server.URL, "", 0, zerolog.Nop())
	_, err := client.GetBazaar(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsNetworkError(err))
	assert.ErrorIs(t, err, domain.ErrUnsuccessfulPayload)
}

func TestGetBazaar_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0, zerolog.Nop())
	_, err := client.GetBazaar(context.Background())

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusBadGateway, netErr.StatusCode)
}

func TestGetItems(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/v2/resources/skyblock/items": `{"success": true, "items": [{"id": "FISHING_ROD", "name": "Fishing Rod"}, {"id": "STICK", "name": "Stick"}]}`,
	})
	defer server.Close()

	client := NewClient(server.URL, "", 0, zerolog.Nop())
	items, err := client.GetItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Fishing Rod", items[0].Name)
	assert.Equal(t, "STICK", items[1].ID)
}

func TestGetProfiles_RequiresKey(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", 0, zerolog.Nop())
	_, err := client.GetProfiles(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrCredentialMissing)

	_, err = client.GetProfile(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrCredentialMissing)
}

func TestGetProfiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("API-Key"))
		assert.Equal(t, "/v2/skyblock/profiles", r.URL.Path)
		assert.Equal(t, "069a79f444e94726a5befca90e38aaf5", r.URL.Query().Get("uuid"))
		_, _ = w.Write([]byte(`{
		  "success": true,
		  "profiles": [
		    {"profile_id": "p1", "cute_name": "Apple", "selected": true,
		     "members": {"069a79f4-44e9-4726-a5be-fca90e38aaf5": {"currencies": {"coin_purse": 1000}}}},
		    {"profile_id": "p2", "cute_name": "Banana", "selected": false, "members": {}}
		  ]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", 0, zerolog.Nop())
	profiles, err := client.GetProfiles(context.Background(), "069a79f444e94726a5befca90e38aaf5")
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, "p1", profiles[0].ProfileID)
	assert.Equal(t, "Apple", profiles[0].DisplayName)
	assert.True(t, profiles[0].IsActive)
	assert.Equal(t, 1000.0, profiles[0].Members["069a79f444e94726a5befca90e38aaf5"].Purse)
	assert.False(t, profiles[1].IsActive)
}

func TestGetProfile_Balances(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/v2/skyblock/profile": `{
		  "success": true,
		  "profile": {
		    "profile_id": "p1",
		    "cute_name": "Apple",
		    "banking": {"balance": 5000},
		    "members": {
		      "aaaa": {"currencies": {"coin_purse": 100}, "banking": {"balance": 250}},
		      "bbbb": {"coin_purse": 70},
		      "cccc": {"currencies": {"coin_purse": 0}, "coin_purse": 12}
		    }
		  }
		}`,
	})
	defer server.Close()

	client := NewClient(server.URL, "secret", 0, zerolog.Nop())
	profile, err := client.GetProfile(context.Background(), "p1")
	require.NoError(t, err)

	// Member bank wins over the shared profile bank.
	assert.Equal(t, domain.Member{Purse: 100, Bank: 250}, profile.Members["aaaa"])
	// Legacy purse field and shared bank.
	assert.Equal(t, domain.Member{Purse: 70, Bank: 5000}, profile.Members["bbbb"])
	// A zero modern purse falls back to the legacy field.
	assert.Equal(t, domain.Member{Purse: 12, Bank: 5000}, profile.Members["cccc"])
}

func TestGetProfile_MissingProfile(t *testing.T) {
	server := newTestServer(t, map[string]string{"/v2/skyblock/profile": `{"success": true, "profile": null}`})
	defer server.Close()

	client := NewClient(server.URL, "secret", 0, zerolog.Nop())
	_, err := client.GetProfile(context.Background(), "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsuccessfulPayload)
}
