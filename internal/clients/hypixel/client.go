// Package hypixel provides a client for the public Hypixel SkyBlock API.
// Bazaar and item catalog endpoints are open; profile endpoints need an API key.
package hypixel

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aristath/flipper/internal/clients/restclient"
	"github.com/aristath/flipper/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.hypixel.net"

	bazaarTimeout  = 5 * time.Second
	defaultTimeout = 10 * time.Second
)

// Client is the Hypixel API client.
type Client struct {
	baseURL string
	apiKey  string
	public  *restclient.Client
	keyed   *restclient.Client
	log     zerolog.Logger
}

// NewClient creates a new Hypixel client. An empty baseURL uses the public API.
// ratePerSec limits the keyed endpoints, which count against the key's quota.
func NewClient(baseURL, apiKey string, ratePerSec float64, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	clientLog := log.With().Str("client", "hypixel").Logger()

	var keyedHeaders map[string]string
	if apiKey != "" {
		keyedHeaders = map[string]string{"API-Key": apiKey}
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		public:  restclient.New(restclient.Options{Timeout: defaultTimeout}, clientLog),
		keyed: restclient.New(restclient.Options{
			Timeout:    defaultTimeout,
			RatePerSec: ratePerSec,
			Headers:    keyedHeaders,
		}, clientLog),
		log: clientLog,
	}
}

// HasAPIKey reports whether profile endpoints can be used.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// GetBazaar fetches the bazaar quick status of every product.
func (c *Client) GetBazaar(ctx context.Context) (map[domain.ItemID]domain.Quote, error) {
	endpoint := c.baseURL + "/v2/skyblock/bazaar"

	ctx, cancel := context.WithTimeout(ctx, bazaarTimeout)
	defer cancel()

	var resp BazaarResponse
	if err := c.public.GetJSON(ctx, "bazaar", endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, unsuccessful("bazaar", endpoint, resp.Cause)
	}

	quotes := make(map[domain.ItemID]domain.Quote, len(resp.Products))
	for key, product := range resp.Products {
		id := product.ProductID
		if id == "" {
			id = key
		}
		quotes[domain.ItemID(id)] = domain.Quote{
			BuyPrice:   product.QuickStatus.BuyPrice,
			SellPrice:  product.QuickStatus.SellPrice,
			SellVolume: product.QuickStatus.SellVolume,
		}
	}

	c.log.Debug().Int("products", len(quotes)).Msg("Fetched bazaar")
	return quotes, nil
}

// GetItems fetches the item catalog.
func (c *Client) GetItems(ctx context.Context) ([]Item, error) {
	endpoint := c.baseURL + "/v2/resources/skyblock/items"

	var resp ItemsResponse
	if err := c.public.GetJSON(ctx, "items", endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, unsuccessful("items", endpoint, "")
	}
	return resp.Items, nil
}

// GetProfiles lists the SkyBlock profiles of a player.
func (c *Client) GetProfiles(ctx context.Context, playerUUID string) ([]domain.Profile, error) {
	if !c.HasAPIKey() {
		return nil, domain.ErrCredentialMissing
	}
	endpoint := c.baseURL + "/v2/skyblock/profiles?uuid=" + url.QueryEscape(playerUUID)

	var resp profilesResponse
	if err := c.keyed.GetJSON(ctx, "profiles", endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, unsuccessful("profiles", endpoint, resp.Cause)
	}

	profiles := make([]domain.Profile, 0, len(resp.Profiles))
	for _, p := range resp.Profiles {
		profiles = append(profiles, p.toDomain())
	}
	return profiles, nil
}

// GetProfile fetches a single profile with member balances.
func (c *Client) GetProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	if !c.HasAPIKey() {
		return nil, domain.ErrCredentialMissing
	}
	endpoint := c.baseURL + "/v2/skyblock/profile?profile=" + url.QueryEscape(profileID)

	var resp profileResponse
	if err := c.keyed.GetJSON(ctx, "profile", endpoint, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Profile == nil {
		return nil, unsuccessful("profile", endpoint, resp.Cause)
	}

	profile := resp.Profile.toDomain()
	return &profile, nil
}

func (p profileBody) toDomain() domain.Profile {
	var profileBank float64
	if p.Banking != nil {
		profileBank = p.Banking.Balance
	}

	members := make(map[string]domain.Member, len(p.Members))
	for id, m := range p.Members {
		members[domain.CompactUUID(id)] = m.toDomain(profileBank)
	}

	return domain.Profile{
		ProfileID:   p.ProfileID,
		DisplayName: p.CuteName,
		IsActive:    p.Selected,
		Members:     members,
	}
}

// toDomain falls back to the legacy purse field and to the shared profile bank
// when the member carries no values of its own.
func (m memberBody) toDomain(profileBank float64) domain.Member {
	var purse float64
	if m.Currencies != nil && m.Currencies.CoinPurse != nil && *m.Currencies.CoinPurse != 0 {
		purse = *m.Currencies.CoinPurse
	} else if m.CoinPurse != nil {
		purse = *m.CoinPurse
	}

	bank := profileBank
	if m.Banking != nil && m.Banking.Balance != 0 {
		bank = m.Banking.Balance
	}

	return domain.Member{Purse: purse, Bank: bank}
}

func unsuccessful(op, endpoint, cause string) error {
	err := domain.ErrUnsuccessfulPayload
	if cause != "" {
		err = fmt.Errorf("%w: %s", domain.ErrUnsuccessfulPayload, cause)
	}
	return &domain.NetworkError{Op: op, URL: endpoint, Err: err}
}
