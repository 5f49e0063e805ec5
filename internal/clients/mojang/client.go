// Package mojang resolves Minecraft usernames to player uuids.
package mojang

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/flipper/internal/clientdata"
	"github.com/aristath/flipper/internal/clients/restclient"
	"github.com/aristath/flipper/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.mojang.com"
	defaultTimeout = 10 * time.Second
)

// Identity is a resolved player.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client is the Mojang profile lookup client.
type Client struct {
	baseURL   string
	http      *restclient.Client
	cacheRepo *clientdata.Repository
	log       zerolog.Logger
}

// NewClient creates a new Mojang client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	clientLog := log.With().Str("client", "mojang").Logger()
	return &Client{
		baseURL:   baseURL,
		http:      restclient.New(restclient.Options{Timeout: defaultTimeout}, clientLog),
		cacheRepo: cacheRepo,
		log:       clientLog,
	}
}

// LookupUUID resolves a username. It returns nil, nil when no such player exists.
// If the API fails, returns stale cached data if available (stale data > no data).
func (c *Client) LookupUUID(ctx context.Context, username string) (*Identity, error) {
	key := strings.ToLower(strings.TrimSpace(username))
	if key == "" {
		return nil, nil
	}

	if c.cacheRepo != nil {
		var cached Identity
		if found, err := c.cacheRepo.Load(clientdata.TablePlayerIdentity, key, &cached, false); err == nil && found {
			c.log.Debug().Str("username", key).Msg("Identity cache hit")
			return &cached, nil
		}
	}

	endpoint := c.baseURL + "/users/profiles/minecraft/" + url.PathEscape(key)
	body, status, err := c.http.Get(ctx, "mojang_profile", endpoint)
	if err == nil {
		switch {
		case status == http.StatusNoContent || status == http.StatusNotFound:
			return nil, nil
		case status != http.StatusOK:
			err = &domain.NetworkError{Op: "mojang_profile", URL: endpoint, StatusCode: status}
		}
	}
	if err != nil {
		if stale := c.staleIdentity(key); stale != nil {
			c.log.Warn().Err(err).Str("username", key).Msg("API failed, using stale cached identity")
			return stale, nil
		}
		return nil, err
	}

	var identity Identity
	if err := restclient.Decode("mojang_profile", endpoint, body, &identity); err != nil {
		return nil, err
	}
	if identity.ID == "" {
		return nil, nil
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(clientdata.TablePlayerIdentity, key, identity, clientdata.TTLPlayerIdentity); err != nil {
			c.log.Warn().Err(err).Str("username", key).Msg("Failed to cache identity")
		}
	}
	return &identity, nil
}

func (c *Client) staleIdentity(key string) *Identity {
	if c.cacheRepo == nil {
		return nil
	}
	var cached Identity
	found, err := c.cacheRepo.Load(clientdata.TablePlayerIdentity, key, &cached, true)
	if err != nil || !found {
		return nil
	}
	return &cached
}
