// Package lowestbin fetches the lowest buy-it-now auction price of every item.
package lowestbin

import (
	"context"
	"time"

	"github.com/aristath/flipper/internal/clients/restclient"
	"github.com/aristath/flipper/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultURL     = "https://moulberry.codes/lowestbin.json"
	defaultTimeout = 10 * time.Second
)

// Client is the lowest-BIN feed client.
type Client struct {
	url  string
	http *restclient.Client
	log  zerolog.Logger
}

// NewClient creates a new lowest-BIN client. An empty url uses the public feed.
func NewClient(url string, log zerolog.Logger) *Client {
	if url == "" {
		url = defaultURL
	}
	clientLog := log.With().Str("client", "lowestbin").Logger()
	return &Client{
		url:  url,
		http: restclient.New(restclient.Options{Timeout: defaultTimeout}, clientLog),
		log:  clientLog,
	}
}

// GetPrices returns item id -> lowest BIN price.
func (c *Client) GetPrices(ctx context.Context) (map[domain.ItemID]float64, error) {
	var raw map[string]float64
	if err := c.http.GetJSON(ctx, "lowestbin", c.url, &raw); err != nil {
		return nil, err
	}

	prices := make(map[domain.ItemID]float64, len(raw))
	for id, price := range raw {
		prices[domain.ItemID(id)] = price
	}

	c.log.Debug().Int("items", len(prices)).Msg("Fetched lowest BIN prices")
	return prices, nil
}
