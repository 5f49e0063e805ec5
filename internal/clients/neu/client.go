// Package neu fetches item documents from the NotEnoughUpdates item repository.
package neu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/flipper/internal/clients/restclient"
	"github.com/aristath/flipper/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultRepoURL = "https://raw.githubusercontent.com/NotEnoughUpdates/NotEnoughUpdates-Repo/master"
	defaultTimeout = 10 * time.Second
)

// ErrItemNotFound is returned when neither repository layout has the item.
var ErrItemNotFound = errors.New("item not found in repository")

// ItemDocument is the subset of an item file used for recipes.
// Recipe blocks are kept raw: they are either slot maps or lists.
type ItemDocument struct {
	InternalName string            `json:"internalname"`
	DisplayName  string            `json:"displayname"`
	Recipe       json.RawMessage   `json:"recipe,omitempty"`
	SlayerRecipe json.RawMessage   `json:"slayer_recipe,omitempty"`
	Recipes      []json.RawMessage `json:"recipes,omitempty"`
}

// Client is the item repository client.
type Client struct {
	repoURL string
	http    *restclient.Client
	log     zerolog.Logger
}

// NewClient creates a new repository client. An empty repoURL uses the public repository.
func NewClient(repoURL string, log zerolog.Logger) *Client {
	if repoURL == "" {
		repoURL = defaultRepoURL
	}
	clientLog := log.With().Str("client", "neu").Logger()
	return &Client{
		repoURL: strings.TrimRight(repoURL, "/"),
		http:    restclient.New(restclient.Options{Timeout: defaultTimeout}, clientLog),
		log:     clientLog,
	}
}

// ItemURLs returns the sharded location first, then the flat one.
func (c *Client) ItemURLs(id domain.ItemID) []string {
	raw := id.String()
	if raw == "" {
		return nil
	}
	first := strings.ToUpper(raw[:1])
	return []string{
		c.repoURL + "/items/" + first + "/" + raw + ".json",
		c.repoURL + "/items/" + raw + ".json",
	}
}

// GetItem fetches the document for id, trying each layout in turn.
func (c *Client) GetItem(ctx context.Context, id domain.ItemID) (*ItemDocument, error) {
	urls := c.ItemURLs(id)
	if len(urls) == 0 {
		return nil, ErrItemNotFound
	}

	for _, endpoint := range urls {
		body, status, err := c.http.Get(ctx, "neu_item", endpoint)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			c.log.Debug().Str("item", id.String()).Int("status", status).Str("url", endpoint).Msg("Item not at location")
			continue
		}

		var doc ItemDocument
		if err := restclient.Decode("neu_item", endpoint, body, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}

	return nil, ErrItemNotFound
}
