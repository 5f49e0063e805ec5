// Package restclient wraps resty with rate limiting and the error
// classification shared by all upstream clients.
package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/flipper/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "flipper/1.0"

// Options configures a Client.
type Options struct {
	Timeout time.Duration
	// RatePerSec limits outgoing requests. Zero disables limiting.
	RatePerSec float64
	Headers    map[string]string
}

// Client performs GET requests and maps every failure to *domain.NetworkError.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// New creates a new REST client.
func New(opts Options, log zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New()
	httpClient.SetTimeout(timeout)
	httpClient.SetHeader("User-Agent", defaultUserAgent)
	httpClient.SetHeader("Accept", "application/json")
	for k, v := range opts.Headers {
		httpClient.SetHeader(k, v)
	}

	c := &Client{
		http: httpClient,
		log:  log,
	}
	if opts.RatePerSec > 0 {
		burst := int(opts.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	return c
}

// Get performs a GET and returns the raw body and status code.
// Only transport failures are errors here; status handling is left to the caller.
func (c *Client) Get(ctx context.Context, op, url string) ([]byte, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, &domain.NetworkError{Op: op, URL: url, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Str("url", url).Msg("Request failed")
		return nil, 0, &domain.NetworkError{Op: op, URL: url, Err: err}
	}

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode()).
		Dur("took", time.Since(start)).
		Msg("Request completed")

	return resp.Body(), resp.StatusCode(), nil
}

// GetJSON performs a GET and decodes a 2xx JSON body into out.
func (c *Client) GetJSON(ctx context.Context, op, url string, out interface{}) error {
	body, status, err := c.Get(ctx, op, url)
	if err != nil {
		return err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &domain.NetworkError{Op: op, URL: url, StatusCode: status}
	}
	return Decode(op, url, body, out)
}

// Decode unmarshals body into out, classifying failures as malformed responses.
func Decode(op, url string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.NetworkError{
			Op:  op,
			URL: url,
			Err: fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err),
		}
	}
	return nil
}
