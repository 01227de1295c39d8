// Package eodhd implements an instrument catalog and a daily price provider
// on top of the EOD Historical Data API (https://eodhd.com).
package eodhd

import (
	"net/http"
	"net/url"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/httpcache"
	"github.com/rs/zerolog"
)

// APIKeyEnv is the environment variable holding the EODHD API key.
const APIKeyEnv = "EODHD_API_KEY"

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Client queries the EODHD API. It is both a stockfolio.Catalog and a
// stockfolio.PriceProvider.
type Client struct {
	apiKey   string
	baseURL  string
	cacheDir string
	http     *http.Client
	log      zerolog.Logger
}

var (
	_ stockfolio.Catalog       = (*Client)(nil)
	_ stockfolio.PriceProvider = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient sets the http client, disabling the default daily disk cache.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithCacheDir sets the folder of the daily disk cache. Defaults to os.TempDir().
func WithCacheDir(dir string) Option { return func(c *Client) { c.cacheDir = dir } }

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("client", "eodhd").Logger()
	if c.http == nil {
		c.http = httpcache.NewDailyClient(c.cacheDir, c.log)
	}
	return c
}

// endpoint builds the address of an API call.
func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("fmt", "json")
	query.Set("api_token", c.apiKey)
	return c.baseURL + path + "?" + query.Encode()
}
