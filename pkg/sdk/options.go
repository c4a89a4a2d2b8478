package sdk

import (
	"net/http"
	"time"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey  string
	httpc   *http.Client
	timeout time.Duration
}

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpc = httpc
	})
}

// WithTimeout sets the per-request timeout. Default: 30s.
// Ignored when WithHTTPClient is also given.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}
