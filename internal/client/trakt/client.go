// Package trakt is a thin HTTP client for the trakt.tv API v2.
//
// The client never looks up access tokens on its own; callers pass the token
// into every authenticated call. Non-2xx answers come back as *HTTPError so
// the caller decides what a status code means.
package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/common"
	"github.com/dmitrijs2005/sgtrakt/internal/logging"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://api.trakt.tv"
	DefaultAuthBaseURL = "https://trakt.tv"
	DefaultTimeout     = 15 * time.Second
	DefaultRateLimit   = 3
)

type Client struct {
	baseURL     string
	authBaseURL string
	clientID    string
	secret      string
	redirectURI string
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         logging.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAuthBaseURL sets the host serving /oauth/authorize.
func WithAuthBaseURL(authBaseURL string) ClientOption {
	return func(c *Client) {
		c.authBaseURL = strings.TrimRight(authBaseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(log logging.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithRateLimit caps outgoing requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient builds a client for the trakt application identified by
// clientID/clientSecret. redirectURI must match the registered one.
func NewClient(clientID, clientSecret, redirectURI string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		authBaseURL: DefaultAuthBaseURL,
		clientID:    clientID,
		secret:      clientSecret,
		redirectURI: redirectURI,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:         logging.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("module", "trakt")

	return c
}

// BaseURL returns the API host, used for reachability probes.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.secret,
		RedirectURL:  c.redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authBaseURL + "/oauth/authorize",
			TokenURL:  c.baseURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// do sends one JSON request. in may be nil; out may be nil to discard the
// body. A non-2xx answer is returned as *HTTPError.
func (c *Client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.APIVersionHeaderName, common.APIVersion)
	req.Header.Set(common.APIKeyHeaderName, c.clientID)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	c.log.Debug(ctx, "trakt request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &HTTPError{StatusCode: resp.StatusCode, Body: b, Endpoint: method + " " + path}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
