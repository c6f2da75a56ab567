package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
)

const (
	restPrefix     = "/rest/v1/"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Options tune the HTTP side of the client.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is the handle to the hosted ticket backend.
type Client struct {
	baseURL    *url.URL
	anonKey    string
	httpClient *http.Client
}

// NewClient builds a client from valid settings.
func NewClient(s Settings, opts Options) (*Client, error) {
	if !s.Valid() {
		return nil, apperrors.ErrIncompleteBackendConf
	}

	base, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported backend url scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("backend url %q has no host", s.URL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    base,
		anonKey:    s.AnonKey,
		httpClient: httpClient,
	}, nil
}

// Init produces a usable client or nil. It never fails the caller:
// incomplete settings are logged as a warning, construction failures and
// panics as errors.
func Init(s Settings, opts Options, logger *slog.Logger) (client *Client) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("backend client initialization panicked", "panic", r)
			client = nil
		}
	}()

	if !s.Valid() {
		if s.IsEmpty() {
			logger.Info("no backend configured")
		} else {
			logger.Warn("incomplete backend configuration",
				"has_url", s.URL != "",
				"has_anon_key", s.AnonKey != "",
				"url_is_http", strings.HasPrefix(s.URL, "http"),
			)
		}
		return nil
	}

	c, err := NewClient(s, opts)
	if err != nil {
		logger.Error("failed to initialize backend client", "error", err)
		return nil
	}

	logger.Info("backend client initialized", "host", c.baseURL.Host)
	return c
}

// Host returns the backend host for logging.
func (c *Client) Host() string {
	return c.baseURL.Host
}

// Ping checks that the backend answers authenticated requests.
func (c *Client) Ping(ctx context.Context) error {
	var rows []json.RawMessage
	return c.list(ctx, ticketsTable, url.Values{"select": {"id"}, "limit": {"1"}}, &rows)
}

// list fetches all rows of table into out.
func (c *Client) list(ctx context.Context, table string, query url.Values, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = c.baseURL.Path + restPrefix + table
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", apperrors.ErrBackendRequest, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: GET %s: status %d: %s",
			apperrors.ErrBackendRequest, table, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", apperrors.ErrBackendRequest, table, err)
	}
	return nil
}
