package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxDocumentBytes = 8 << 20

// FetchOption configures Fetch.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	files   fs.FS
	client  *http.Client
	timeout time.Duration
}

// WithFileSystem resolves relative locations inside files instead of the
// working directory.
func WithFileSystem(files fs.FS) FetchOption {
	return func(cfg *fetchConfig) {
		cfg.files = files
	}
}

// WithHTTPClient enables http(s) locations using client.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(cfg *fetchConfig) {
		cfg.client = client
	}
}

// WithHTTPFallback enables http(s) locations with a default client bounded by
// timeout.
func WithHTTPFallback(timeout time.Duration) FetchOption {
	return func(cfg *fetchConfig) {
		cfg.timeout = timeout
		if cfg.client == nil {
			cfg.client = &http.Client{Timeout: timeout}
		}
	}
}

// Fetch reads a document from a path or URL. Remote fetching stays disabled
// unless WithHTTPClient or WithHTTPFallback is supplied.
func Fetch(ctx context.Context, location string, opts ...FetchOption) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("openapi: document location is required")
	}
	var cfg fetchConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if isURL(location) {
		if cfg.client == nil {
			return nil, fmt.Errorf("openapi: remote document %q requires an http client", location)
		}
		return fetchURL(ctx, cfg, location)
	}
	if cfg.files != nil {
		data, err := fs.ReadFile(cfg.files, filepath.ToSlash(location))
		if err != nil {
			return nil, fmt.Errorf("openapi: read %s: %w", location, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filepath.Clean(location))
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", location, err)
	}
	return data, nil
}

func fetchURL(ctx context.Context, cfg fetchConfig, location string) ([]byte, error) {
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	res, err := cfg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", location, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("openapi: fetch %s: unexpected status %d", location, res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", location, err)
	}
	return data, nil
}

func isURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
