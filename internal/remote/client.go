// Package remote is the HTTP adapter for the catalog service: the
// search RPC, the row-level-secured user rows, and the suggestion
// endpoint. It maps transport-level aborts to domain.ErrAborted so
// callers can tell a superseded request apart from a real failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aribau/cartelera/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Cartelera/1.0"
)

// Client implements domain.Catalog against the catalog service.
type Client struct {
	baseURL    string
	apiKey     string
	userID     string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a catalog client. userID scopes the user-row
// endpoints and may be empty until authentication completes.
func NewClient(baseURL, apiKey, userID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
		now:    time.Now,
	}
}

// SetUser updates the authenticated user after login.
func (c *Client) SetUser(userID string) {
	c.userID = userID
}

// doRequest performs an authenticated JSON request. Context
// cancellation comes back as domain.ErrAborted.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any, extraHeaders map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	c.logger.Debug("catalog request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, domain.ErrAborted
		}
		c.logger.Error("catalog request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrAborted
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case resp.StatusCode >= 300:
		c.logger.Error("catalog request error", "status", resp.StatusCode, "path", path)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return data, nil
}

// Search runs the search RPC for one page of results.
func (c *Client) Search(ctx context.Context, filters domain.ActiveFilters, page, pageSize int) (*domain.SearchResult, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/rpc/search_movies", buildSearchRequest(filters, page, pageSize), nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	items := make([]domain.Movie, 0, len(resp.Items))
	for _, dto := range resp.Items {
		items = append(items, dto.toDomain())
	}
	return &domain.SearchResult{Items: items, Total: resp.Total}, nil
}

// FetchUserData returns the authenticated user's full per-item map.
func (c *Client) FetchUserData(ctx context.Context) (map[string]domain.UserMovieEntry, error) {
	if c.userID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/user_movies", nil, nil)
	if err != nil {
		return nil, err
	}

	var rows []userRowDTO
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse user rows: %w", err)
	}

	entries := make(map[string]domain.UserMovieEntry, len(rows))
	for _, row := range rows {
		entries[row.ItemID] = row.toEntry()
	}
	c.logger.Info("fetched user data", "entries", len(entries))
	return entries, nil
}

// WriteUserData upserts one fully merged user row. The remote store is
// a blind upsert keyed by (user_id, item_id).
func (c *Client) WriteUserData(ctx context.Context, itemID string, entry domain.UserMovieEntry) error {
	if c.userID == "" {
		return domain.ErrNotAuthenticated
	}

	row := toUserRow(c.userID, itemID, entry, c.now())
	headers := map[string]string{"Prefer": "resolution=merge-duplicates"}
	_, err := c.doRequest(ctx, http.MethodPost, "/user_movies", row, headers)
	return err
}

// Suggest returns completion candidates for a filter category.
func (c *Client) Suggest(ctx context.Context, category, term string) ([]string, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/rpc/suggest_terms", suggestRequest{Category: category, Term: term}, nil)
	if err != nil {
		return nil, err
	}

	var values []string
	if err := json.Unmarshal(body, &values); err != nil {
		return nil, fmt.Errorf("failed to parse suggestions: %w", err)
	}
	return values, nil
}
