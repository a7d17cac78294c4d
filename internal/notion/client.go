package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNotAuthenticated is returned when no bearer credential is available.
// It fails fast, before any request is issued.
var ErrNotAuthenticated = errors.New("notion: not authenticated")

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: request failed: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: request failed: status=%d message=%s", e.Status, e.Message)
}

// TokenProvider supplies the bearer credential for each request. Token
// storage and the OAuth exchange live outside this package.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken wraps a fixed credential as a TokenProvider.
func StaticToken(token string) TokenProvider {
	return func(ctx context.Context) (string, error) { return token, nil }
}

type ClientOptions struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client
	APIVersion    string
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Logger        *slog.Logger
}

// Client is a stateless, typed wrapper over the Notion HTTP API. Every call
// is idempotent at the HTTP level; retries are bounded and only issued for
// 429 and 5xx responses.
type Client struct {
	baseURL       string
	tokenProvider TokenProvider
	httpClient    *http.Client
	apiVersion    string
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
	logger        *slog.Logger
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "2022-06-28"
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:       baseURL,
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
		apiVersion:    apiVersion,
		maxRetries:    maxRetries,
		baseDelay:     baseDelay,
		maxDelay:      maxDelay,
		logger:        logger,
	}
}

// GetCurrentUser fetches the bot user behind the credential. Used to
// validate the token before a refresh.
func (c *Client) GetCurrentUser(ctx context.Context) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/v1/users/me", nil, &user)
	return user, err
}

// SearchDatabases lists every database shared with the integration, newest
// edits first.
func (c *Client) SearchDatabases(ctx context.Context) ([]Database, error) {
	body := map[string]any{
		"filter": map[string]string{"property": "object", "value": "database"},
		"sort":   map[string]string{"direction": "descending", "timestamp": "last_edited_time"},
		"page_size": 100,
	}
	var resp struct {
		Results []Database `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/search", body, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// QueryDatabasePages returns one page of results for a database query.
// Pass the previous response's NextCursor to continue; empty starts over.
func (c *Client) QueryDatabasePages(ctx context.Context, databaseID, cursor string) (PageList, error) {
	body := map[string]any{"page_size": 100}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	var list PageList
	err := c.do(ctx, http.MethodPost, "/v1/databases/"+databaseID+"/query", body, &list)
	return list, err
}

// FetchPage fetches a single page's properties.
func (c *Client) FetchPage(ctx context.Context, pageID string) (Page, error) {
	var page Page
	err := c.do(ctx, http.MethodGet, "/v1/pages/"+pageID, nil, &page)
	return page, err
}

// FetchBlocks returns all direct children of a page, following pagination.
func (c *Client) FetchBlocks(ctx context.Context, pageID string) ([]Block, error) {
	var all []Block
	cursor := ""
	for {
		path := "/v1/blocks/" + pageID + "/children"
		if cursor != "" {
			path += "?start_cursor=" + cursor
		}
		var list BlockList
		if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
			return nil, err
		}
		all = append(all, list.Results...)
		if !list.HasMore || list.NextCursor == "" {
			break
		}
		cursor = list.NextCursor
	}
	return all, nil
}

// CheckHasChildPages reports whether any direct child block of the page is
// itself a page.
func (c *Client) CheckHasChildPages(ctx context.Context, pageID string) (bool, error) {
	blocks, err := c.FetchBlocks(ctx, pageID)
	if err != nil {
		return false, err
	}
	for _, b := range blocks {
		if b.Type == "child_page" {
			return true, nil
		}
	}
	return false, nil
}

// UpdateBlock patches a single block. The payload carries only the
// type-specific content field, never a full block replace.
func (c *Client) UpdateBlock(ctx context.Context, blockID string, payload Block) (Block, error) {
	var updated Block
	err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+blockID, payload, &updated)
	return updated, err
}

// AppendBlocks adds children after the parent's existing content in one
// call, so the remote side assigns contiguous positions.
func (c *Client) AppendBlocks(ctx context.Context, parentID string, children []Block) error {
	body := map[string]any{"children": children}
	return c.do(ctx, http.MethodPatch, "/v1/blocks/"+parentID+"/children", body, nil)
}

// DeleteBlock archives a block.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/blocks/"+blockID, nil, nil)
}

// CreatePage creates a page under the given parent with optional initial
// content.
func (c *Client) CreatePage(ctx context.Context, parent Parent, properties map[string]PropertyValue, children []Block) (Page, error) {
	body := map[string]any{
		"parent":     parent,
		"properties": properties,
	}
	if len(children) > 0 {
		body["children"] = children
	}
	var page Page
	err := c.do(ctx, http.MethodPost, "/v1/pages", body, &page)
	return page, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.tokenProvider == nil {
		return ErrNotAuthenticated
	}
	token, err := c.tokenProvider(ctx)
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNotAuthenticated
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	url := c.baseURL + path

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Notion-Version", c.apiVersion)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil {
				return nil
			}
			return json.Unmarshal(respBody, out)
		}

		if (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			c.logger.Debug("retrying notion request", "method", method, "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var parsed map[string]any
		if json.Unmarshal(respBody, &parsed) == nil {
			if code, ok := parsed["code"].(string); ok {
				apiErr.Code = code
			}
			if message, ok := parsed["message"].(string); ok && strings.TrimSpace(message) != "" {
				apiErr.Message = message
			}
		}
		return apiErr
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
