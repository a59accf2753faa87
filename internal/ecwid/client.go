package ecwid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://app.ecwid.com/api/v3"

type Client struct {
	baseURL      string
	storeID      string
	token        string
	client       *http.Client
	apiCallCount int64
	apiCallMutex sync.Mutex
}

// APIError is returned for any non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

func NewClient(baseURL, storeID, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		storeID: storeID,
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

func (c *Client) ordersURL(p ListParams) string {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(p.Offset))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.CreatedFrom != "" {
		q.Set("createdFrom", p.CreatedFrom)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	return fmt.Sprintf("%s/%s/orders?%s", c.baseURL, url.PathEscape(c.storeID), q.Encode())
}

// ListOrders fetches a single page of orders.
func (c *Client) ListOrders(ctx context.Context, p ListParams) (*OrdersPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ordersURL(p), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	c.IncrementAPICall()

	log.Debug().
		Int("offset", p.Offset).
		Int("limit", p.Limit).
		Str("created_from", p.CreatedFrom).
		Str("sort_by", p.SortBy).
		Msg("Requesting orders page")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var page OrdersPage
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	log.Debug().
		Int("offset", p.Offset).
		Int("items", len(page.Items)).
		Int("total", page.Total).
		Msg("Received orders page")

	return &page, nil
}
