// Package notifications posts run summaries to an ntfy topic.
package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecwid_order_sync/internal/retry"

	"github.com/rs/zerolog/log"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	priority   string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Summary describes the outcome of a sync run.
type Summary struct {
	RowsAppended int
	OrdersTable  string
	FirstOrder   int64
	LastOrder    int64
	Mode         string
}

type NotificationError struct {
	Type       string
	StatusCode int
	Attempt    int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed [%s] attempt %d: %v", e.Type, e.Attempt, e.Underlying)
}

func (e *NotificationError) Unwrap() error { return e.Underlying }

func (e *NotificationError) IsRetryable() bool {
	switch e.Type {
	case "network", "server", "timeout", "rate_limit":
		return true
	case "auth", "client":
		return false
	default:
		return e.StatusCode >= 500
	}
}

func NewClient(baseURL, topic string, enabled bool) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		topic:      topic,
		enabled:    enabled,
		maxRetries: 2,
		baseDelay:  500 * time.Millisecond,
		maxDelay:   5 * time.Second,
	}
}

// WithRetryPolicy overrides the retry budget.
func (c *Client) WithRetryPolicy(maxRetries int, baseDelay, maxDelay time.Duration) *Client {
	c.maxRetries = maxRetries
	c.baseDelay = baseDelay
	c.maxDelay = maxDelay
	return c
}

// WithPriority sets the ntfy Priority header.
func (c *Client) WithPriority(priority string) *Client {
	c.priority = priority
	return c
}

func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

func (c *Client) SendNotification(ctx context.Context, message string) error {
	if !c.Enabled() {
		log.Debug().Msg("Notifications disabled, skipping")
		return nil
	}

	attempt := 0
	_, err := retry.WithRetry(ctx, c.retryConfig(), func(ctx context.Context) (struct{}, error) {
		attempt++
		err := c.sendSingleNotification(ctx, message, attempt)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", c.maxRetries).
				Msg("Notification attempt failed")
		}
		return struct{}{}, err
	})
	if err == nil {
		return nil
	}

	var notifErr *NotificationError
	if errors.As(err, &notifErr) && notifErr.IsRetryable() {
		return &NotificationError{
			Type:       "max_retries_exceeded",
			Attempt:    attempt,
			Underlying: err,
		}
	}
	return err
}

func (c *Client) retryConfig() retry.Config {
	return retry.Config{
		MaxRetries: c.maxRetries,
		BaseDelay:  c.baseDelay,
		MaxDelay:   c.maxDelay,
		Retryable:  isRetryable,
	}
}

// isRetryable retries transport failures and retryable HTTP statuses.
func isRetryable(err error) bool {
	var notifErr *NotificationError
	if errors.As(err, &notifErr) {
		return notifErr.IsRetryable()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) sendSingleNotification(ctx context.Context, message string, attempt int) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Type: "client", Attempt: attempt, Underlying: err}
	}

	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Title", "Ecwid order sync")
	if c.priority != "" {
		req.Header.Set("Priority", c.priority)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Type: "network", Attempt: attempt, Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			Type:       categorizeHTTPError(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Attempt:    attempt,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Int("attempt", attempt).
		Msg("Notification sent successfully")

	return nil
}

// NotifySyncResult posts a summary when rows were appended. Failures are logged
// and never returned to the caller.
func (c *Client) NotifySyncResult(ctx context.Context, s Summary) {
	if !c.Enabled() {
		return
	}
	if s.RowsAppended == 0 {
		log.Debug().Msg("No new rows to notify about")
		return
	}

	if err := c.SendNotification(ctx, FormatSummary(s)); err != nil {
		log.Warn().Err(err).Msg("Failed to send sync notification")
		return
	}
	log.Info().Int("rows", s.RowsAppended).Msg("Sent sync notification")
}

// FormatSummary renders the notification body.
func FormatSummary(s Summary) string {
	var sb strings.Builder
	if s.RowsAppended == 1 {
		sb.WriteString(fmt.Sprintf("1 new row added to '%s'", s.OrdersTable))
	} else {
		sb.WriteString(fmt.Sprintf("%d new rows added to '%s'", s.RowsAppended, s.OrdersTable))
	}
	if s.FirstOrder > 0 && s.LastOrder > 0 {
		if s.FirstOrder == s.LastOrder {
			sb.WriteString(fmt.Sprintf("\nOrder #%d", s.FirstOrder))
		} else {
			sb.WriteString(fmt.Sprintf("\nOrders #%d to #%d", s.FirstOrder, s.LastOrder))
		}
	}
	if s.Mode != "" {
		sb.WriteString(fmt.Sprintf("\nMode: %s", s.Mode))
	}
	return sb.String()
}

func categorizeHTTPError(statusCode int) string {
	switch {
	case statusCode == 401 || statusCode == 403:
		return "auth"
	case statusCode == 429:
		return "rate_limit"
	case statusCode >= 400 && statusCode < 500:
		return "client"
	case statusCode >= 500:
		return "server"
	default:
		return "unknown"
	}
}
