package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/drobyshev/leadmart/internal/domain/model"
)

// ErrRejected indicates the receiving endpoint refused the lead payload.
var ErrRejected = errors.New("delivery rejected")

// TooManyRequestsError represents rate limiting signal from the webhook.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client exposes operations to hand a purchased lead to its buyer.
type Client interface {
	Send(ctx context.Context, lead *model.Lead, buyerID int64) error
}

// HTTPClient implements Client via a webhook POST.
type HTTPClient struct {
	endpoint   *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// payload mirrors the JSON body pushed to the webhook. Timestamps are
// string-encoded for transport.
type payload struct {
	BuyerID        int64    `json:"buyer_id"`
	LeadID         string   `json:"lead_id"`
	Category       string   `json:"category"`
	Equipment      []string `json:"equipment,omitempty"`
	RentalDuration string   `json:"rental_duration,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	Budget         string   `json:"budget,omitempty"`
	Address        string   `json:"address,omitempty"`
	City           string   `json:"city,omitempty"`
	Region         string   `json:"region,omitempty"`
	PostalCode     string   `json:"postal_code,omitempty"`
	ContactName    string   `json:"contact_name"`
	ContactPhone   string   `json:"contact_phone,omitempty"`
	ContactEmail   string   `json:"contact_email,omitempty"`
	Details        string   `json:"details,omitempty"`
	PurchasedAt    string   `json:"purchased_at"`
	CreatedAt      string   `json:"created_at"`
}

// NewHTTPClient creates HTTP delivery client with default timeout.
func NewHTTPClient(endpoint string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse delivery url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("delivery url must be absolute")
	}
	return &HTTPClient{
		endpoint: parsed,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Send pushes the purchased lead to the configured webhook.
func (c *HTTPClient) Send(ctx context.Context, lead *model.Lead, buyerID int64) error {
	body, err := json.Marshal(toPayload(lead, buyerID))
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return TooManyRequestsError{RetryAfter: retryAfter}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("delivery request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(respBody)))
		return fmt.Errorf("delivery error: %s", resp.Status)
	}
}

func toPayload(lead *model.Lead, buyerID int64) payload {
	p := payload{
		BuyerID:        buyerID,
		LeadID:         lead.ID,
		Category:       lead.Category,
		Equipment:      lead.Equipment,
		RentalDuration: lead.RentalDuration,
		StartDate:      lead.StartDate,
		Budget:         lead.Budget,
		Address:        lead.Address,
		City:           lead.City,
		Region:         lead.Region,
		PostalCode:     lead.PostalCode,
		ContactName:    lead.ContactName,
		ContactPhone:   lead.ContactPhone,
		ContactEmail:   lead.ContactEmail,
		Details:        lead.Details,
		CreatedAt:      lead.CreatedAt.UTC().Format(time.RFC3339),
	}
	if at, ok := lead.PurchaseDates[buyerID]; ok {
		p.PurchasedAt = at.UTC().Format(time.RFC3339)
	}
	return p
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
