// Package checkout hands the cart's purchasable items off to the
// external payment provider. The provider is an opaque HTTP endpoint:
// one request, one response carrying a redirect URL or an error. The
// cart itself is never mutated here, so a failed handoff can simply be
// retried.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"storefront-service/config"
	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNoEligibleItems means the cart holds no in-stock items; only
	// immediately-available inventory can be purchased online.
	ErrNoEligibleItems = errors.New("no in-stock items to purchase")

	// ErrProviderUnavailable means the provider rejected the request or
	// returned no usable redirect.
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// InvalidPriceError reports a line item whose price converts to zero or
// negative cents.
type InvalidPriceError struct {
	ItemID string
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price for item %s", e.ItemID)
}

// Session is the created payment session: where to send the shopper.
type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// Service creates payment sessions with the external provider.
type Service struct {
	client      *http.Client
	providerURL string
	siteURL     string
	publisher   *broker.EventPublisher
	logger      *zap.Logger
}

// NewService creates a new checkout service
func NewService(cfg config.PaymentConfig, publisher *broker.EventPublisher) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		client:      &http.Client{Timeout: timeout},
		providerURL: cfg.ProviderURL,
		siteURL:     cfg.SiteURL,
		publisher:   publisher,
		logger:      util.GetLogger(),
	}
}

type providerLineItem struct {
	Name       string            `json:"name"`
	Currency   string            `json:"currency"`
	UnitAmount int64             `json:"unit_amount"`
	Quantity   int               `json:"quantity"`
	Image      string            `json:"image,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type providerRequest struct {
	Mode                string             `json:"mode"`
	LineItems           []providerLineItem `json:"line_items"`
	SuccessURL          string             `json:"success_url"`
	CancelURL           string             `json:"cancel_url"`
	AllowPromotionCodes bool               `json:"allow_promotion_codes"`
}

type providerResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	Error     string `json:"error"`
}

// eligibleLineItems filters and converts cart items for the provider:
// in-stock only, quantities floored to at least 1, prices in cents.
func eligibleLineItems(items []models.CartLineItem) ([]providerLineItem, []models.CheckoutItemData, int64, error) {
	lineItems := []providerLineItem{}
	eventItems := []models.CheckoutItemData{}
	var totalCents int64

	for _, item := range items {
		if models.NormalizeSection(item.Section) != models.SectionInStock {
			continue
		}

		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}

		unitCents := int64(math.Round(item.Price * 100))
		if unitCents <= 0 {
			return nil, nil, 0, &InvalidPriceError{ItemID: item.ID}
		}

		metadata := map[string]string{
			"id":      item.ID,
			"section": string(models.SectionInStock),
		}
		if item.VariantName != "" {
			metadata["variant_name"] = item.VariantName
		}
		if item.VariantID != nil {
			metadata["variant_id"] = fmt.Sprintf("%d", *item.VariantID)
		}

		lineItems = append(lineItems, providerLineItem{
			Name:       item.DisplayName(),
			Currency:   "eur",
			UnitAmount: unitCents,
			Quantity:   quantity,
			Image:      item.Image,
			Metadata:   metadata,
		})
		eventItems = append(eventItems, models.CheckoutItemData{
			ID:          item.ID,
			Name:        item.Name,
			Quantity:    quantity,
			UnitCents:   unitCents,
			VariantID:   item.VariantID,
			VariantName: item.VariantName,
		})
		totalCents += unitCents * int64(quantity)
	}

	if len(lineItems) == 0 {
		return nil, nil, 0, ErrNoEligibleItems
	}
	return lineItems, eventItems, totalCents, nil
}

// CreateSession submits the cart's in-stock line items to the payment
// provider and returns the redirect. The caller's cart state is left
// untouched either way.
func (s *Service) CreateSession(ctx context.Context, cartSessionID string, items []models.CartLineItem) (*Session, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CreateSession")
	defer span.End()

	util.CheckoutAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	lineItems, eventItems, totalCents, err := eligibleLineItems(items)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("ineligible").Inc()
		return nil, err
	}

	reqBody := providerRequest{
		Mode:                "payment",
		LineItems:           lineItems,
		SuccessURL:          s.siteURL + "/shop?section=in-stock&checkout=success",
		CancelURL:           s.siteURL + "/shop?section=in-stock&checkout=cancelled",
		AllowPromotionCodes: true,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.providerURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		util.CheckoutFailedTotal.WithLabelValues("transport").Inc()
		s.logger.Error("Payment provider request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	var parsed providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		util.CheckoutFailedTotal.WithLabelValues("bad_response").Inc()
		return nil, fmt.Errorf("%w: unreadable response", ErrProviderUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed.URL == "" {
		util.CheckoutFailedTotal.WithLabelValues("provider_error").Inc()
		s.logger.Warn("Payment provider declined checkout",
			zap.Int("status", resp.StatusCode),
			zap.String("provider_error", parsed.Error))
		if parsed.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, parsed.Error)
		}
		return nil, ErrProviderUnavailable
	}

	util.CheckoutSuccessTotal.Inc()
	s.logger.Info("Checkout session created",
		zap.String("cart_session", cartSessionID),
		zap.String("checkout_id", parsed.SessionID),
		zap.Int64("amount_cents", totalCents))

	if s.publisher != nil {
		event := &models.CheckoutCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeCheckoutCreated,
				Timestamp: time.Now(),
			},
			SessionID:   cartSessionID,
			CheckoutID:  parsed.SessionID,
			AmountCents: totalCents,
			Items:       eventItems,
		}
		if err := s.publisher.PublishCheckoutCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish CheckoutCreated event", zap.Error(err))
		}
	}

	return &Session{ID: parsed.SessionID, URL: parsed.URL}, nil
}
