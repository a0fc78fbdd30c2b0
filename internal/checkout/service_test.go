package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/config"
	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(providerURL string) *Service {
	return NewService(config.PaymentConfig{
		ProviderURL: providerURL,
		SiteURL:     "http://shop.example",
		Timeout:     time.Second,
	}, nil)
}

func inStockItem(id string, price float64, qty int) models.CartLineItem {
	return models.CartLineItem{
		ID:       id,
		Name:     "Bike " + id,
		Price:    price,
		Quantity: qty,
		Section:  models.SectionInStock,
	}
}

func TestEligibleLineItemsFiltersSections(t *testing.T) {
	items := []models.CartLineItem{
		inStockItem("v1", 1000, 1),
		{ID: "v2", Name: "Bike v2", Price: 500, Quantity: 1, Section: models.SectionReadyToOrder},
	}

	lineItems, eventItems, total, err := eligibleLineItems(items)

	require.NoError(t, err)
	require.Len(t, lineItems, 1)
	assert.Equal(t, "Bike v1", lineItems[0].Name)
	assert.Equal(t, int64(100000), lineItems[0].UnitAmount)
	assert.Equal(t, int64(100000), total)
	require.Len(t, eventItems, 1)
	assert.Equal(t, "v1", eventItems[0].ID)
}

func TestEligibleLineItemsNoneEligible(t *testing.T) {
	items := []models.CartLineItem{
		{ID: "v2", Name: "Bike", Price: 500, Quantity: 1, Section: models.SectionReadyToOrder},
	}

	_, _, _, err := eligibleLineItems(items)
	assert.ErrorIs(t, err, ErrNoEligibleItems)
}

func TestEligibleLineItemsInvalidPrice(t *testing.T) {
	_, _, _, err := eligibleLineItems([]models.CartLineItem{inStockItem("v1", 0, 1)})

	var priceErr *InvalidPriceError
	require.ErrorAs(t, err, &priceErr)
	assert.Equal(t, "v1", priceErr.ItemID)
}

func TestEligibleLineItemsFloorsQuantity(t *testing.T) {
	lineItems, _, total, err := eligibleLineItems([]models.CartLineItem{inStockItem("v1", 10, 0)})

	require.NoError(t, err)
	assert.Equal(t, 1, lineItems[0].Quantity)
	assert.Equal(t, int64(1000), total)
}

func TestEligibleLineItemsVariantName(t *testing.T) {
	item := inStockItem("v1-9", 10, 1)
	variantID := int64(9)
	item.VariantID = &variantID
	item.VariantName = "Blue"

	lineItems, _, _, err := eligibleLineItems([]models.CartLineItem{item})

	require.NoError(t, err)
	assert.Equal(t, "Bike v1-9 (Blue)", lineItems[0].Name)
	assert.Equal(t, "Blue", lineItems[0].Metadata["variant_name"])
	assert.Equal(t, "9", lineItems[0].Metadata["variant_id"])
}

func TestCreateSessionSuccess(t *testing.T) {
	var received providerRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(providerResponse{SessionID: "cs_123", URL: "https://pay.example/cs_123"})
	}))
	defer server.Close()

	svc := testService(server.URL)
	session, err := svc.CreateSession(context.Background(), "session-1",
		[]models.CartLineItem{inStockItem("v1", 1000, 2)})

	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://pay.example/cs_123", session.URL)

	assert.Equal(t, "payment", received.Mode)
	assert.Equal(t, "http://shop.example/shop?section=in-stock&checkout=success", received.SuccessURL)
	assert.Equal(t, "http://shop.example/shop?section=in-stock&checkout=cancelled", received.CancelURL)
	require.Len(t, received.LineItems, 1)
	assert.Equal(t, 2, received.LineItems[0].Quantity)
}

func TestCreateSessionProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(providerResponse{Error: "provider exploded"})
	}))
	defer server.Close()

	svc := testService(server.URL)
	session, err := svc.CreateSession(context.Background(), "session-1",
		[]models.CartLineItem{inStockItem("v1", 1000, 1)})

	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "provider exploded")
}

func TestCreateSessionNoRedirectURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(providerResponse{SessionID: "cs_123"})
	}))
	defer server.Close()

	svc := testService(server.URL)
	_, err := svc.CreateSession(context.Background(), "session-1",
		[]models.CartLineItem{inStockItem("v1", 1000, 1)})

	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestCreateSessionUnreachableProvider(t *testing.T) {
	svc := testService("http://127.0.0.1:1")

	_, err := svc.CreateSession(context.Background(), "session-1",
		[]models.CartLineItem{inStockItem("v1", 1000, 1)})

	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
