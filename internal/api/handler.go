package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/checkout"
	"storefront-service/internal/models"
	"storefront-service/internal/shopquery"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	registry *cart.Registry
	catalog  *catalog.Store
	checkout *checkout.Service
}

// NewHandler creates a new HTTP handler
func NewHandler(registry *cart.Registry, catalogStore *catalog.Store, checkoutService *checkout.Service) *Handler {
	return &Handler{
		registry: registry,
		catalog:  catalogStore,
		checkout: checkoutService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/cart/:session", h.getCart)
		v1.POST("/cart/:session/items", h.addToCart)
		v1.DELETE("/cart/:session/items", h.clearCart)
		v1.DELETE("/cart/:session/items/:id", h.removeFromCart)
		v1.PUT("/cart/:session/items/:id/quantity", h.updateQuantity)

		v1.POST("/favorites/:session", h.addToFavorites)
		v1.DELETE("/favorites/:session/:id", h.removeFromFavorites)

		v1.GET("/notifications/:session", h.listNotifications)
		v1.DELETE("/notifications/:session/:id", h.dismissNotification)

		v1.GET("/shop", h.shopListing)
		v1.GET("/shop/popular", h.popularBikes)
		v1.GET("/bikes/:section/:id", h.bikeDetail)

		v1.POST("/checkout/:session", h.createCheckout)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// cartResponse is the cart state plus its derived aggregates.
func cartResponse(state models.CartState) gin.H {
	return gin.H{
		"items":       state.Items,
		"favorites":   state.Favorites,
		"total_items": state.TotalItems(),
		"total_price": state.TotalPrice(),
	}
}

// getCart returns the session's full state and totals
func (h *Handler) getCart(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	c.JSON(http.StatusOK, cartResponse(store.State()))
}

// AddItemRequest is the add-to-cart payload. Quantity is implicit: adds
// always merge one unit.
type AddItemRequest struct {
	ID          string         `json:"id" binding:"required"`
	Name        string         `json:"name" binding:"required"`
	Brand       string         `json:"brand"`
	Price       float64        `json:"price" binding:"min=0"`
	Image       string         `json:"image"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Section     models.Section `json:"section"`
	VariantID   *int64         `json:"variant_id"`
	VariantName string         `json:"variant_name"`
}

// addToCart handles add-to-cart intents
func (h *Handler) addToCart(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	store.Dispatch(c.Request.Context(), cart.AddToCart{Item: models.CartLineItem{
		ID:          req.ID,
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Description: req.Description,
		Section:     req.Section,
		VariantID:   req.VariantID,
		VariantName: req.VariantName,
	}})

	c.JSON(http.StatusOK, cartResponse(store.State()))
}

// removeFromCart handles line item removal
func (h *Handler) removeFromCart(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	store.Dispatch(c.Request.Context(), cart.RemoveFromCart{ID: c.Param("id")})
	c.JSON(http.StatusOK, cartResponse(store.State()))
}

// UpdateQuantityRequest carries the new quantity. Zero or less removes
// the line, so the field is a pointer to keep zero distinguishable from
// absent.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// updateQuantity handles quantity changes
func (h *Handler) updateQuantity(c *gin.Context) {
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	store.Dispatch(c.Request.Context(), cart.UpdateQuantity{ID: c.Param("id"), Quantity: *req.Quantity})
	c.JSON(http.StatusOK, cartResponse(store.State()))
}

// clearCart empties the session's cart
func (h *Handler) clearCart(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	store.Dispatch(c.Request.Context(), cart.ClearCart{})
	c.JSON(http.StatusOK, cartResponse(store.State()))
}

// FavoriteRequest is the add-to-favorites payload.
type FavoriteRequest struct {
	ID          string  `json:"id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price" binding:"min=0"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

// addToFavorites handles favoriting
func (h *Handler) addToFavorites(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	store.Dispatch(c.Request.Context(), cart.AddToFavorites{Item: models.FavoriteItem{
		ID:          req.ID,
		Name:        req.Name,
		Brand:       req.Brand,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		Description: req.Description,
	}})

	c.JSON(http.StatusOK, cartResponse(store.State()))
}

// removeFromFavorites handles unfavoriting
func (h *Handler) removeFromFavorites(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	store.Dispatch(c.Request.Context(), cart.RemoveFromFavorites{ID: c.Param("id")})
	c.JSON(http.StatusOK, cartResponse(store.State()))
}

// listNotifications returns the session's active notifications
func (h *Handler) listNotifications(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	c.JSON(http.StatusOK, gin.H{
		"notifications": store.Notifier().Active(),
	})
}

// dismissNotification dismisses one notification by id
func (h *Handler) dismissNotification(c *gin.Context) {
	store := h.registry.Get(c.Request.Context(), c.Param("session"))
	store.Notifier().Dismiss(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"notifications": store.Notifier().Active(),
	})
}

// shopListing resolves the query-string filter state and returns the
// active section's page plus its facets and the canonical query string.
func (h *Handler) shopListing(c *gin.Context) {
	state := shopquery.ParseQueryState(c.Request.URL.Query())
	ctx := c.Request.Context()

	var (
		listing    interface{}
		filters    shopquery.SectionFilters
		categories []string
		err        error
	)

	start := time.Now()
	if state.Section == models.SectionReadyToOrder {
		filters = state.Ready
		listing, err = h.catalog.ListReadyBikes(ctx, filters)
		if err == nil {
			categories, err = h.catalog.ReadyCategories(ctx)
		}
	} else {
		filters = state.Stock
		listing, err = h.catalog.ListStockBikes(ctx, filters)
		if err == nil {
			categories, err = h.catalog.StockCategories(ctx)
		}
	}
	util.CatalogQueryLatency.WithLabelValues("shop_listing").Observe(time.Since(start).Seconds())

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load shop listing",
			"details": err.Error(),
		})
		return
	}

	var subcategories []string
	if state.Section == models.SectionReadyToOrder {
		subcategories, err = h.catalog.ReadySubcategories(ctx, filters.Category)
	} else {
		subcategories, err = h.catalog.StockSubcategories(ctx, filters.Category)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load shop facets",
			"details": err.Error(),
		})
		return
	}

	canonical := shopquery.BuildSearchParams(state, state.Section, shopquery.Overrides{})

	c.JSON(http.StatusOK, gin.H{
		"section":       state.Section,
		"filters":       filters,
		"listing":       listing,
		"categories":    categories,
		"subcategories": subcategories,
		"query":         canonical.Encode(),
	})
}

// popularBikes returns the in-stock bikes flagged popular
func (h *Handler) popularBikes(c *gin.Context) {
	start := time.Now()
	bikes, err := h.catalog.PopularStockBikes(c.Request.Context())
	util.CatalogQueryLatency.WithLabelValues("popular_bikes").Observe(time.Since(start).Seconds())

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load popular bikes",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bikes": bikes})
}

// bikeDetail returns one bike by section and id
func (h *Handler) bikeDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid bike ID",
		})
		return
	}

	section := models.Section(c.Param("section"))
	if section != models.SectionInStock && section != models.SectionReadyToOrder {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown section",
		})
		return
	}

	var bike interface{}
	if section == models.SectionReadyToOrder {
		bike, err = h.catalog.GetReadyBike(c.Request.Context(), id)
	} else {
		bike, err = h.catalog.GetStockBike(c.Request.Context(), id)
	}

	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Bike not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load bike",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bike": bike})
}

// createCheckout hands the session's in-stock items to the payment
// provider. The cart is left unchanged so a failed handoff can be
// retried.
func (h *Handler) createCheckout(c *gin.Context) {
	sessionID := c.Param("session")
	store := h.registry.Get(c.Request.Context(), sessionID)

	session, err := h.checkout.CreateSession(c.Request.Context(), sessionID, store.State().Items)
	if err != nil {
		var priceErr *checkout.InvalidPriceError
		switch {
		case errors.Is(err, checkout.ErrNoEligibleItems):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Only in-stock items can be purchased online",
			})
		case errors.As(err, &priceErr):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": priceErr.Error(),
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "Unable to create checkout session",
				"details": err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, session)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
