package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hat-store/internal/models"
	"hat-store/internal/services/remote"
	"hat-store/internal/services/trading"
	"hat-store/internal/store"
)

type APIHandler struct {
	store          *store.Store
	tradingService *trading.Service
	remoteCache    *remote.Cache
}

func SetupRoutes(r *gin.Engine, s *store.Store, tradingService *trading.Service, remoteCache *remote.Cache) {
	handler := &APIHandler{
		store:          s,
		tradingService: tradingService,
		remoteCache:    remoteCache,
	}

	api := r.Group("/api")
	{
		api.GET("/hats", handler.GetHats)
		api.POST("/hats/buy", handler.BuyHat)
		api.POST("/hats/sell", handler.SellHat)
		api.GET("/products", handler.GetProducts)
		api.GET("/partner/hats", handler.GetPartnerHats)
		api.POST("/buy/:id", handler.PartnerBuy)
		api.GET("/transactions", handler.GetTransactions)
	}

	r.POST("/webhook/:partner", handler.Webhook)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// GetHats lists the local catalog with the current balance.
func (h *APIHandler) GetHats(c *gin.Context) {
	hats := h.store.List()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    hats,
		"total":   len(hats),
		"funds":   h.store.Funds(),
	})
}

// BuyHat sells units of a local hat to the caller.
func (h *APIHandler) BuyHat(c *gin.Context) {
	var request struct {
		HatID    models.FlexID `json:"hatId"`
		Quantity *int          `json:"quantity"`
		Buyer    string        `json:"buyer"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if request.HatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "hatId is required"})
		return
	}

	quantity := 1
	if request.Quantity != nil {
		quantity = *request.Quantity
	}
	if quantity <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "quantity must be positive"})
		return
	}

	result, err := h.tradingService.Buy(request.HatID.String(), quantity, request.Buyer)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "hat not found"})
		return
	case errors.Is(err, store.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "insufficient stock",
			"available": result.Hat.Stock(),
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	data := gin.H{
		"hat":        result.Hat.Name,
		"quantity":   result.Quantity,
		"totalPrice": result.TotalPrice,
	}
	if result.Removed {
		data["image"] = result.Hat.Image
	} else {
		data["remainingStock"] = result.Remaining
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "purchase completed",
		"data":    data,
	})
}

// SellHat accepts a hat offered to this store.
func (h *APIHandler) SellHat(c *gin.Context) {
	var request struct {
		Name  string `json:"name"`
		Price *int   `json:"price"`
		Image string `json:"image"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if request.Name == "" || request.Price == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name and price are required"})
		return
	}
	if *request.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "price must be non-negative"})
		return
	}

	id, hat, err := h.tradingService.Sell(request.Name, *request.Price, request.Image)
	switch {
	case errors.Is(err, store.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":       false,
			"error":         "insufficient funds",
			"currentFunds":  h.store.Funds(),
			"requiredFunds": *request.Price,
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "hat acquired",
		"data":    gin.H{"id": id, "hat": hat},
	})
}

// GetProducts serves the id-keyed catalog map the partner's sync
// poller consumes.
func (h *APIHandler) GetProducts(c *gin.Context) {
	products, _ := h.store.Snapshot()
	c.JSON(http.StatusOK, products)
}

// GetPartnerHats serves the cached view of the partner's catalog so
// observers can render cross-store listings without a live
// round-trip. The view is only as fresh as the last successful poll.
func (h *APIHandler) GetPartnerHats(c *gin.Context) {
	items := h.remoteCache.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"total":   len(items),
	})
}

// PartnerBuy handles the counterpart's purchase of a local listing.
func (h *APIHandler) PartnerBuy(c *gin.Context) {
	id := c.Param("id")

	hat, err := h.tradingService.PartnerBuy(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "item not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, hat)
}

// Webhook applies a partner-pushed event. Delivery always succeeds,
// even when the referenced item is unknown.
func (h *APIHandler) Webhook(c *gin.Context) {
	var event models.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.tradingService.HandleWebhook(event, c.Param("partner"))

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"receivedEvent": event.Type,
	})
}

// GetTransactions lists the audit log, newest first.
func (h *APIHandler) GetTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	transactions, err := h.tradingService.Transactions(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    transactions,
		"total":   len(transactions),
	})
}
