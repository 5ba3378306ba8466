package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"card-tracker/internal/models"
	"card-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// DailyValueReader is the read-only query surface over the reconciled
// series.
type DailyValueReader interface {
	Latest(ctx context.Context, itemID, currency string) (*models.DailyValue, error)
	OnDay(ctx context.Context, itemID, currency string, day time.Time) (*models.DailyValue, error)
}

type APIHandler struct {
	values          DailyValueReader
	valuer          *services.Valuer
	defaultCurrency string
}

func SetupRoutes(r *gin.RouterGroup, values DailyValueReader, valuer *services.Valuer, defaultCurrency string) *APIHandler {
	handler := &APIHandler{
		values:          values,
		valuer:          valuer,
		defaultCurrency: defaultCurrency,
	}

	items := r.Group("/items")
	{
		items.GET("/:id/value", handler.GetLatestValue)
	}
	valuations := r.Group("/valuations")
	{
		valuations.POST("", handler.ValuateHoldings)
		valuations.GET("/owners/:id", handler.ValuateOwner)
	}

	return handler
}

// GetLatestValue returns the most recent reconciled value for an item, or
// an explicit no-data indicator. An optional date parameter pins the lookup
// to one materialized day (insurance and tax exports want historical
// points, not the latest).
func (h *APIHandler) GetLatestValue(c *gin.Context) {
	itemID := c.Param("id")
	currency := c.DefaultQuery("currency", h.defaultCurrency)
	grade := c.Query("grade")

	var row *models.DailyValue
	var err error
	if date := c.Query("date"); date != "" {
		day, perr := time.Parse("2006-01-02", date)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		row, err = h.values.OnDay(c.Request.Context(), itemID, currency, day)
	} else {
		row, err = h.values.Latest(c.Request.Context(), itemID, currency)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query daily value"})
		return
	}
	if row == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"status":   "no_data",
			"item_id":  itemID,
			"currency": currency,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"grade":       grade,
		"daily_value": row,
	})
}

type valuateRequest struct {
	Currency string `json:"currency"`
	Holdings []struct {
		ItemID         string `json:"item_id" binding:"required"`
		Quantity       int    `json:"quantity"`
		CostBasisCents int64  `json:"cost_basis_cents"`
		Currency       string `json:"currency"`
		Name           string `json:"name"`
		Grade          string `json:"grade"`
	} `json:"holdings" binding:"required"`
}

// ValuateHoldings is the batch query surface: an ad-hoc holdings set in,
// per-holding and portfolio results out.
func (h *APIHandler) ValuateHoldings(c *gin.Context) {
	var req valuateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.defaultCurrency
	}

	items := make([]models.CollectionItem, 0, len(req.Holdings))
	for _, hd := range req.Holdings {
		qty := hd.Quantity
		if qty < 1 {
			qty = 1
		}
		items = append(items, models.CollectionItem{
			ItemID:         hd.ItemID,
			Quantity:       qty,
			CostBasisCents: hd.CostBasisCents,
			Currency:       hd.Currency,
			Name:           hd.Name,
			Grade:          hd.Grade,
		})
	}

	result, err := h.valuer.ValuateHoldings(c.Request.Context(), items, currency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "valuation failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ValuateOwner values everything one owner holds.
func (h *APIHandler) ValuateOwner(c *gin.Context) {
	ownerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner id"})
		return
	}
	currency := c.DefaultQuery("currency", h.defaultCurrency)

	result, err := h.valuer.Valuate(c.Request.Context(), uint(ownerID), currency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "valuation failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
