// Package storeapi serves the bill store JSON API over any store.Store.
// It backs the development store binary and the client tests.
package storeapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"milkbill/internal/core"
	"milkbill/internal/store"
)

// BasePath is where the bill collection is mounted.
const BasePath = "/api/bills"

type billRequest struct {
	Name        string   `json:"Name" binding:"required,min=3"`
	Mobile      string   `json:"Mobile" binding:"required,len=10,number"`
	Date        string   `json:"Date" binding:"required"`
	Morning     *float64 `json:"Morning" binding:"required,gte=0"`
	Evening     *float64 `json:"Evening" binding:"required,gte=0"`
	Rate        *float64 `json:"Rate" binding:"required,gt=0"`
	TotalLiters float64  `json:"TotalLiters"`
	TotalAmount float64  `json:"TotalAmount"`
}

type handler struct {
	store store.Store
}

// NewRouter wires the store routes onto a fresh gin engine.
func NewRouter(s store.Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &handler{store: s}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	bills := r.Group(BasePath)
	bills.GET("", h.list)
	bills.GET("/search", h.search)
	bills.POST("", h.create)
	bills.DELETE("/:id", h.delete)
	return r
}

func (h *handler) list(c *gin.Context) {
	bills, err := h.store.List(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "List bills failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bills"})
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (h *handler) search(c *gin.Context) {
	bills, err := h.store.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Search bills failed", "error", err, "query", c.Query("query"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search bills"})
		return
	}
	c.JSON(http.StatusOK, bills)
}

func (h *handler) create(c *gin.Context) {
	var req billRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Date"})
		return
	}

	created, err := h.store.Create(c.Request.Context(), core.Bill{
		Name:        strings.TrimSpace(req.Name),
		Mobile:      req.Mobile,
		Date:        date,
		Morning:     *req.Morning,
		Evening:     *req.Evening,
		Rate:        *req.Rate,
		TotalLiters: req.TotalLiters,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "Create bill failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save bill"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handler) delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		slog.ErrorContext(c.Request.Context(), "Delete bill failed", "error", err, "bill_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete bill"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted"})
}

// bindingMessage names the offending fields instead of echoing validator internals.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "Invalid " + strings.Join(fields, ", ")
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "Store request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}
