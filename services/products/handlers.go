package products

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mostafa20220/mini-erp/services/common"
)

// UseCaseInterface is what the handlers need from the use case.
type UseCaseInterface interface {
	CreateProduct(ctx context.Context, input CreateProductInput, actor *int64) (*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, filter Filter) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, patch Patch, actor *int64) (*Product, error)
	DeleteProduct(ctx context.Context, id int64, actor *int64) error
	AdjustStock(ctx context.Context, productID int64, adj StockAdjustment, actor *int64) (*StockChangeLog, error)
	ListStockLogs(ctx context.Context, filter LogFilter) ([]StockChangeLog, error)
}

type Handler struct {
	useCase UseCaseInterface
}

func NewHandler(useCase UseCaseInterface) *Handler {
	return &Handler{useCase: useCase}
}

type createProductRequest struct {
	SKU          string          `json:"sku" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Category     string          `json:"category" binding:"required"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	StockQty     int             `json:"stock_qty" binding:"gte=0"`
}

type adjustStockRequest struct {
	Operation  string `json:"operation" binding:"required,oneof=increase decrease set"`
	Quantity   int    `json:"quantity" binding:"gte=0"`
	Reason     string `json:"reason" binding:"required"`
	CustomerID *int64 `json:"customer_id"`
}

// productResponse adds the derived fields the read side exposes.
type productResponse struct {
	*Product
	StockStatus  string          `json:"stock_status"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
}

func toResponse(p *Product) productResponse {
	return productResponse{
		Product:      p,
		StockStatus:  p.StockStatus(),
		ProfitMargin: p.ProfitMargin(),
	}
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.useCase.CreateProduct(c.Request.Context(), CreateProductInput{
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		StockQty:     req.StockQty,
	}, common.ActorID(c))
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(product))
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.useCase.GetProduct(c.Request.Context(), id)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(product))
}

func (h *Handler) ListProducts(c *gin.Context) {
	filter := Filter{
		Category:    c.Query("category"),
		StockStatus: c.Query("stock_status"),
	}
	if raw := c.Query("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_price"})
			return
		}
		filter.MinPrice = &price
	}
	if raw := c.Query("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_price"})
			return
		}
		filter.MaxPrice = &price
	}

	result, err := h.useCase.ListProducts(c.Request.Context(), filter)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	responses := make([]productResponse, 0, len(result))
	for i := range result {
		responses = append(responses, toResponse(&result[i]))
	}
	c.JSON(http.StatusOK, gin.H{"products": responses})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.useCase.UpdateProduct(c.Request.Context(), id, patch, common.ActorID(c))
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponse(product))
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := h.useCase.DeleteProduct(c.Request.Context(), id, common.ActorID(c)); err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) AdjustStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.useCase.AdjustStock(c.Request.Context(), id, StockAdjustment{
		Operation:  req.Operation,
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		CustomerID: req.CustomerID,
	}, common.ActorID(c))
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	if entry == nil {
		// set to the current quantity, nothing changed
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) ListStockLogs(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	filter := LogFilter{ProductID: &id}
	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
			return
		}
		filter.CustomerID = &customerID
	}

	logs, err := h.useCase.ListStockLogs(c.Request.Context(), filter)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stock_logs": logs})
}
