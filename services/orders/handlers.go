package orders

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mostafa20220/mini-erp/services/common"
)

// UseCaseInterface is what the handlers need from the use case.
type UseCaseInterface interface {
	CreateOrder(ctx context.Context, customerID int64, items []LineItem, actor *int64) (*Order, error)
	ChangeStatus(ctx context.Context, orderID int64, newStatus string, actor *int64) (*Order, error)
	DeleteOrder(ctx context.Context, orderID int64, actor *int64) error
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]Order, error)
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

type Handler struct {
	useCase       UseCaseInterface
	tracer        trace.Tracer
	ordersCreated metric.Int64Counter
}

func NewHandler(useCase UseCaseInterface, tracer trace.Tracer, meter metric.Meter) *Handler {
	ordersCreated, _ := meter.Int64Counter("orders_created_total")
	return &Handler{
		useCase:       useCase,
		tracer:        tracer,
		ordersCreated: ordersCreated,
	}
}

type createOrderRequest struct {
	CustomerID int64      `json:"customer_id" binding:"required"`
	Items      []LineItem `json:"items" binding:"required,dive"`
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED CANCELLED"`
}

func (h *Handler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int64("customer_id", req.CustomerID),
		attribute.Int("items", len(req.Items)),
	)

	order, err := h.useCase.CreateOrder(ctx, req.CustomerID, req.Items, common.ActorID(c))
	if err != nil {
		span.RecordError(err)
		common.AbortWithError(c, err)
		return
	}

	span.SetAttributes(attribute.String("order_number", order.OrderNumber))
	h.ordersCreated.Add(ctx, 1)

	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "change_order_status")
	defer span.End()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.Int64("order_id", id),
		attribute.String("new_status", req.Status),
	)

	order, err := h.useCase.ChangeStatus(ctx, id, req.Status, common.ActorID(c))
	if err != nil {
		span.RecordError(err)
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.useCase.GetOrder(c.Request.Context(), id)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.useCase.ListOrders(c.Request.Context(), filter)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": result})
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	if err := h.useCase.DeleteOrder(c.Request.Context(), id, common.ActorID(c)); err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Dashboard(c *gin.Context) {
	summary, err := h.useCase.Dashboard(c.Request.Context())
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func parseFilter(c *gin.Context) (Filter, error) {
	var filter Filter

	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, common.NewValidationError("invalid customer_id")
		}
		filter.CustomerID = &id
	}
	if status := c.Query("status"); status != "" {
		if !ValidStatus(status) {
			return filter, common.NewValidationError("invalid status %q", status)
		}
		filter.Status = status
	}
	if raw := c.Query("date_from"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, common.NewValidationError("invalid date_from, expected YYYY-MM-DD")
		}
		filter.DateFrom = &date
	}
	if raw := c.Query("date_to"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, common.NewValidationError("invalid date_to, expected YYYY-MM-DD")
		}
		filter.DateTo = &date
	}
	if raw := c.Query("min_amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, common.NewValidationError("invalid min_amount")
		}
		filter.MinAmount = &amount
	}
	if raw := c.Query("max_amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, common.NewValidationError("invalid max_amount")
		}
		filter.MaxAmount = &amount
	}

	return filter, nil
}
