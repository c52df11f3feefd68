package refund

import (
	"net/http"

	"github.com/commercekit/checkout/internal/shared/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler exposes the refund management endpoints.
type Handler struct {
	orchestrator *Orchestrator
	service      *Service
	logger       *zap.Logger
}

// NewHandler creates a new refund handler.
func NewHandler(orchestrator *Orchestrator, service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		service:      service,
		logger:       logger,
	}
}

// RegisterRoutes registers the refund routes. The group is expected to
// carry authentication and idempotency middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	refunds := rg.Group("/refunds")
	{
		refunds.POST("/batch", h.CreateBatch)
		refunds.GET("/:id", h.Get)
		refunds.POST("/:id/confirm", h.Confirm)
	}
}

// CreateBatch creates refund drafts for a batch of orders. The
// response always carries both the created refunds and the per-entry
// validation errors; a partially failed batch is a 200.
func (h *Handler) CreateBatch(c *gin.Context) {
	var req struct {
		Entries []BatchEntry `json:"entries" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result := h.orchestrator.Process(c.Request.Context(), req.Entries)
	c.JSON(http.StatusOK, result)
}

// Get returns a refund with its items.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund id")
		return
	}

	refund, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.HandleErrorWithDefault(c, err, refundErrorMappings)
		return
	}
	c.JSON(http.StatusOK, refund)
}

// Confirm confirms a draft refund and executes it at the gateway.
func (h *Handler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund id")
		return
	}

	refund, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("refund confirmation failed",
			zap.String("refund_id", id.String()), zap.Error(err))
		response.HandleErrorWithDefault(c, err, refundErrorMappings)
		return
	}
	c.JSON(http.StatusOK, refund)
}

var refundErrorMappings = []response.ErrorMapping{
	{Err: ErrRefundNotFound, Status: http.StatusNotFound},
	{Err: ErrAlreadyConfirmed, Status: http.StatusConflict},
	{Err: ErrRefundNotDraft, Status: http.StatusConflict},
	{Err: ErrQuantityExceeded, Status: http.StatusUnprocessableEntity, Code: CodeQuantityExceeded},
	{Err: ErrOrderNotPaid, Status: http.StatusUnprocessableEntity, Code: CodeOrderNotPaid},
	{Err: ErrOrderItemNotFound, Status: http.StatusUnprocessableEntity, Code: CodeOrderItemNotFound},
}
