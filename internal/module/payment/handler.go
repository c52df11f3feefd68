package payment

import (
	"bytes"
	"io"
	"net/http"
	"net/url"

	"github.com/commercekit/checkout/internal/module/gateway"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxCallbackBody = 1 << 20

// Handler exposes the return/notify endpoints.
type Handler struct {
	reconciler *Reconciler
	logger     *zap.Logger
}

// NewHandler creates a new payment handler.
func NewHandler(reconciler *Reconciler, logger *zap.Logger) *Handler {
	return &Handler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// RegisterRoutes registers the checkout callback routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	checkout := rg.Group("/checkout")
	{
		checkout.GET("/return", h.HandleReturn)
		checkout.GET("/card-renewal/return", h.HandleReturn)
		checkout.GET("/notify", h.HandleNotify)
		checkout.POST("/notify", h.HandleNotify)
		checkout.GET("/refund/notify", h.HandleRefundNotify)
		checkout.POST("/refund/notify", h.HandleRefundNotify)
	}
}

// HandleReturn handles the browser return from a gateway: the user is
// always answered with a 302 to one of the fixed destinations.
func (h *Handler) HandleReturn(c *gin.Context) {
	cb, stamp := callbackFromRequest(c)
	result := h.reconciler.ReconcileOrderReturn(c.Request.Context(), stamp, cb)
	c.Redirect(http.StatusFound, result.RedirectURL)
}

// HandleNotify handles the server-to-server callback. Same
// reconciliation contract as the browser return, but the caller gets a
// structured status payload instead of a redirect.
func (h *Handler) HandleNotify(c *gin.Context) {
	cb, stamp := callbackFromRequest(c)
	result := h.reconciler.ReconcileOrderReturn(c.Request.Context(), stamp, cb)
	c.JSON(http.StatusOK, gin.H{"paymentPaid": result.PaymentPaid})
}

// HandleRefundNotify handles the server-to-server refund callback.
func (h *Handler) HandleRefundNotify(c *gin.Context) {
	cb, stamp := callbackFromRequest(c)
	result := h.reconciler.ReconcileRefundReturn(c.Request.Context(), stamp, cb)
	c.JSON(http.StatusOK, gin.H{"refundPaid": result.PaymentPaid})
}

// callbackFromRequest collects the raw callback material: query and
// form parameters, the raw body for signed webhook payloads, and the
// correlation stamp.
func callbackFromRequest(c *gin.Context) (gateway.Callback, string) {
	var body []byte
	if c.Request.Method == http.MethodPost && c.Request.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	// Merges query and urlencoded form parameters.
	_ = c.Request.ParseForm()
	params := make(url.Values, len(c.Request.Form))
	for k, v := range c.Request.Form {
		params[k] = v
	}

	stamp := params.Get("checkoutStamp")
	if stamp == "" {
		// Alipay carries the stamp as the trade number.
		stamp = params.Get("out_trade_no")
	}

	return gateway.Callback{
		Params:    params,
		Body:      body,
		Signature: c.GetHeader("Stripe-Signature"),
	}, stamp
}
