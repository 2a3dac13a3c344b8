package controllers

import (
	"net/http"

	"craftory-backend/logger"
	"craftory-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentController struct {
	Reconciler *services.ReconcileService
}

func NewPaymentController(reconciler *services.ReconcileService) *PaymentController {
	return &PaymentController{Reconciler: reconciler}
}

// VerifyPayment handles the client-triggered verification callback.
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req struct {
		GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
		GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
		Signature        string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	result, err := pc.Reconciler.VerifyPayment(c, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{
		"kind":           result.Kind,
		"payment_status": result.PaymentStatus,
		"booking":        result.Booking,
		"order":          result.Order,
	})
}

// CheckPaymentStatus answers GET /check-payment-status/:id with the stored
// state for a bill id.
func (pc *PaymentController) CheckPaymentStatus(c *gin.Context) {
	result, err := pc.Reconciler.CheckPaymentStatus(c, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{
		"kind":           result.Kind,
		"payment_status": result.PaymentStatus,
		"booking":        result.Booking,
		"order":          result.Order,
	})
}

// Webhook receives gateway callbacks. The body must stay raw for HMAC
// verification. Only a bad signature earns a non-2xx: the gateway retries on
// anything else, and retrying a processing hiccup is the reconciler's own job.
func (pc *PaymentController) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unreadable body"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if signature == "" {
		signature = c.GetHeader("Stripe-Signature")
	}

	if err := pc.Reconciler.HandleWebhook(c, body, signature); err != nil {
		if isSignatureErr(err) {
			logger.Warn(c, "Webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid webhook signature"})
			return
		}
		logger.Error(c, "Webhook processing failed", err, zap.Int("body_bytes", len(body)))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": "received"})
}
