package controllers

import (
	"net/http"

	"craftory-backend/apperrors"
	"craftory-backend/middleware"
	"craftory-backend/models"
	"craftory-backend/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Checkout *services.CheckoutService
}

func NewOrderController(checkout *services.CheckoutService) *OrderController {
	return &OrderController{Checkout: checkout}
}

// CreateOrder initiates a DIY kit order checkout.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.DIYOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	order, gatewayOrder, err := oc.Checkout.CreateDIYOrder(c, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{
		"order":            order,
		"gateway_order_id": gatewayOrder.ID,
		"checkout_url":     gatewayOrder.CheckoutURL,
	})
}

// GetOrder returns a single DIY order by internal ID or bill ID. Only the
// owner or an admin may read it.
func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.Checkout.OrderByRef(c, c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	email := middleware.GetUserEmail(c)
	if order.Email != email && c.GetString(middleware.RoleKey) != models.RoleAdmin {
		respondErr(c, apperrors.ErrNotFound)
		return
	}
	respondOK(c, gin.H{"order": order})
}

// MyOrders lists the authenticated customer's DIY orders.
func (oc *OrderController) MyOrders(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	if email == "" {
		respondErr(c, apperrors.ErrUnauthorized)
		return
	}

	orders, err := oc.Checkout.OrdersForEmail(c, email)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"orders": orders})
}
