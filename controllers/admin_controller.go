package controllers

import (
	"net/http"
	"strconv"

	"craftory-backend/apperrors"
	"craftory-backend/models"
	"craftory-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminController struct {
	Bookings repository.BookingRepository
	Orders   repository.OrderRepository
}

func NewAdminController(bookings repository.BookingRepository, orders repository.OrderRepository) *AdminController {
	return &AdminController{Bookings: bookings, Orders: orders}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (ac *AdminController) ListBookings(c *gin.Context) {
	limit, offset := pagination(c)
	bookings, err := ac.Bookings.List(c, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"bookings": bookings, "count": len(bookings)})
}

func (ac *AdminController) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid booking id"})
		return
	}
	booking, err := ac.Bookings.GetByID(c, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"booking": booking})
}

func (ac *AdminController) ListOrders(c *gin.Context) {
	limit, offset := pagination(c)
	orders, err := ac.Orders.List(c, limit, offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"orders": orders, "count": len(orders)})
}

var validDeliveryStatuses = map[string]bool{
	models.DeliveryStatusPendingApproval: true,
	models.DeliveryStatusConfirmed:       true,
	models.DeliveryStatusOnTheWay:        true,
	models.DeliveryStatusDelivered:       true,
}

// UpdateDeliveryStatus moves a kit order through the fulfilment pipeline.
func (ac *AdminController) UpdateDeliveryStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid order id"})
		return
	}

	var req struct {
		DeliveryStatus string `json:"delivery_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if !validDeliveryStatuses[req.DeliveryStatus] {
		respondErr(c, apperrors.Validation("unknown delivery status: "+req.DeliveryStatus))
		return
	}

	if err := ac.Orders.UpdateDeliveryStatus(c, id, req.DeliveryStatus); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"id": id, "delivery_status": req.DeliveryStatus})
}
