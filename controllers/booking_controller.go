package controllers

import (
	"net/http"

	"craftory-backend/apperrors"
	"craftory-backend/middleware"
	"craftory-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingController struct {
	Checkout *services.CheckoutService
	Slots    *services.SlotService
	Refunds  *services.RefundService
}

func NewBookingController(checkout *services.CheckoutService, slots *services.SlotService, refunds *services.RefundService) *BookingController {
	return &BookingController{Checkout: checkout, Slots: slots, Refunds: refunds}
}

// CreateOrder initiates a booking checkout: gateway order first, pending row
// second.
func (bc *BookingController) CreateOrder(c *gin.Context) {
	var req services.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	booking, order, err := bc.Checkout.CreateBooking(c, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{
		"booking":          booking,
		"gateway_order_id": order.ID,
		"checkout_url":     order.CheckoutURL,
	})
}

// AvailableSlots answers GET /available-slots?activity=...&date=...
func (bc *BookingController) AvailableSlots(c *gin.Context) {
	activity := c.Query("activity")
	date := c.Query("date")

	avail, err := bc.Slots.Availability(c, activity, date)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{
		"activity":        avail.Activity,
		"date":            avail.Date,
		"all_slots":       avail.AllSlots,
		"available_slots": avail.Available,
		"occupied_slots":  avail.Occupied,
	})
}

// CancelBooking cancels and refunds a paid booking.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperrors.Validation("invalid booking id"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req) // reason is optional

	booking, err := bc.Refunds.CancelBooking(c, id, req.Reason)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"message": "booking cancelled, refund initiated", "booking": booking})
}

// UpdateBooking reschedules a booking to a new date/slot.
func (bc *BookingController) UpdateBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondErr(c, apperrors.Validation("invalid booking id"))
		return
	}

	var req struct {
		Date          string `json:"date" binding:"required"`
		TimeSlot      string `json:"time_slot" binding:"required"`
		BalanceAmount int64  `json:"balance_amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	booking, balanceOrder, err := bc.Checkout.Reschedule(c, id, req.Date, req.TimeSlot, req.BalanceAmount)
	if err != nil {
		respondErr(c, err)
		return
	}

	resp := gin.H{"booking": booking}
	if balanceOrder != nil {
		resp["balance_gateway_order_id"] = balanceOrder.ID
	}
	respondOK(c, resp)
}

// MyBookings lists the authenticated customer's bookings.
func (bc *BookingController) MyBookings(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	if email == "" {
		respondErr(c, apperrors.ErrUnauthorized)
		return
	}

	bookings, err := bc.Checkout.BookingsForEmail(c, email)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, gin.H{"bookings": bookings})
}
