package routes

import (
	"net/http"

	"craftory-backend/controllers"
	"craftory-backend/middleware"
	"craftory-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Auth    *controllers.AuthController
	Booking *controllers.BookingController
	Order   *controllers.OrderController
	Payment *controllers.PaymentController
	Admin   *controllers.AdminController
}

func RegisterRoutes(r *gin.Engine, ctrl Controllers, tokens *services.TokenService) {
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://craftory.in", "https://www.craftory.in", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth flows are rate limited per client IP.
	auth := r.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware())
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/verify-otp", ctrl.Auth.VerifyOTP)
		auth.POST("/login", ctrl.Auth.Login)
		auth.GET("/me", middleware.AuthMiddleware(tokens), ctrl.Auth.Me)
	}

	// Checkout and reconciliation. The gateway calls /webhook and the
	// checkout page calls /verify-payment, so these stay unauthenticated.
	r.POST("/create-order", ctrl.Booking.CreateOrder)
	r.POST("/verify-payment", ctrl.Payment.VerifyPayment)
	r.GET("/check-payment-status/:id", ctrl.Payment.CheckPaymentStatus)
	r.POST("/webhook", ctrl.Payment.Webhook)
	r.GET("/available-slots", ctrl.Booking.AvailableSlots)

	r.POST("/cancel-booking/:id", ctrl.Booking.CancelBooking)
	r.POST("/update-booking/:id", ctrl.Booking.UpdateBooking)

	diy := r.Group("/diy")
	{
		diy.POST("/create-order", ctrl.Order.CreateOrder)
		diy.POST("/verify-payment", ctrl.Payment.VerifyPayment)
		diy.GET("/order/:id", middleware.AuthMiddleware(tokens), ctrl.Order.GetOrder)
		diy.GET("/my-orders", middleware.AuthMiddleware(tokens), ctrl.Order.MyOrders)
	}

	r.GET("/my-bookings", middleware.AuthMiddleware(tokens), ctrl.Booking.MyBookings)

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.AdminOnly())
	{
		admin.GET("/bookings", ctrl.Admin.ListBookings)
		admin.GET("/bookings/:id", ctrl.Admin.GetBooking)
		admin.GET("/orders", ctrl.Admin.ListOrders)
		admin.PUT("/orders/:id/delivery-status", ctrl.Admin.UpdateDeliveryStatus)
	}
}
