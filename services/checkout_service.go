package services

import (
	"context"
	"encoding/json"
	"strings"

	"craftory-backend/apperrors"
	"craftory-backend/gateway"
	"craftory-backend/models"
	"craftory-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingRequest is the initiator's input for a slotted activity booking.
type BookingRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Activity     string   `json:"activity"`
	ComboName    string   `json:"combo_name"`
	Activities   []string `json:"activities"`
	Date         string   `json:"date"`
	TimeSlot     string   `json:"time_slot"`
	Participants int      `json:"participants"`
	Amount       int64    `json:"amount"` // minor units
	CallbackURL  string   `json:"callback_url"`
}

// DIYOrderRequest is the initiator's input for a kit order.
type DIYOrderRequest struct {
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	Items       []models.OrderItem `json:"items"`
	Address     string             `json:"address"`
	Amount      int64              `json:"amount"`
	CallbackURL string             `json:"callback_url"`
}

// CheckoutService builds payment requests, asks the gateway for an order
// handle and persists the pending row. Exactly one store insert per
// successful call; zero when the gateway call fails.
type CheckoutService struct {
	bookings repository.BookingRepository
	orders   repository.OrderRepository
	slots    *SlotService
	gw       gateway.PaymentGateway
	currency string
	baseURL  string
	logger   *zap.Logger
}

func NewCheckoutService(
	bookings repository.BookingRepository,
	orders repository.OrderRepository,
	slots *SlotService,
	gw gateway.PaymentGateway,
	currency, publicBaseURL string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		bookings: bookings,
		orders:   orders,
		slots:    slots,
		gw:       gw,
		currency: currency,
		baseURL:  publicBaseURL,
		logger:   logger,
	}
}

// CreateBooking validates the payload, reserves a gateway order and persists
// the pending booking.
func (s *CheckoutService) CreateBooking(ctx context.Context, req BookingRequest) (*models.Booking, *gateway.Order, error) {
	if s.gw == nil {
		return nil, nil, apperrors.ErrGatewayNotConfigured
	}
	if err := validateContact(req.Name, req.Email); err != nil {
		return nil, nil, err
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(req.Activity) == "" && strings.TrimSpace(req.ComboName) == "" {
		return nil, nil, apperrors.Validation("activity is required")
	}
	if strings.TrimSpace(req.Date) == "" {
		return nil, nil, apperrors.Validation("date is required")
	}
	if strings.TrimSpace(req.TimeSlot) == "" {
		return nil, nil, apperrors.Validation("time slot is required")
	}
	if req.Amount <= 0 {
		return nil, nil, apperrors.Validation("amount must be a positive number")
	}

	activity := req.Activity
	if activity == "" {
		activity = req.ComboName
	}
	open, err := s.slots.SlotOpen(ctx, activity, req.Date, req.TimeSlot)
	if err != nil {
		return nil, nil, err
	}
	if !open {
		return nil, nil, apperrors.Validation("time slot is no longer available")
	}

	billID := NewBillID()
	order, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		BillID:      billID,
		Amount:      req.Amount,
		Currency:    s.currency,
		Customer:    gateway.Customer{Name: req.Name, Email: req.Email, Phone: phone},
		CallbackURL: PublicCallbackURL(req.CallbackURL, s.baseURL),
		Notes:       map[string]string{"activity": activity, "date": req.Date, "time_slot": req.TimeSlot},
	})
	if err != nil {
		// Gateway errors are returned untouched; nothing was persisted.
		return nil, nil, err
	}

	activitiesJSON := "[]"
	if len(req.Activities) > 0 {
		if b, err := json.Marshal(req.Activities); err == nil {
			activitiesJSON = string(b)
		}
	}

	participants := req.Participants
	if participants <= 0 {
		participants = 1
	}

	booking := &models.Booking{
		BillID:         billID,
		GatewayOrderID: order.ID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          phone,
		Activity:       req.Activity,
		ComboName:      req.ComboName,
		Activities:     activitiesJSON,
		Date:           req.Date,
		TimeSlot:       req.TimeSlot,
		Participants:   participants,
		Amount:         req.Amount,
		Currency:       s.currency,
		PaymentStatus:  models.PaymentStatusPending,
		Status:         models.BookingStatusPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Booking created",
		zap.String("bill_id", billID),
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount", req.Amount),
	)
	return booking, order, nil
}

// CreateDIYOrder is the non-slotted variant of CreateBooking.
func (s *CheckoutService) CreateDIYOrder(ctx context.Context, req DIYOrderRequest) (*models.DIYOrder, *gateway.Order, error) {
	if s.gw == nil {
		return nil, nil, apperrors.ErrGatewayNotConfigured
	}
	if err := validateContact(req.Name, req.Email); err != nil {
		return nil, nil, err
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, nil, err
	}
	if len(req.Items) == 0 {
		return nil, nil, apperrors.Validation("items are required")
	}
	if req.Amount <= 0 {
		return nil, nil, apperrors.Validation("amount must be a positive number")
	}

	billID := NewBillID()
	order, err := s.gw.CreateOrder(ctx, gateway.OrderRequest{
		BillID:      billID,
		Amount:      req.Amount,
		Currency:    s.currency,
		Customer:    gateway.Customer{Name: req.Name, Email: req.Email, Phone: phone},
		CallbackURL: PublicCallbackURL(req.CallbackURL, s.baseURL),
		Notes:       map[string]string{"order_type": "diy_kit"},
	})
	if err != nil {
		return nil, nil, err
	}

	itemsJSON, err := json.Marshal(req.Items)
	if err != nil {
		return nil, nil, apperrors.Validation("invalid items payload")
	}

	diy := &models.DIYOrder{
		BillID:         billID,
		GatewayOrderID: order.ID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          phone,
		Items:          string(itemsJSON),
		Address:        req.Address,
		Amount:         req.Amount,
		Currency:       s.currency,
		PaymentStatus:  models.PaymentStatusPending,
		DeliveryStatus: models.DeliveryStatusPendingApproval,
	}
	if err := s.orders.Create(ctx, diy); err != nil {
		return nil, nil, err
	}

	s.logger.Info("DIY order created",
		zap.String("bill_id", billID),
		zap.String("gateway_order_id", order.ID),
	)
	return diy, order, nil
}

// Reschedule moves a booking to a new date/slot. A positive price difference
// is collected through a separate balance gateway order; the original
// date/slot is retained on the row.
func (s *CheckoutService) Reschedule(ctx context.Context, id uuid.UUID, newDate, newSlot string, balanceAmount int64) (*models.Booking, *gateway.Order, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, nil, apperrors.ErrAlreadyCancelled
	}
	if strings.TrimSpace(newDate) == "" || strings.TrimSpace(newSlot) == "" {
		return nil, nil, apperrors.Validation("date and time slot are required")
	}

	activity := booking.Activity
	if activity == "" {
		activity = booking.ComboName
	}
	open, err := s.slots.SlotOpen(ctx, activity, newDate, newSlot)
	if err != nil {
		return nil, nil, err
	}
	if !open && !(newDate == booking.Date && newSlot == booking.TimeSlot) {
		return nil, nil, apperrors.Validation("time slot is no longer available")
	}

	var balanceOrder *gateway.Order
	balanceOrderID := ""
	if balanceAmount > 0 {
		if s.gw == nil {
			return nil, nil, apperrors.ErrGatewayNotConfigured
		}
		balanceOrder, err = s.gw.CreateOrder(ctx, gateway.OrderRequest{
			BillID:   NewBillID(),
			Amount:   balanceAmount,
			Currency: booking.Currency,
			Customer: gateway.Customer{Name: booking.Name, Email: booking.Email, Phone: booking.Phone},
			Notes:    map[string]string{"reason": "reschedule_balance", "bill_id": booking.BillID},
		})
		if err != nil {
			return nil, nil, err
		}
		balanceOrderID = balanceOrder.ID
	}

	if err := s.bookings.Reschedule(ctx, id, newDate, newSlot, balanceAmount, balanceOrderID); err != nil {
		return nil, nil, err
	}

	updated, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, balanceOrder, nil
}

// BookingsForEmail lists a customer's bookings, newest first.
func (s *CheckoutService) BookingsForEmail(ctx context.Context, email string) ([]models.Booking, error) {
	return s.bookings.ListByEmail(ctx, email)
}

// OrdersForEmail lists a customer's DIY orders, newest first.
func (s *CheckoutService) OrdersForEmail(ctx context.Context, email string) ([]models.DIYOrder, error) {
	return s.orders.ListByEmail(ctx, email)
}

// OrderByRef fetches a DIY order by internal UUID or by bill ID.
func (s *CheckoutService) OrderByRef(ctx context.Context, ref string) (*models.DIYOrder, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.orders.GetByID(ctx, id)
	}
	return s.orders.GetByBillID(ctx, ref)
}

func validateContact(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validation("name is required")
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.Validation("a valid email is required")
	}
	return nil
}
