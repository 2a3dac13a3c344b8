package services_test

import (
	"context"
	"testing"

	"craftory-backend/apperrors"
	"craftory-backend/models"
	"craftory-backend/services"

	"github.com/stretchr/testify/assert"
)

func activeBooking(activity, date, slot string) *models.Booking {
	return &models.Booking{
		BillID:         services.NewBillID(),
		GatewayOrderID: services.NewBillID(),
		Activity:       activity,
		Date:           date,
		TimeSlot:       slot,
		PaymentStatus:  models.PaymentStatusPaid,
		Status:         models.BookingStatusConfirmed,
	}
}

func TestAvailability_SubtractsOccupiedSlots(t *testing.T) {
	repo := newFakeBookingRepo(
		activeBooking("jewelry making", "2025-09-01", "11am-1pm"),
		activeBooking("jewelry making", "2025-09-01", "4pm-6pm"),
		activeBooking("jewelry making", "2025-09-02", "9am-11am"), // other date
		activeBooking("pottery wheel", "2025-09-01", "10am-12pm"), // other activity
	)
	svc := services.NewSlotService(repo)

	avail, err := svc.Availability(context.Background(), "jewelry making", "2025-09-01")

	assert.NoError(t, err)
	assert.Equal(t, "jewelry making", avail.Activity)
	assert.ElementsMatch(t, []string{"9am-11am", "2pm-4pm"}, avail.Available)
	assert.ElementsMatch(t, []string{"11am-1pm", "4pm-6pm"}, avail.Occupied)
}

func TestAvailability_AliasAndFuzzyNamesMatch(t *testing.T) {
	// Bookings filed under storefront naming variants still block the slot.
	repo := newFakeBookingRepo(
		activeBooking("Jewellery Lab", "2025-09-01", "9am-11am"),
		activeBooking("Jewelry Making Workshop", "2025-09-01", "2pm-4pm"),
	)
	svc := services.NewSlotService(repo)

	avail, err := svc.Availability(context.Background(), "jewelry making", "2025-09-01")

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"11am-1pm", "4pm-6pm"}, avail.Available)
}

func TestAvailability_ComboNameHoldsSlot(t *testing.T) {
	b := activeBooking("", "2025-09-01", "10am-12pm")
	b.ComboName = "pottery + candle combo"
	repo := newFakeBookingRepo(b)
	svc := services.NewSlotService(repo)

	avail, err := svc.Availability(context.Background(), "pottery wheel", "2025-09-01")

	assert.NoError(t, err)
	assert.NotContains(t, avail.Available, "10am-12pm")
}

func TestAvailability_RefundedBookingReleasesSlot(t *testing.T) {
	b := activeBooking("resin art", "2025-09-01", "1pm-3pm")
	b.PaymentStatus = models.PaymentStatusRefunded
	repo := newFakeBookingRepo(b)
	svc := services.NewSlotService(repo)

	avail, err := svc.Availability(context.Background(), "resin art", "2025-09-01")

	assert.NoError(t, err)
	assert.Contains(t, avail.Available, "1pm-3pm")
	assert.Empty(t, avail.Occupied)
}

func TestAvailability_CancelledBookingReleasesSlot(t *testing.T) {
	b := activeBooking("tufting", "2025-09-01", "1pm-4pm")
	b.Status = models.BookingStatusCancelled
	repo := newFakeBookingRepo(b)
	svc := services.NewSlotService(repo)

	avail, err := svc.Availability(context.Background(), "tufting", "2025-09-01")

	assert.NoError(t, err)
	assert.Contains(t, avail.Available, "1pm-4pm")
}

func TestAvailability_PendingPaymentHoldsSlot(t *testing.T) {
	b := activeBooking("candle making", "2025-09-01", "2pm-4pm")
	b.PaymentStatus = models.PaymentStatusPending
	b.Status = models.BookingStatusPending
	repo := newFakeBookingRepo(b)
	svc := services.NewSlotService(repo)

	avail, err := svc.Availability(context.Background(), "candle making", "2025-09-01")

	assert.NoError(t, err)
	assert.NotContains(t, avail.Available, "2pm-4pm")
}

func TestAvailability_UnknownActivity(t *testing.T) {
	svc := services.NewSlotService(newFakeBookingRepo())

	_, err := svc.Availability(context.Background(), "glass blowing", "2025-09-01")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAvailability_MissingDate(t *testing.T) {
	svc := services.NewSlotService(newFakeBookingRepo())

	_, err := svc.Availability(context.Background(), "tufting", "")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSlotOpen(t *testing.T) {
	repo := newFakeBookingRepo(activeBooking("jewelry making", "2025-09-01", "11am-1pm"))
	svc := services.NewSlotService(repo)

	open, err := svc.SlotOpen(context.Background(), "jewelry making", "2025-09-01", "9am-11am")
	assert.NoError(t, err)
	assert.True(t, open)

	open, err = svc.SlotOpen(context.Background(), "jewelry making", "2025-09-01", "11am-1pm")
	assert.NoError(t, err)
	assert.False(t, open)

	_, err = svc.SlotOpen(context.Background(), "jewelry making", "2025-09-01", "8pm-10pm")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
