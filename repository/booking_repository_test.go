package repository_test

import (
	"context"
	"testing"
	"time"

	"craftory-backend/apperrors"
	"craftory-backend/models"
	"craftory-backend/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func bookingRows(id uuid.UUID, orderID, paymentStatus, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "bill_id", "gateway_order_id", "payment_status", "status",
		"amount", "currency", "date", "time_slot", "created_at", "updated_at",
	}).AddRow(id, "CRAF-1", orderID, paymentStatus, status, 1999, "INR", "2025-09-01", "11am-1pm", now, now)
}

func TestBookingGetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormBookingRepo(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$\d+`).
		WillReturnRows(sqlmock.NewRows([]string{}))

	b, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, b)
}

func TestFindByGatewayOrderID_LegacyFallback(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormBookingRepo(gormDB)
	id := uuid.New()

	// Current column misses, legacy column hits.
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE gateway_order_id = \$\d+`).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE legacy_gateway_order_id = \$\d+`).
		WillReturnRows(bookingRows(id, "order_old_1", models.PaymentStatusPaid, models.BookingStatusConfirmed))

	b, err := repo.FindByGatewayOrderID(context.Background(), "order_old_1")
	assert.NoError(t, err)
	assert.Equal(t, id, b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaid_GuardsRefundedRows(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormBookingRepo(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .+ WHERE id = \$\d+ AND payment_status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkPaid(context.Background(), uuid.New(), "pay_1", "upi")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailed_GuardsPaidAndRefundedRows(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormBookingRepo(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .+ WHERE id = \$\d+ AND payment_status NOT IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.MarkFailed(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCancelled_ReportsWhetherApplied(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormBookingRepo(gormDB)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .+ WHERE id = \$\d+ AND status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := repo.MarkCancelled(context.Background(), id, "RFND-1", 1999, "change of plans", time.Now())
	assert.NoError(t, err)
	assert.True(t, applied)

	// A concurrent cancel already flipped the row: zero rows affected.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .+ WHERE id = \$\d+ AND status <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err = repo.MarkCancelled(context.Background(), id, "RFND-2", 1999, "", time.Now())
	assert.NoError(t, err)
	assert.False(t, applied)
}

func TestListActiveForDate_FiltersStatuses(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormBookingRepo(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE date = \$\d+ AND status IN \(\$\d+,\$\d+\) AND payment_status <> \$\d+`).
		WithArgs("2025-09-01", models.BookingStatusPending, models.BookingStatusConfirmed, models.PaymentStatusRefunded).
		WillReturnRows(bookingRows(uuid.New(), "order_1", models.PaymentStatusPaid, models.BookingStatusConfirmed))

	bookings, err := repo.ListActiveForDate(context.Background(), "2025-09-01")
	assert.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReschedule_PreservesOriginalDate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormBookingRepo(gormDB)

	// COALESCE keeps the first original_date across repeated reschedules.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .*COALESCE\(NULLIF\(original_date, ''\), date\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Reschedule(context.Background(), uuid.New(), "2025-09-05", "2pm-4pm", 0, "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
