package models

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var bookingColumns = []string{
	"id", "user_id", "venue", "event_name", "purpose", "attendees",
	"start_datetime", "end_datetime", "additional_needs", "status", "reminder_sent", "created_at",
}

func newGuard(t *testing.T) (*ApprovalGuard, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewApprovalGuard(gdb), mock
}

func bookingRow(status BookingStatus) *sqlmock.Rows {
	start := time.Date(2030, 5, 10, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(bookingColumns).AddRow(
		int64(7), uuid.New().String(), "Main Worship Hall", "Choir practice", "Rehearsal", 30,
		start, start.Add(2*time.Hour), "", string(status), false, start.Add(-48*time.Hour),
	)
}

func TestApproveBooking(t *testing.T) {
	guard, mock := newGuard(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingPending))
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE "bookings" SET "status"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingApproved))
	mock.ExpectCommit()

	booking, err := guard.ApproveBooking(context.Background(), 7, []BookingStatus{BookingApproved})
	require.NoError(t, err)
	assert.Equal(t, BookingApproved, booking.Status)
	assert.Equal(t, "BK-000007", booking.DisplayID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveBookingOverlap(t *testing.T) {
	guard, mock := newGuard(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingPending))
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := guard.ApproveBooking(context.Background(), 7, []BookingStatus{BookingApproved})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, VenueConflictMessage, err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveBookingIllegalTransition(t *testing.T) {
	guard, mock := newGuard(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingRejected))
	mock.ExpectRollback()

	_, err := guard.ApproveBooking(context.Background(), 7, []BookingStatus{BookingApproved})
	assert.True(t, IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveBookingMissing(t *testing.T) {
	guard, mock := newGuard(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(sqlmock.NewRows(bookingColumns))
	mock.ExpectRollback()

	_, err := guard.ApproveBooking(context.Background(), 99, []BookingStatus{BookingApproved})
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyApprovedReschedule(t *testing.T) {
	guard, mock := newGuard(t)
	newStart := time.Date(2030, 5, 10, 14, 0, 0, 0, time.UTC)
	fields := map[string]interface{}{
		"start_datetime": newStart.Format(time.RFC3339),
		"end_datetime":   newStart.Add(2 * time.Hour).Format(time.RFC3339),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingApproved))
	mock.ExpectExec(`pg_advisory_xact_lock`).WithArgs("Main Worship Hall").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`UPDATE "bookings" SET "end_datetime"=\$1,"start_datetime"=\$2,"status"=\$3`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingApproved))
	mock.ExpectCommit()

	booking, err := guard.ApplyApproved(context.Background(), 7, BookingApproved, fields, []BookingStatus{BookingApproved})
	require.NoError(t, err)
	assert.Equal(t, BookingApproved, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyApprovedOverlapRollsBack(t *testing.T) {
	guard, mock := newGuard(t)
	fields := map[string]interface{}{
		"event_name":     "Youth night",
		"start_datetime": time.Date(2030, 5, 10, 10, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingPending))
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := guard.ApplyApproved(context.Background(), 7, BookingPending, fields, []BookingStatus{BookingApproved})
	require.Error(t, err)
	assert.Equal(t, VenueConflictMessage, err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyApprovedStaleStatus(t *testing.T) {
	guard, mock := newGuard(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingCancelled))
	mock.ExpectRollback()

	_, err := guard.ApplyApproved(context.Background(), 7, BookingPending, map[string]interface{}{"venue": "Chapel"}, []BookingStatus{BookingApproved})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "changed concurrently")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyApprovedRejectsInvertedRange(t *testing.T) {
	guard, mock := newGuard(t)
	fields := map[string]interface{}{
		"end_datetime": time.Date(2030, 5, 10, 8, 0, 0, 0, time.UTC).Format(time.RFC3339),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).WillReturnRows(bookingRow(BookingApproved))
	mock.ExpectRollback()

	_, err := guard.ApplyApproved(context.Background(), 7, BookingApproved, fields, []BookingStatus{BookingApproved})
	assert.True(t, IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
