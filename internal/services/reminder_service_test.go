package services

import (
	"context"
	"testing"
	"time"

	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	from, to := Window(time.Date(2030, 5, 9, 9, 37, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2030, 5, 10, 9, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2030, 5, 10, 10, 0, 0, 0, time.UTC), to)
}

func TestReminderRunOnce_SendsOncePerBooking(t *testing.T) {
	store := newFakeBookings()
	store.seed(models.Booking{Venue: "A", StartDatetime: at(9).Add(30 * time.Minute), EndDatetime: at(11), Status: models.BookingApproved})
	store.seed(models.Booking{Venue: "B", StartDatetime: at(9), EndDatetime: at(11), Status: models.BookingPending})
	store.seed(models.Booking{Venue: "C", StartDatetime: at(10), EndDatetime: at(11), Status: models.BookingApproved})

	notifier := &fakeDispatcher{}
	svc := NewReminderService(store, notifier, time.UTC, discardLogger())
	svc.now = func() time.Time { return at(9).Add(-24*time.Hour + 12*time.Minute) }

	sent, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{notify.KindBookingReminder}, notifier.kinds())

	sent, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, notifier.jobs, 1)
}

func TestReminderRunOnce_ListFailure(t *testing.T) {
	store := newFakeBookings()
	store.failList = errStore
	svc := NewReminderService(store, &fakeDispatcher{}, time.UTC, discardLogger())

	_, err := svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, errStore)
}

func TestStartScheduler_RejectsBadSchedule(t *testing.T) {
	svc := NewReminderService(newFakeBookings(), &fakeDispatcher{}, time.UTC, discardLogger())

	_, err := svc.StartScheduler(context.Background(), "every now and then")
	assert.Error(t, err)

	c, err := svc.StartScheduler(context.Background(), "")
	require.NoError(t, err)
	<-c.Stop().Done()
}
