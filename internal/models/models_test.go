package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingTransitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingPending, BookingApproved, true},
		{BookingPending, BookingRejected, true},
		{BookingPending, BookingCancelled, true},
		{BookingApproved, BookingCancelled, true},
		{BookingApproved, BookingRejected, false},
		{BookingApproved, BookingPending, false},
		{BookingRejected, BookingApproved, false},
		{BookingCancelled, BookingPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, BookingRejected.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingStatus("Archived").Valid())
}

func TestParseBookingID(t *testing.T) {
	id, err := ParseBookingID("BK-000042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = ParseBookingID(" bk-7 ")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	id, err = ParseBookingID("15")
	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	for _, raw := range []string{"", "BK-", "abc", "0", "-3", "12x"} {
		_, err := ParseBookingID(raw)
		assert.True(t, IsValidation(err), raw)
	}
	assert.Equal(t, "BK-000123", DisplayIDFor(123))
}

func TestOverlapsIsExclusiveAtEdges(t *testing.T) {
	start := time.Date(2030, 5, 10, 9, 0, 0, 0, time.UTC)
	b := Booking{StartDatetime: start, EndDatetime: start.Add(2 * time.Hour)}

	assert.True(t, b.Overlaps(start.Add(time.Hour), start.Add(3*time.Hour)))
	assert.True(t, b.Overlaps(start.Add(-time.Hour), start.Add(time.Minute)))
	assert.False(t, b.Overlaps(start.Add(2*time.Hour), start.Add(3*time.Hour)))
	assert.False(t, b.Overlaps(start.Add(-time.Hour), start))
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("PHT", 8*60*60)

	got, err := ParseTimestamp("start_datetime", "2030-05-10T09:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 10, 1, 30, 0, 0, time.UTC), got.UTC())

	got, err = ParseTimestamp("start_datetime", "2030-05-10T09:30:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 10, 9, 30, 0, 0, time.UTC), got.UTC())

	_, err = ParseTimestamp("end_datetime", "tomorrow", loc)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "end_datetime", ve.Field)

	_, err = ParseTimestamp("end_datetime", "  ", nil)
	assert.True(t, IsValidation(err))
}

func TestUpstreamClassification(t *testing.T) {
	err := upstream("insert booking", errors.New("(23P01) conflicting key value violates exclusion constraint"))
	ue, ok := AsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, "23P01", ue.Code)
	assert.True(t, ue.Correctable)

	err = upstream("insert booking", errors.New("(22007) invalid input syntax for type timestamp"))
	ue, _ = AsUpstream(err)
	assert.True(t, ue.Correctable)

	err = upstream("list bookings", errors.New("(42501) permission denied"))
	ue, _ = AsUpstream(err)
	assert.False(t, ue.Correctable)

	err = upstream("list bookings", errors.New("connection refused"))
	ue, _ = AsUpstream(err)
	assert.Empty(t, ue.Code)
	assert.False(t, ue.Correctable)

	assert.NoError(t, upstream("noop", nil))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "booking not found", NotFoundError{Resource: "booking"}.Error())
	assert.Equal(t, "email: is required", ValidationError{Field: "email", Msg: "is required"}.Error())
	assert.Equal(t, "unauthorized", AuthError{}.Error())
	assert.Equal(t, "forbidden", ForbiddenError{}.Error())
	assert.Equal(t, VenueConflictMessage, ConflictError{Msg: VenueConflictMessage}.Error())

	wrapped := errors.Join(errors.New("outer"), NotFoundError{Resource: "user"})
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
}

func TestRoles(t *testing.T) {
	assert.True(t, RoleMinistryHead.SelfAssignable())
	assert.False(t, RoleAdmin.SelfAssignable())
	assert.False(t, Role("superuser").Valid())

	name := "Grace"
	fields := ProfileUpdate{FullName: &name}.Fields()
	assert.Equal(t, map[string]interface{}{"full_name": "Grace"}, fields)
}

func TestChangeRequestTransitions(t *testing.T) {
	assert.True(t, ChangePending.CanTransitionTo(ChangeApproved))
	assert.True(t, ChangePending.CanTransitionTo(ChangeRejected))
	assert.False(t, ChangeApproved.CanTransitionTo(ChangeRejected))
	assert.False(t, ChangePending.CanTransitionTo(ChangePending))
}
