package models

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/supabase-go"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

// fakeRest stands in for the PostgREST endpoint behind the Supabase client.
type fakeRest struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func (f *fakeRest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
	})
	status, payload := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(payload))
}

func (f *fakeRest) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newRepo(t *testing.T, fake *fakeRest) *SupabaseRepo {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := supabase.NewClient(srv.URL, "service-key", nil)
	require.NoError(t, err)
	return SupabaseNewRepo(client, "service-key")
}

const bookingJSON = `[{"id":12,"user_id":"6b0c1f4e-3a34-4b77-9f4a-2a1d2c6c7a10","venue":"NxtGen Room",
"event_name":"Youth night","purpose":"Fellowship","attendees":40,
"start_datetime":"2030-05-10T10:00:00Z","end_datetime":"2030-05-10T12:00:00Z",
"additional_needs":"","status":"Approved","reminder_sent":false,"created_at":"2030-05-01T08:00:00Z"}]`

func TestFindOverlappingQuery(t *testing.T) {
	fake := &fakeRest{body: bookingJSON}
	repo := newRepo(t, fake)

	start := time.Date(2030, 5, 10, 11, 0, 0, 0, time.UTC)
	found, err := repo.FindOverlapping(t.Context(), "NxtGen Room", start, start.Add(time.Hour),
		[]BookingStatus{BookingApproved}, 5)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "BK-000012", found[0].DisplayID)
	assert.Equal(t, BookingApproved, found[0].Status)

	req := fake.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.True(t, strings.HasSuffix(req.Path, "/rest/v1/bookings"), req.Path)
	assert.Contains(t, req.Query, "venue=eq.NxtGen")
	assert.Contains(t, req.Query, "status=eq.Approved")
	assert.Contains(t, req.Query, "id=neq.5")
	assert.Contains(t, req.Query, "start_datetime=lt.2030-05-10T12")
	assert.Contains(t, req.Query, "end_datetime=gt.2030-05-10T11")
}

func TestListBookingsFilters(t *testing.T) {
	fake := &fakeRest{body: "[]"}
	repo := newRepo(t, fake)

	userID := uuid.New()
	from := time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC)
	bookings, err := repo.ListBookings(t.Context(), BookingFilter{
		UserID:       userID,
		Statuses:     []BookingStatus{BookingPending, BookingApproved},
		StartsFrom:   from,
		StartsBefore: from.Add(24 * time.Hour),
		Descending:   true,
	})
	require.NoError(t, err)
	assert.Empty(t, bookings)

	req := fake.last(t)
	assert.Contains(t, req.Query, "user_id=eq."+userID.String())
	assert.Contains(t, req.Query, "status=in.")
	assert.Contains(t, req.Query, "and=")
	assert.Contains(t, req.Query, "order=start_datetime.desc")
}

func TestTransitionStatusLostRace(t *testing.T) {
	fake := &fakeRest{body: "[]"}
	repo := newRepo(t, fake)

	_, err := repo.TransitionStatus(t.Context(), 12, BookingPending, BookingApproved)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	req := fake.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Contains(t, req.Query, "status=eq.Pending")
	assert.Contains(t, req.Query, "id=eq.12")
}

func TestGetBookingNotFound(t *testing.T) {
	repo := newRepo(t, &fakeRest{body: "[]"})

	_, err := repo.GetBooking(t.Context(), 404)
	assert.True(t, IsNotFound(err))
}

func TestInsertBookingConstraintViolation(t *testing.T) {
	fake := &fakeRest{
		status: http.StatusConflict,
		body:   `{"code":"23P01","message":"conflicting key value violates exclusion constraint","details":null,"hint":null}`,
	}
	repo := newRepo(t, fake)

	start := time.Date(2030, 5, 10, 10, 0, 0, 0, time.UTC)
	_, err := repo.InsertBooking(t.Context(), &Booking{
		UserID:        uuid.New(),
		Venue:         "NxtGen Room",
		EventName:     "Youth night",
		Purpose:       "Fellowship",
		Attendees:     40,
		StartDatetime: start,
		EndDatetime:   start.Add(2 * time.Hour),
		Status:        BookingPending,
	})
	require.Error(t, err)
	ue, ok := AsUpstream(err)
	require.True(t, ok)
	assert.True(t, ue.Correctable)
	req := fake.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Contains(t, req.Body, `"status":"Pending"`)
	assert.Contains(t, req.Body, `"reminder_sent":false`)
}

func TestClaimReminder(t *testing.T) {
	fake := &fakeRest{body: bookingJSON}
	repo := newRepo(t, fake)

	won, err := repo.ClaimReminder(t.Context(), 12)
	require.NoError(t, err)
	assert.True(t, won)
	assert.Contains(t, fake.last(t).Query, "reminder_sent=eq.false")

	fake.mu.Lock()
	fake.body = "[]"
	fake.mu.Unlock()

	won, err = repo.ClaimReminder(t.Context(), 12)
	require.NoError(t, err)
	assert.False(t, won)
}
