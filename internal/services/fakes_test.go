package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
	"github.com/joshua-takyi/churchbook/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBookings struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]models.Booking
	failList error
	updates  int
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{nextID: 1, rows: map[int64]models.Booking{}}
}

func (f *fakeBookings) seed(b models.Booking) models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == 0 {
		b.ID = f.nextID
	}
	if b.ID >= f.nextID {
		f.nextID = b.ID + 1
	}
	b.DisplayID = models.DisplayIDFor(b.ID)
	f.rows[b.ID] = b
	return b
}

func hasStatus(statuses []models.BookingStatus, s models.BookingStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (f *fakeBookings) FindOverlapping(ctx context.Context, venue string, start, end time.Time, statuses []models.BookingStatus, excludeID int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, b := range f.rows {
		if b.Venue == venue && b.ID != excludeID && hasStatus(statuses, b.Status) && b.Overlaps(start, end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) InsertBooking(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	b.CreatedAt = time.Now().UTC()
	created := f.seed(*b)
	return &created, nil
}

func (f *fakeBookings) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "booking"}
	}
	return &b, nil
}

func (f *fakeBookings) GetBookings(ctx context.Context, ids []int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, id := range ids {
		if b, ok := f.rows[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Booking{}
	for _, b := range f.rows {
		if filter.UserID != uuid.Nil && b.UserID != filter.UserID {
			continue
		}
		if filter.Venue != "" && b.Venue != filter.Venue {
			continue
		}
		if !hasStatus(filter.Statuses, b.Status) {
			continue
		}
		if !filter.StartsFrom.IsZero() && b.StartDatetime.Before(filter.StartsFrom) {
			continue
		}
		if !filter.StartsBefore.IsZero() && !b.StartDatetime.Before(filter.StartsBefore) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Descending {
			return out[i].StartDatetime.After(out[j].StartDatetime)
		}
		return out[i].StartDatetime.Before(out[j].StartDatetime)
	})
	return out, nil
}

func (f *fakeBookings) TransitionStatus(ctx context.Context, id int64, from, to models.BookingStatus) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok || b.Status != from {
		return nil, models.ConflictError{Resource: "booking", Msg: "booking status changed concurrently, reload and retry"}
	}
	b.Status = to
	f.rows[id] = b
	return &b, nil
}

func (f *fakeBookings) UpdateBooking(ctx context.Context, id int64, from models.BookingStatus, fields map[string]interface{}) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "booking"}
	}
	if from != "" && b.Status != from {
		return nil, models.ConflictError{Resource: "booking", Msg: "booking status changed concurrently, reload and retry"}
	}
	f.updates++
	for k, v := range fields {
		switch k {
		case "event_name":
			b.EventName = v.(string)
		case "purpose":
			b.Purpose = v.(string)
		case "venue":
			b.Venue = v.(string)
		case "attendees":
			b.Attendees = v.(int)
		case "additional_needs":
			b.AdditionalNeeds = v.(string)
		case "reminder_sent":
			b.ReminderSent = v.(bool)
		case "status":
			b.Status = models.BookingStatus(v.(string))
		case "start_datetime":
			b.StartDatetime, _ = time.Parse(time.RFC3339, v.(string))
		case "end_datetime":
			b.EndDatetime, _ = time.Parse(time.RFC3339, v.(string))
		}
	}
	f.rows[id] = b
	return &b, nil
}

func (f *fakeBookings) DeleteBooking(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return models.NotFoundError{Resource: "booking"}
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeBookings) ClaimReminder(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok || b.ReminderSent {
		return false, nil
	}
	b.ReminderSent = true
	f.rows[id] = b
	return true, nil
}

type fakeAudits struct {
	mu      sync.Mutex
	entries []models.AuditLog
	fail    error
}

func (f *fakeAudits) InsertAuditLog(ctx context.Context, entry *models.AuditLog) (*models.AuditLog, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = int64(len(f.entries) + 1)
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, *entry)
	return entry, nil
}

func (f *fakeAudits) ListAuditLogs(ctx context.Context) ([]models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.AuditLog, len(f.entries))
	for i := range f.entries {
		out[len(f.entries)-1-i] = f.entries[i]
	}
	return out, nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []notify.Job
	fail error
}

func (f *fakeDispatcher) Enqueue(ctx context.Context, job notify.Job) error {
	if f.fail != nil {
		return f.fail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeDispatcher) Close() error { return nil }

func (f *fakeDispatcher) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j.Kind)
	}
	return out
}

type fakeIdentity struct {
	signUpErr  error
	signInErr  error
	ids        map[string]uuid.UUID
	deleted    []uuid.UUID
	deleteFail error
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{ids: map[string]uuid.UUID{}}
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (uuid.UUID, error) {
	if f.signUpErr != nil {
		return uuid.Nil, f.signUpErr
	}
	id := uuid.New()
	f.ids[email] = id
	return id, nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (uuid.UUID, error) {
	if f.signInErr != nil {
		return uuid.Nil, f.signInErr
	}
	id, ok := f.ids[email]
	if !ok {
		return uuid.Nil, models.AuthError{Msg: "Invalid credentials"}
	}
	return id, nil
}

func (f *fakeIdentity) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return f.deleteFail
}

type fakeUsers struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]models.User
	createErr error
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{rows: map[uuid.UUID]models.User{}}
	for _, u := range users {
		f.rows[u.ID] = u
	}
	return f
}

func (f *fakeUsers) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u.CreatedAt = time.Now().UTC()
	f.rows[u.ID] = *u
	return u, nil
}

func (f *fakeUsers) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "user"}
	}
	return &u, nil
}

func (f *fakeUsers) GetUsers(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "user"}
	}
	for k, v := range fields {
		switch k {
		case "full_name":
			u.FullName = v.(string)
		case "contact_number":
			u.ContactNumber = v.(string)
		case "role":
			u.Role = v.(models.Role)
		}
	}
	f.rows[id] = u
	return &u, nil
}

func (f *fakeUsers) CountUsers(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows), nil
}

type fakeApprover struct {
	calls   int
	applied int
	err     error
	store   *fakeBookings
}

func (f *fakeApprover) ApproveBooking(ctx context.Context, id int64, statuses []models.BookingStatus) (*models.Booking, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	b, err := f.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.store.TransitionStatus(ctx, id, b.Status, models.BookingApproved)
}

func (f *fakeApprover) ApplyApproved(ctx context.Context, id int64, from models.BookingStatus, fields map[string]interface{}, statuses []models.BookingStatus) (*models.Booking, error) {
	f.applied++
	if f.err != nil {
		return nil, f.err
	}
	withStatus := map[string]interface{}{"status": string(models.BookingApproved)}
	for k, v := range fields {
		withStatus[k] = v
	}
	return f.store.UpdateBooking(ctx, id, from, withStatus)
}

var errStore = errors.New("store unavailable")

var (
	adminActor = Actor{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), Role: models.RoleAdmin}
	userActor  = Actor{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000b1"), Role: models.RoleMinistryHead}
)

func at(hour int) time.Time {
	return time.Date(2030, 5, 10, hour, 0, 0, 0, time.UTC)
}
