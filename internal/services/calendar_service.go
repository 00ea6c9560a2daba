package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/joshua-takyi/churchbook/internal/models"
)

type BookingLister interface {
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	FindOverlapping(ctx context.Context, venue string, start, end time.Time, statuses []models.BookingStatus, excludeID int64) ([]models.Booking, error)
}

type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type DaySchedule struct {
	Venue  string      `json:"venue"`
	Date   string      `json:"date"`
	Booked []TimeRange `json:"booked"`
	Free   []TimeRange `json:"free"`
}

type CalendarService struct {
	bookings BookingLister
	loc      *time.Location
}

func NewCalendarService(bookings BookingLister, loc *time.Location) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarService{bookings: bookings, loc: loc}
}

// VenueBookings lists the live bookings on a venue in start order.
func (cs *CalendarService) VenueBookings(ctx context.Context, venue string) ([]models.Booking, error) {
	venue = strings.TrimSpace(venue)
	if venue == "" {
		return nil, models.ValidationError{Field: "venue", Msg: "is required"}
	}
	return cs.bookings.ListBookings(ctx, models.BookingFilter{
		Venue:    venue,
		Statuses: []models.BookingStatus{models.BookingPending, models.BookingApproved},
	})
}

// Day reports the approved ranges touching date (YYYY-MM-DD, read in the
// configured zone), clipped to that day, and the gaps left between them.
func (cs *CalendarService) Day(ctx context.Context, venue, date string) (*DaySchedule, error) {
	venue = strings.TrimSpace(venue)
	if venue == "" {
		return nil, models.ValidationError{Field: "venue", Msg: "is required"}
	}
	dayStart, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), cs.loc)
	if err != nil {
		return nil, models.ValidationError{Field: "date", Msg: "must be YYYY-MM-DD"}
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := cs.bookings.FindOverlapping(ctx, venue, dayStart, dayEnd, []models.BookingStatus{models.BookingApproved}, 0)
	if err != nil {
		return nil, err
	}

	booked := make([]TimeRange, 0, len(rows))
	for _, b := range rows {
		r := TimeRange{Start: b.StartDatetime.In(cs.loc), End: b.EndDatetime.In(cs.loc)}
		if r.Start.Before(dayStart) {
			r.Start = dayStart
		}
		if r.End.After(dayEnd) {
			r.End = dayEnd
		}
		booked = append(booked, r)
	}
	sort.Slice(booked, func(i, j int) bool { return booked[i].Start.Before(booked[j].Start) })

	return &DaySchedule{
		Venue:  venue,
		Date:   dayStart.Format("2006-01-02"),
		Booked: booked,
		Free:   freeWindows(booked, dayStart, dayEnd),
	}, nil
}

// freeWindows expects booked sorted by start.
func freeWindows(booked []TimeRange, from, to time.Time) []TimeRange {
	free := []TimeRange{}
	cursor := from
	for _, r := range booked {
		if r.Start.After(cursor) {
			end := r.Start
			if end.After(to) {
				end = to
			}
			free = append(free, TimeRange{Start: cursor, End: end})
		}
		if r.End.After(cursor) {
			cursor = r.End
		}
		if !cursor.Before(to) {
			return free
		}
	}
	if cursor.Before(to) {
		free = append(free, TimeRange{Start: cursor, End: to})
	}
	return free
}
