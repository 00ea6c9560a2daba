package models

import (
	"context"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type VenuesRepo interface {
	CreateVenue(ctx context.Context, venue *Venue) (*Venue, error)
	GetVenueByID(ctx context.Context, id uuid.UUID) (*Venue, error)
	ListVenues(ctx context.Context, activeOnly bool) ([]Venue, error)
	UpdateVenue(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Venue, error)
}

func firstVenue(raw []byte) (*Venue, error) {
	venues, err := decodeRows[Venue](raw)
	if err != nil {
		return nil, err
	}
	if len(venues) == 0 {
		return nil, NotFoundError{Resource: "venue"}
	}
	return &venues[0], nil
}

func (su *SupabaseRepo) CreateVenue(ctx context.Context, venue *Venue) (*Venue, error) {
	venueData := map[string]interface{}{
		"id":           venue.ID,
		"name":         venue.Name,
		"area":         venue.Area,
		"capacity_min": venue.CapacityMin,
		"capacity_max": venue.CapacityMax,
		"description":  venue.Description,
		"is_active":    venue.IsActive,
		"created_at":   stamp(venue.CreatedAt),
		"updated_at":   stamp(venue.UpdatedAt),
	}

	data, _, err := su.supabaseClient.
		From(VenuesTable).
		Insert(venueData, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, upstream("insert venue", err)
	}
	return firstVenue(data)
}

func (su *SupabaseRepo) GetVenueByID(ctx context.Context, id uuid.UUID) (*Venue, error) {
	data, _, err := su.supabaseClient.From(VenuesTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, upstream("get venue", err)
	}
	return firstVenue(data)
}

func (su *SupabaseRepo) ListVenues(ctx context.Context, activeOnly bool) ([]Venue, error) {
	query := su.supabaseClient.From(VenuesTable).Select("*", "", false)
	if activeOnly {
		query = query.Eq("is_active", "true")
	}

	data, _, err := query.
		Order("name", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, upstream("list venues", err)
	}
	return decodeRows[Venue](data)
}

func (su *SupabaseRepo) UpdateVenue(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Venue, error) {
	data, _, err := su.supabaseClient.From(VenuesTable).
		Update(fields, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, upstream("update venue", err)
	}
	return firstVenue(data)
}
