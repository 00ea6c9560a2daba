package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/churchbook/internal/models"
)

type VenuesService struct {
	venuesRepo models.VenuesRepo
	logger     *slog.Logger
}

func NewVenuesService(venuesRepo models.VenuesRepo, logger *slog.Logger) *VenuesService {
	return &VenuesService{
		venuesRepo: venuesRepo,
		logger:     logger,
	}
}

func checkArea(area string) error {
	if !models.IsVenueArea(area) {
		return models.ValidationError{
			Field: "area",
			Msg:   fmt.Sprintf("must be one of: %s", strings.Join(models.VenueAreas, ", ")),
		}
	}
	return nil
}

func (vs *VenuesService) CreateVenue(ctx context.Context, actor Actor, input *models.VenueInput) (*models.Venue, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validate(input); err != nil {
		return nil, err
	}
	if err := checkArea(input.Area); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	venue := &models.Venue{
		ID:          uuid.New(),
		Name:        input.Name,
		Area:        input.Area,
		CapacityMin: input.CapacityMin,
		CapacityMax: input.CapacityMax,
		Description: input.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.IsActive != nil {
		venue.IsActive = *input.IsActive
	}

	created, err := vs.venuesRepo.CreateVenue(ctx, venue)
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	vs.logger.Info("Venue created", "venue_id", created.ID, "name", created.Name)
	return created, nil
}

func (vs *VenuesService) GetVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	if id == uuid.Nil {
		return nil, models.ValidationError{Field: "id", Msg: "invalid UUID"}
	}
	return vs.venuesRepo.GetVenueByID(ctx, id)
}

// ListVenues hides inactive venues from everyone but administrators.
func (vs *VenuesService) ListVenues(ctx context.Context, actor Actor) ([]models.Venue, error) {
	return vs.venuesRepo.ListVenues(ctx, !actor.IsAdmin())
}

func (vs *VenuesService) UpdateVenue(ctx context.Context, actor Actor, id uuid.UUID, patch *models.VenuePatch) (*models.Venue, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate(patch); err != nil {
		return nil, err
	}

	current, err := vs.GetVenue(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Area != nil {
		if err := checkArea(*patch.Area); err != nil {
			return nil, err
		}
		fields["area"] = *patch.Area
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}

	minCap, maxCap := current.CapacityMin, current.CapacityMax
	if patch.CapacityMin != nil {
		minCap = *patch.CapacityMin
		fields["capacity_min"] = minCap
	}
	if patch.CapacityMax != nil {
		maxCap = *patch.CapacityMax
		fields["capacity_max"] = maxCap
	}
	if minCap > maxCap {
		return nil, models.ValidationError{Field: "capacity_max", Msg: "must not be less than capacity_min"}
	}

	if len(fields) == 0 {
		return current, nil
	}
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	return vs.venuesRepo.UpdateVenue(ctx, id, fields)
}
