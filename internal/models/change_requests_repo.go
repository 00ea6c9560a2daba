package models

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type ChangeRequestRepo interface {
	InsertChangeRequest(ctx context.Context, req *ChangeRequest) (*ChangeRequest, error)
	GetChangeRequest(ctx context.Context, id int64) (*ChangeRequest, error)
	ListChangeRequests(ctx context.Context, userID uuid.UUID) ([]ChangeRequest, error)
	UpdateChangeRequest(ctx context.Context, id int64, from ChangeRequestStatus, fields map[string]interface{}) (*ChangeRequest, error)
	DeleteChangeRequest(ctx context.Context, id int64) error
}

func firstChangeRequest(raw []byte) (*ChangeRequest, error) {
	rows, err := decodeRows[ChangeRequest](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, NotFoundError{Resource: "change request"}
	}
	return &rows[0], nil
}

func (su *SupabaseRepo) InsertChangeRequest(ctx context.Context, req *ChangeRequest) (*ChangeRequest, error) {
	row := map[string]interface{}{
		"booking_id":  req.BookingID,
		"user_id":     req.UserID,
		"event_name":  req.EventName,
		"description": req.Description,
		"status":      req.Status,
	}

	raw, _, err := su.supabaseClient.From(ChangeRequestsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, upstream("insert change request", err)
	}
	return firstChangeRequest(raw)
}

func (su *SupabaseRepo) GetChangeRequest(ctx context.Context, id int64) (*ChangeRequest, error) {
	raw, _, err := su.supabaseClient.From(ChangeRequestsTable).
		Select("*", "", false).
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return nil, upstream("get change request", err)
	}
	return firstChangeRequest(raw)
}

// ListChangeRequests returns every request, newest first. A non-nil userID
// restricts it to that submitter.
func (su *SupabaseRepo) ListChangeRequests(ctx context.Context, userID uuid.UUID) ([]ChangeRequest, error) {
	query := su.supabaseClient.From(ChangeRequestsTable).Select("*", "", false)
	if userID != uuid.Nil {
		query = query.Eq("user_id", userID.String())
	}

	raw, _, err := query.
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, upstream("list change requests", err)
	}
	return decodeRows[ChangeRequest](raw)
}

// UpdateChangeRequest only touches the row while its status is still from.
func (su *SupabaseRepo) UpdateChangeRequest(ctx context.Context, id int64, from ChangeRequestStatus, fields map[string]interface{}) (*ChangeRequest, error) {
	query := su.supabaseClient.From(ChangeRequestsTable).
		Update(fields, "representation", "").
		Eq("id", strconv.FormatInt(id, 10))
	if from != "" {
		query = query.Eq("status", string(from))
	}
	raw, _, err := query.Execute()
	if err != nil {
		return nil, upstream("update change request", err)
	}
	updated, err := firstChangeRequest(raw)
	if from != "" && IsNotFound(err) {
		return nil, ConflictError{Resource: "change request", Msg: "change request was already reviewed, reload and retry"}
	}
	return updated, err
}

func (su *SupabaseRepo) DeleteChangeRequest(ctx context.Context, id int64) error {
	raw, _, err := su.supabaseClient.From(ChangeRequestsTable).
		Delete("representation", "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return upstream("delete change request", err)
	}
	_, err = firstChangeRequest(raw)
	return err
}
