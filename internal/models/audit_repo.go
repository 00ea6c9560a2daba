package models

import (
	"context"

	"github.com/supabase-community/postgrest-go"
)

type AuditRepo interface {
	InsertAuditLog(ctx context.Context, entry *AuditLog) (*AuditLog, error)
	ListAuditLogs(ctx context.Context) ([]AuditLog, error)
}

func (su *SupabaseRepo) InsertAuditLog(ctx context.Context, entry *AuditLog) (*AuditLog, error) {
	row := map[string]interface{}{
		"booking_id": entry.BookingID,
		"admin_id":   entry.AdminID,
		"action":     entry.Action,
	}
	if entry.Notes != "" {
		row["notes"] = entry.Notes
	}

	raw, _, err := su.supabaseClient.From(AuditLogsTable).
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, upstream("insert audit log", err)
	}

	entries, err := decodeRows[AuditLog](raw)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entry, nil
	}
	return &entries[0], nil
}

func (su *SupabaseRepo) ListAuditLogs(ctx context.Context) ([]AuditLog, error) {
	raw, _, err := su.supabaseClient.From(AuditLogsTable).
		Select("id,booking_id,admin_id,action,notes,created_at", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, upstream("list audit logs", err)
	}
	return decodeRows[AuditLog](raw)
}
