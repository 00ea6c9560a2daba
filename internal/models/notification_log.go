package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	NotificationAttemptsColName = "notification_attempts"
	notificationRetention       = 90 * 24 * time.Hour
)

type AttemptStatus string

const (
	AttemptSent    AttemptStatus = "sent"
	AttemptFailed  AttemptStatus = "failed"
	AttemptSkipped AttemptStatus = "skipped"
)

// NotificationAttempt records one delivery try for an outbound email,
// whatever its outcome.
type NotificationAttempt struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind            string             `bson:"kind" json:"kind"`
	BookingID       int64              `bson:"booking_id,omitempty" json:"booking_id,omitempty"`
	ChangeRequestID int64              `bson:"change_request_id,omitempty" json:"change_request_id,omitempty"`
	Recipient       string             `bson:"recipient" json:"recipient"`
	Subject         string             `bson:"subject" json:"subject"`
	Status          AttemptStatus      `bson:"status" json:"status"`
	Error           string             `bson:"error,omitempty" json:"error,omitempty"`
	AttemptedAt     time.Time          `bson:"attempted_at" json:"attempted_at"`
	ExpiresAt       time.Time          `bson:"expires_at" json:"-"`
}

type AttemptStats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Skipped int64 `json:"skipped"`
}

type DeliveryLog interface {
	RecordAttempt(ctx context.Context, attempt *NotificationAttempt) error
	ListAttempts(ctx context.Context, bookingID int64, limit int) ([]NotificationAttempt, error)
	AttemptStats(ctx context.Context, since time.Time) (*AttemptStats, error)
}

// EnsureIndexes creates the TTL index that ages out old attempts plus the
// lookup index used by ListAttempts.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(NotificationAttemptsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(0).
				SetName("expires_at_ttl"),
		},
		{
			Keys: bson.D{
				{Key: "booking_id", Value: 1},
				{Key: "attempted_at", Value: -1},
			},
			Options: options.Index().SetName("booking_attempted_at_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) RecordAttempt(ctx context.Context, attempt *NotificationAttempt) error {
	col, err := mdb.GetCollection(NotificationAttemptsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now().UTC()
	}
	attempt.ExpiresAt = attempt.AttemptedAt.Add(notificationRetention)
	if attempt.ID.IsZero() {
		attempt.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, attempt); err != nil {
		return fmt.Errorf("error inserting notification attempt: %w", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListAttempts(ctx context.Context, bookingID int64, limit int) ([]NotificationAttempt, error) {
	col, err := mdb.GetCollection(NotificationAttemptsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "attempted_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding notification attempts: %w", err)
	}
	defer cursor.Close(ctx)

	attempts := []NotificationAttempt{}
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, fmt.Errorf("error decoding notification attempts: %w", err)
	}
	return attempts, nil
}

func (mdb *MongodbRepo) AttemptStats(ctx context.Context, since time.Time) (*AttemptStats, error) {
	col, err := mdb.GetCollection(NotificationAttemptsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"attempted_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating notification attempts: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status AttemptStatus `bson:"_id"`
		Count  int64         `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("error decoding notification stats: %w", err)
	}

	stats := &AttemptStats{}
	for _, g := range groups {
		switch g.Status {
		case AttemptSent:
			stats.Sent = g.Count
		case AttemptFailed:
			stats.Failed = g.Count
		case AttemptSkipped:
			stats.Skipped = g.Count
		}
	}
	return stats, nil
}
