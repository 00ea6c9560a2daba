package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/supabase-community/supabase-go"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

// SupabaseRepo is the record store and identity provider adapter. The client
// must be built with the service role key; row level security is enforced by
// the handlers instead.
type SupabaseRepo struct {
	supabaseClient *supabase.Client
	serviceKey     string
}

func SupabaseNewRepo(supabaseClient *supabase.Client, serviceKey string) *SupabaseRepo {
	return &SupabaseRepo{
		supabaseClient: supabaseClient,
		serviceKey:     serviceKey,
	}
}

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(colName string) (*mongo.Collection, error) {
	if mdb == nil || mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// PostgREST always answers with an array, even for single row lookups.
func decodeRows[T any](raw []byte) ([]T, error) {
	var rows []T
	if len(raw) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rows: %w", err)
	}
	return rows, nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
