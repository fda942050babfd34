package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spigell/interview-screener/internal/sink"
)

const (
	resultsCollection = "interview_results"
	defaultListLimit  = 100
	maxListLimit      = 1000
)

// ListFilter narrows down stored results. Zero values mean no restriction
// and the default limit.
type ListFilter struct {
	CandidateID string
	Limit       int
}

// ResultRepo handles MongoDB operations for interview results.
type ResultRepo interface {
	Persist(ctx context.Context, r sink.Record) error
	List(ctx context.Context, filter ListFilter) ([]sink.Record, error)
}

type resultRepo struct {
	results *mongo.Collection
}

func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{results: db.Collection(resultsCollection)}
}

func (r *resultRepo) Persist(ctx context.Context, rec sink.Record) error {
	if _, err := r.results.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert into %s: %w", resultsCollection, err)
	}
	return nil
}

// List returns results newest first.
func (r *resultRepo) List(ctx context.Context, filter ListFilter) ([]sink.Record, error) {
	query := bson.M{}
	if filter.CandidateID != "" {
		query["candidate_id"] = filter.CandidateID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetLimit(int64(clampLimit(filter.Limit)))

	cursor, err := r.results.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", resultsCollection, err)
	}
	defer cursor.Close(ctx)

	records := []sink.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resultsCollection, err)
	}

	return records, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}
