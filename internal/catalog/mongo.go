package catalog

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spigell/interview-screener/internal/interview"
)

const questionsCollection = "interview_questions"

// MongoSource loads questions managed outside of this service.
type MongoSource struct {
	questions *mongo.Collection
}

func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{questions: db.Collection(questionsCollection)}
}

// Load returns the stored questions ordered by creation time.
func (s *MongoSource) Load(ctx context.Context) (*interview.Catalog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.questions.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", questionsCollection, err)
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", questionsCollection, err)
	}

	return FromEntries(entries, false)
}
