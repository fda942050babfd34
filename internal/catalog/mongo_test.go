package catalog

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/spigell/interview-screener/internal/interview"
)

func TestMongoSourceLoad(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("numbers questions in stored order", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + questionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "section", Value: "Technical Competencies"}, {Key: "question", Value: "First?"}},
			bson.D{{Key: "question", Value: "Second?"}},
		))

		c, err := NewMongoSource(mt.DB).Load(context.Background())
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}

		if c.Len() != 2 {
			mt.Fatalf("expected 2 questions, got %d", c.Len())
		}

		second, _ := c.At(1)
		if second.ID != 2 || second.Section != interview.SectionTechnical {
			mt.Fatalf("expected missing section to default to technical, got %+v", second)
		}
	})

	mt.Run("empty collection", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + questionsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := NewMongoSource(mt.DB).Load(context.Background()); err == nil {
			mt.Fatalf("expected error for empty catalog")
		}
	})
}
