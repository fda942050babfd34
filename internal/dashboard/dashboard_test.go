package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/interview"
	"github.com/spigell/interview-screener/internal/sink"
	"github.com/spigell/interview-screener/internal/storage"
)

func record(score float64, level interview.Level, ai bool, completed time.Time) sink.Record {
	return sink.Record{
		CandidateID:       "cand",
		OverallScore:      score,
		OverallLevel:      level,
		TechnicalAccuracy: score / 4,
		ProblemSolving:    score / 4,
		Communication:     score / 4,
		Documentation:     score / 4,
		AIDetected:        ai,
		CompletedAt:       completed,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	overview := Summarize(nil, time.Now())

	if overview.TotalInterviews != 0 || overview.AverageScore != 0 || overview.AIDetection.High {
		t.Fatalf("unexpected empty overview: %+v", overview)
	}
	if len(overview.ScoreDistribution) != 5 || overview.Levels[interview.Level2] != 0 {
		t.Fatalf("expected initialized buckets and levels: %+v", overview)
	}
}

func TestSummarize(t *testing.T) {
	sep := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	oct := time.Date(2026, 10, 5, 12, 0, 0, 0, time.UTC)

	records := []sink.Record{
		record(92, interview.Level3, false, sep),
		record(84, interview.Level3, false, oct),
		record(72, interview.Level2, false, oct),
		record(0, interview.Level1, true, oct),
	}

	overview := Summarize(records, oct)

	if overview.TotalInterviews != 4 {
		t.Fatalf("expected 4 interviews, got %d", overview.TotalInterviews)
	}
	if overview.AverageScore != 62 {
		t.Fatalf("expected average 62, got %v", overview.AverageScore)
	}
	if overview.PassRate != 75 {
		t.Fatalf("expected pass rate 75, got %v", overview.PassRate)
	}
	if overview.Levels[interview.Level3] != 2 || overview.Levels[interview.Level2] != 1 || overview.Levels[interview.Level1] != 1 {
		t.Fatalf("unexpected level distribution: %v", overview.Levels)
	}

	wantBuckets := []int{1, 1, 1, 0, 1}
	for i, want := range wantBuckets {
		if overview.ScoreDistribution[i].Count != want {
			t.Fatalf("bucket %s: expected %d, got %d", overview.ScoreDistribution[i].Label, want, overview.ScoreDistribution[i].Count)
		}
	}

	ai := overview.AIDetection
	if ai.Count != 1 || ai.Rate != 25 || !ai.High {
		t.Fatalf("unexpected ai detection stats: %+v", ai)
	}
	if ai.AverageScoreAI != 0 || ai.AverageScoreClean != 82.7 {
		t.Fatalf("unexpected ai score split: %+v", ai)
	}
	if len(ai.Recent) != 1 {
		t.Fatalf("expected one recent detection, got %d", len(ai.Recent))
	}

	if len(overview.Trends) != 2 {
		t.Fatalf("expected 2 monthly trends, got %d", len(overview.Trends))
	}
	latest := overview.Trends[0]
	if latest.Month != time.October || latest.TotalInterviews != 3 || latest.AverageScore != 52 || latest.AIDetectionRate != 33.3 {
		t.Fatalf("unexpected latest trend: %+v", latest)
	}
	if overview.Trends[1].Month != time.September {
		t.Fatalf("expected trends newest first: %+v", overview.Trends)
	}
}

type fakeRepo struct {
	records   []sink.Record
	listCalls int
	persisted []sink.Record
	err       error
}

func (f *fakeRepo) Persist(_ context.Context, r sink.Record) error {
	if f.err != nil {
		return f.err
	}
	f.persisted = append(f.persisted, r)
	return nil
}

func (f *fakeRepo) List(_ context.Context, filter storage.ListFilter) ([]sink.Record, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type memoryCache struct {
	data        []byte
	invalidated int
}

func (m *memoryCache) Get(_ context.Context, target any) (bool, error) {
	if m.data == nil {
		return false, nil
	}
	return true, json.Unmarshal(m.data, target)
}

func (m *memoryCache) Set(_ context.Context, value any) error {
	data, err := json.Marshal(value)
	m.data = data
	return err
}

func (m *memoryCache) Invalidate(context.Context) error {
	m.data = nil
	m.invalidated++
	return nil
}

func TestServiceCachesOverview(t *testing.T) {
	repo := &fakeRepo{records: []sink.Record{record(80, interview.Level3, false, time.Now())}}
	cache := &memoryCache{}
	service := NewService(repo, cache, 0, zap.NewNop())
	ctx := context.Background()

	first, err := service.Overview(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.Overview(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.listCalls != 1 {
		t.Fatalf("expected results to be listed once, got %d", repo.listCalls)
	}
	if first.TotalInterviews != 1 || second.TotalInterviews != 1 {
		t.Fatalf("unexpected overviews: %+v / %+v", first, second)
	}

	if err := service.Persist(ctx, record(50, interview.Level2, false, time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.invalidated != 1 || len(repo.persisted) != 1 {
		t.Fatalf("expected persist to invalidate the cache")
	}

	if _, err := service.Overview(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected results to be listed again after invalidation, got %d", repo.listCalls)
	}
}

func TestServiceWithoutCache(t *testing.T) {
	repo := &fakeRepo{err: errors.New("mongo down")}
	service := NewService(repo, nil, 10, nil)

	if _, err := service.Overview(context.Background()); err == nil {
		t.Fatal("expected error from repository")
	}
	if err := service.Persist(context.Background(), sink.Record{}); err == nil {
		t.Fatal("expected persist error from repository")
	}
}
