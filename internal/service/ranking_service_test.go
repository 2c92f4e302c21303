package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/planit-app/ranking-backend/internal/leaderboard"
	"github.com/planit-app/ranking-backend/internal/models"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []*models.RankingUpdateEvent
	err    error
}

func (p *capturePublisher) Publish(event *models.RankingUpdateEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type captureSink struct {
	mu    sync.Mutex
	items []models.LedgerSyncItem
}

func (s *captureSink) Enqueue(item models.LedgerSyncItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

type stubScoreRepo struct {
	records map[models.PeriodType][]models.ScoreRecord
}

func (r *stubScoreRepo) ApplySyncBatch(items []models.LedgerSyncItem) error { return nil }

func (r *stubScoreRepo) ListByPeriod(pt models.PeriodType, periodKey string) ([]models.ScoreRecord, error) {
	return r.records[pt], nil
}

func (r *stubScoreRepo) TopByPeriod(pt models.PeriodType, periodKey string, limit int) ([]models.ScoreRecord, error) {
	return nil, nil
}

func (r *stubScoreRepo) HistoryByUser(userID uint, limit int) ([]models.AwardHistory, error) {
	return nil, nil
}

func newTestService() (RankingService, *capturePublisher, *captureSink) {
	pub := &capturePublisher{}
	sink := &captureSink{}
	svc := NewRankingService(leaderboard.NewRegistry(), nil, pub, sink)
	return svc, pub, sink
}

func TestOnAwardRejectsInvalidDelta(t *testing.T) {
	svc, pub, sink := newTestService()

	for _, delta := range []int64{0, -10} {
		if _, err := svc.OnAward(1, "alice", "Alice", delta); !errors.Is(err, leaderboard.ErrInvalidDelta) {
			t.Errorf("delta %d: got %v, want ErrInvalidDelta", delta, err)
		}
	}
	if len(pub.events) != 0 || len(sink.items) != 0 {
		t.Error("rejected award still produced events or ledger items")
	}
}

func TestOnAwardEmitsOneEventPerPeriod(t *testing.T) {
	svc, pub, sink := newTestService()

	events, err := svc.OnAward(7, "carol", "Carol", 5)
	if err != nil {
		t.Fatalf("OnAward: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want one per period", len(events))
	}

	seen := make(map[models.PeriodType]bool)
	for _, event := range events {
		seen[event.PeriodType] = true
		if event.EventType != models.EventRankingUpdate {
			t.Errorf("eventType = %s", event.EventType)
		}
		if event.PeriodKey != event.PeriodType.CurrentKey(time.Now()) {
			t.Errorf("%s periodKey = %q", event.PeriodType, event.PeriodKey)
		}
		u := event.UpdatedUser
		if u == nil {
			t.Fatal("ranking update without updatedUser")
		}
		if u.PreviousRank != nil {
			t.Errorf("new entrant previousRank = %v, want nil", *u.PreviousRank)
		}
		if u.CurrentRank != 1 || u.NewScore != 5 || u.ScoreDelta != 5 {
			t.Errorf("updatedUser = %+v", u)
		}
		if len(event.Top10) != 1 || event.Top10[0].UserID != 7 || event.Top10[0].Rank != 1 {
			t.Errorf("top10 = %+v", event.Top10)
		}
		if _, err := time.Parse(time.RFC3339, event.Timestamp); err != nil {
			t.Errorf("timestamp %q not RFC3339: %v", event.Timestamp, err)
		}
	}
	for _, pt := range models.AllPeriodTypes() {
		if !seen[pt] {
			t.Errorf("no event for %s", pt)
		}
	}

	if len(pub.events) != 3 {
		t.Errorf("published %d events, want 3", len(pub.events))
	}
	if len(sink.items) != 3 {
		t.Errorf("enqueued %d ledger items, want 3", len(sink.items))
	}
	for _, item := range sink.items {
		if item.UserID != 7 || item.Delta != 5 || item.NewScore != 5 {
			t.Errorf("ledger item = %+v", item)
		}
	}
}

func TestOnAwardSecondAwardCarriesPreviousRank(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.OnAward(1, "a", "A", 50); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.OnAward(2, "b", "B", 30); err != nil {
		t.Fatal(err)
	}

	events, err := svc.OnAward(2, "b", "B", 25)
	if err != nil {
		t.Fatal(err)
	}
	for _, event := range events {
		u := event.UpdatedUser
		if u.PreviousRank == nil || *u.PreviousRank != 2 {
			t.Errorf("%s previousRank = %v, want 2", event.PeriodType, u.PreviousRank)
		}
		if u.CurrentRank != 1 || u.NewScore != 55 {
			t.Errorf("%s updatedUser = %+v", event.PeriodType, u)
		}
		if len(event.Top10) != 2 || event.Top10[0].UserID != 2 || event.Top10[1].UserID != 1 {
			t.Errorf("%s top10 = %+v", event.PeriodType, event.Top10)
		}
	}
}

func TestOnAwardSurvivesPublisherFailure(t *testing.T) {
	pub := &capturePublisher{err: errors.New("redis down")}
	svc := NewRankingService(leaderboard.NewRegistry(), nil, pub, &captureSink{})

	events, err := svc.OnAward(1, "a", "A", 10)
	if err != nil {
		t.Fatalf("award failed on publish error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events", len(events))
	}
	if rank, err := svc.UserRank(models.PeriodWeekly, 1); err != nil || rank != 1 {
		t.Errorf("score not applied: rank=%d err=%v", rank, err)
	}
}

func TestTopRankingsValidation(t *testing.T) {
	svc, _, _ := newTestService()

	if _, _, err := svc.TopRankings(models.PeriodType("DAILY")); !errors.Is(err, models.ErrUnknownPeriod) {
		t.Errorf("got %v, want ErrUnknownPeriod", err)
	}

	key, entries, err := svc.TopRankings(models.PeriodWeekly)
	if err != nil {
		t.Fatal(err)
	}
	if key != models.PeriodWeekly.CurrentKey(time.Now()) {
		t.Errorf("periodKey = %q", key)
	}
	if len(entries) != 0 {
		t.Errorf("empty period returned %d entries", len(entries))
	}
}

func TestUserRankBeforeAnyAward(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.UserRank(models.PeriodMonthly, 5); !errors.Is(err, leaderboard.ErrUserNotRanked) {
		t.Errorf("got %v, want ErrUserNotRanked", err)
	}
}

func TestInitialSnapshotShape(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.OnAward(3, "c", "C", 12); err != nil {
		t.Fatal(err)
	}

	event := svc.InitialSnapshot(models.PeriodAllTime)
	if event == nil {
		t.Fatal("nil snapshot")
	}
	if event.EventType != models.EventInitialRanking {
		t.Errorf("eventType = %s", event.EventType)
	}
	if event.UpdatedUser != nil {
		t.Errorf("initial snapshot carries updatedUser: %+v", event.UpdatedUser)
	}
	if len(event.Top10) != 1 || event.Top10[0].UserID != 3 {
		t.Errorf("top10 = %+v", event.Top10)
	}
}

func TestRehydrateCurrentRestoresBoards(t *testing.T) {
	repo := &stubScoreRepo{
		records: map[models.PeriodType][]models.ScoreRecord{
			models.PeriodWeekly: {
				{UserID: 1, LoginID: "a", Nickname: "A", Score: 40},
				{UserID: 2, LoginID: "b", Nickname: "B", Score: 60},
			},
		},
	}
	pub := &capturePublisher{}
	svc := NewRankingService(leaderboard.NewRegistry(), repo, pub, &captureSink{})

	if err := svc.RehydrateCurrent(); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 0 {
		t.Error("rehydration broadcast events")
	}

	rank, err := svc.UserRank(models.PeriodWeekly, 2)
	if err != nil || rank != 1 {
		t.Errorf("rank of restored user = %d, %v", rank, err)
	}
	_, top, err := svc.TopRankings(models.PeriodWeekly)
	if err != nil || len(top) != 2 || top[0].Score != 60 {
		t.Errorf("restored top = %+v, %v", top, err)
	}
}

func TestEvictPeriod(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.OnAward(1, "a", "A", 10); err != nil {
		t.Fatal(err)
	}

	key := models.PeriodWeekly.CurrentKey(time.Now())
	if err := svc.EvictPeriod(models.PeriodWeekly, key); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UserRank(models.PeriodWeekly, 1); !errors.Is(err, leaderboard.ErrUserNotRanked) {
		t.Errorf("got %v after eviction, want ErrUserNotRanked", err)
	}
	// The other periods keep their boards.
	if rank, err := svc.UserRank(models.PeriodAllTime, 1); err != nil || rank != 1 {
		t.Errorf("alltime rank = %d, %v", rank, err)
	}
}
