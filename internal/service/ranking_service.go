package service

import (
	"fmt"
	"log"
	"time"

	"github.com/planit-app/ranking-backend/internal/leaderboard"
	"github.com/planit-app/ranking-backend/internal/models"
	"github.com/planit-app/ranking-backend/internal/repository"
)

// EventPublisher relays a ranking event toward subscribers. In production
// this is the Redis Pub/Sub bridge; tests inject a recorder.
type EventPublisher interface {
	Publish(event *models.RankingUpdateEvent) error
}

// LedgerSink accepts durable-write work items for async persistence.
type LedgerSink interface {
	Enqueue(item models.LedgerSyncItem) error
}

type RankingService interface {
	OnAward(userID uint, loginID, nickname string, delta int64) ([]*models.RankingUpdateEvent, error)
	TopRankings(pt models.PeriodType) (string, []models.RankingEntry, error)
	UserRank(pt models.PeriodType, userID uint) (int64, error)
	InitialSnapshot(pt models.PeriodType) *models.RankingUpdateEvent
	RehydrateCurrent() error
	EvictPeriod(pt models.PeriodType, periodKey string) error
}

type rankingService struct {
	registry  *leaderboard.Registry
	scoreRepo repository.ScoreRepository
	publisher EventPublisher
	ledger    LedgerSink
	now       func() time.Time
}

func NewRankingService(
	registry *leaderboard.Registry,
	scoreRepo repository.ScoreRepository,
	publisher EventPublisher,
	ledger LedgerSink,
) RankingService {
	return &rankingService{
		registry:  registry,
		scoreRepo: scoreRepo,
		publisher: publisher,
		ledger:    ledger,
		now:       time.Now,
	}
}

// OnAward applies one point award to every period's current board and
// emits one RANKING_UPDATE per period. Each event carries the awarded
// user's own rank movement plus a fresh top-10 snapshot of that board;
// broadcast and durable persistence happen after the board lock is
// released, so subscriber I/O never holds back score updates.
func (s *rankingService) OnAward(userID uint, loginID, nickname string, delta int64) ([]*models.RankingUpdateEvent, error) {
	if delta <= 0 {
		// Rejected before any board is touched: no partial state.
		return nil, leaderboard.ErrInvalidDelta
	}

	now := s.now().UTC()
	events := make([]*models.RankingUpdateEvent, 0, len(models.AllPeriodTypes()))

	for _, pt := range models.AllPeriodTypes() {
		periodKey := pt.CurrentKey(now)
		board := s.registry.Board(pt, periodKey)

		result, err := board.ApplyDelta(userID, loginID, nickname, delta)
		if err != nil {
			return nil, fmt.Errorf("apply %s award: %w", pt, err)
		}

		event := &models.RankingUpdateEvent{
			EventType:  models.EventRankingUpdate,
			PeriodType: pt,
			PeriodKey:  periodKey,
			Top10:      result.Top10,
			UpdatedUser: &models.UpdatedUserInfo{
				UserID:       userID,
				LoginID:      loginID,
				Nickname:     nickname,
				PreviousRank: result.PreviousRank,
				CurrentRank:  result.CurrentRank,
				ScoreDelta:   delta,
				NewScore:     result.Entry.Score,
			},
			Timestamp: now.Format(time.RFC3339),
		}
		events = append(events, event)

		if s.publisher != nil {
			if err := s.publisher.Publish(event); err != nil {
				// Broadcast failures never fail the award.
				log.Printf("⚠️  Failed to publish ranking update: %v", err)
			}
		}

		if s.ledger != nil {
			err := s.ledger.Enqueue(models.LedgerSyncItem{
				UserID:     userID,
				LoginID:    loginID,
				Nickname:   nickname,
				PeriodType: pt,
				PeriodKey:  periodKey,
				Delta:      delta,
				NewScore:   result.Entry.Score,
				Timestamp:  now,
			})
			if err != nil {
				log.Printf("⚠️  Failed to enqueue ledger sync for user %d: %v", userID, err)
			}
		}
	}

	log.Printf("Awarded %d points to user %d (%s)", delta, userID, loginID)
	return events, nil
}

// TopRankings returns the current period key and top-10 for a period.
// A period with no awards yet yields an empty board, not an error.
func (s *rankingService) TopRankings(pt models.PeriodType) (string, []models.RankingEntry, error) {
	if !pt.Valid() {
		return "", nil, models.ErrUnknownPeriod
	}
	periodKey := pt.CurrentKey(s.now())
	board, ok := s.registry.Lookup(pt, periodKey)
	if !ok {
		return periodKey, []models.RankingEntry{}, nil
	}
	return periodKey, board.TopK(leaderboard.TopSize), nil
}

// UserRank returns the user's rank on the period's current board.
func (s *rankingService) UserRank(pt models.PeriodType, userID uint) (int64, error) {
	if !pt.Valid() {
		return 0, models.ErrUnknownPeriod
	}
	board, ok := s.registry.Lookup(pt, pt.CurrentKey(s.now()))
	if !ok {
		return 0, leaderboard.ErrUserNotRanked
	}
	return board.RankOf(userID)
}

// InitialSnapshot builds the INITIAL_RANKING event a newly subscribed
// client receives for one period.
func (s *rankingService) InitialSnapshot(pt models.PeriodType) *models.RankingUpdateEvent {
	periodKey, top10, err := s.TopRankings(pt)
	if err != nil {
		return nil
	}
	return models.NewInitialRankingEvent(pt, periodKey, top10)
}

// RehydrateCurrent reloads every period's current board from the durable
// ledger, run once at startup before awards are accepted.
func (s *rankingService) RehydrateCurrent() error {
	if s.scoreRepo == nil {
		return nil
	}
	now := s.now()
	for _, pt := range models.AllPeriodTypes() {
		periodKey := pt.CurrentKey(now)
		records, err := s.scoreRepo.ListByPeriod(pt, periodKey)
		if err != nil {
			return fmt.Errorf("rehydrate %s/%s: %w", pt, periodKey, err)
		}
		if len(records) == 0 {
			continue
		}
		board := s.registry.Board(pt, periodKey)
		for _, rec := range records {
			board.Restore(models.ScoreEntry{
				UserID:   rec.UserID,
				LoginID:  rec.LoginID,
				Nickname: rec.Nickname,
				Score:    rec.Score,
			})
		}
		log.Printf("♻️  Rehydrated %s board %s (%d entries)", pt.Label(), periodKey, len(records))
	}
	return nil
}

// EvictPeriod drops an expired board. Live periods keep serving.
func (s *rankingService) EvictPeriod(pt models.PeriodType, periodKey string) error {
	if !pt.Valid() {
		return models.ErrUnknownPeriod
	}
	s.registry.Evict(pt, periodKey)
	log.Printf("🧹 Evicted %s board %s", pt.Label(), periodKey)
	return nil
}
