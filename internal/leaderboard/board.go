package leaderboard

import (
	"errors"
	"sync"

	"github.com/planit-app/ranking-backend/internal/models"
)

// TopSize is the snapshot size carried by every broadcast event.
const TopSize = 10

var (
	// ErrInvalidDelta rejects non-positive deltas; the ledger is award-only.
	ErrInvalidDelta = errors.New("award delta must be positive")

	// ErrUserNotRanked is returned when a user has no entry on this board.
	ErrUserNotRanked = errors.New("user not ranked in this period")
)

// Board is the live leaderboard for one (periodType, periodKey) window.
// It owns its synchronization: awards are exclusive, rank and top-K reads
// run concurrently with each other. Boards for different periods share
// nothing, so awards in one period never contend with another.
type Board struct {
	periodType models.PeriodType
	periodKey  string

	mu      sync.RWMutex
	entries map[uint]*models.ScoreEntry
	index   *skiplist
}

// ApplyResult is everything the broadcast path needs from one award,
// captured inside a single critical section so the previous rank, new
// rank and top-10 are mutually consistent.
type ApplyResult struct {
	Entry models.ScoreEntry
	// PreviousRank is the awarded user's own rank before this delta,
	// nil for a new entrant. Bystander rank shifts are not tracked.
	PreviousRank *int64
	CurrentRank  int64
	Top10        []models.RankingEntry
}

func NewBoard(pt models.PeriodType, key string) *Board {
	return &Board{
		periodType: pt,
		periodKey:  key,
		entries:    make(map[uint]*models.ScoreEntry),
		index:      newSkiplist(),
	}
}

func (b *Board) PeriodType() models.PeriodType { return b.periodType }
func (b *Board) PeriodKey() string             { return b.periodKey }

// ApplyDelta adds delta to the user's cumulative score, creating the
// entry at delta if absent, and reports the rank movement together with
// a fresh top-10 snapshot.
func (b *Board) ApplyDelta(userID uint, loginID, nickname string, delta int64) (*ApplyResult, error) {
	if delta <= 0 {
		return nil, ErrInvalidDelta
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var prevRank *int64
	entry, ok := b.entries[userID]
	if ok {
		r := b.index.countHigher(entry.Score) + 1
		prevRank = &r
		b.index.delete(entry.Score, userID)
		entry.Score += delta
		entry.LoginID = loginID
		entry.Nickname = nickname
	} else {
		entry = &models.ScoreEntry{
			UserID:   userID,
			LoginID:  loginID,
			Nickname: nickname,
			Score:    delta,
		}
		b.entries[userID] = entry
	}
	b.index.insert(entry.Score, userID)

	return &ApplyResult{
		Entry:        *entry,
		PreviousRank: prevRank,
		CurrentRank:  b.index.countHigher(entry.Score) + 1,
		Top10:        b.topKLocked(TopSize),
	}, nil
}

// Restore seeds an entry with an absolute score, used when rehydrating a
// board from the durable ledger at startup. Replaces any live entry.
func (b *Board) Restore(entry models.ScoreEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.entries[entry.UserID]; ok {
		b.index.delete(existing.Score, entry.UserID)
	}
	e := entry
	b.entries[entry.UserID] = &e
	b.index.insert(e.Score, e.UserID)
}

// TopK returns the k highest entries with computed ranks, at most k items,
// ordered by (score DESC, userID ASC).
func (b *Board) TopK(k int) []models.RankingEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.topKLocked(k)
}

// RankOf returns the user's current rank, or ErrUserNotRanked.
func (b *Board) RankOf(userID uint) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[userID]
	if !ok {
		return 0, ErrUserNotRanked
	}
	return b.index.countHigher(entry.Score) + 1, nil
}

// Len returns the number of ranked users on this board.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return int(b.index.length)
}

// topKLocked walks the front of the index assigning shared ranks for
// equal scores, the same scheme countHigher-based RankOf produces.
func (b *Board) topKLocked(k int) []models.RankingEntry {
	nodes := b.index.firstK(k)
	out := make([]models.RankingEntry, 0, len(nodes))

	rank := int64(1)
	var prevScore int64
	for i, n := range nodes {
		if i > 0 && n.score != prevScore {
			rank = int64(i) + 1
		}
		entry := b.entries[n.userID]
		out = append(out, models.RankingEntry{
			UserID:   entry.UserID,
			LoginID:  entry.LoginID,
			Nickname: entry.Nickname,
			Score:    entry.Score,
			Rank:     rank,
		})
		prevScore = n.score
	}
	return out
}
