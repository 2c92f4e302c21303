package leaderboard

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/planit-app/ranking-backend/internal/models"
)

func newTestBoard() *Board {
	return NewBoard(models.PeriodWeekly, "2025-W36")
}

func award(t *testing.T, b *Board, userID uint, delta int64) *ApplyResult {
	t.Helper()
	res, err := b.ApplyDelta(userID, fmt.Sprintf("user%d", userID), fmt.Sprintf("nick%d", userID), delta)
	if err != nil {
		t.Fatalf("ApplyDelta(user %d, delta %d): %v", userID, delta, err)
	}
	return res
}

func TestApplyDeltaRejectsNonPositive(t *testing.T) {
	b := newTestBoard()
	for _, delta := range []int64{0, -5} {
		if _, err := b.ApplyDelta(1, "a", "A", delta); !errors.Is(err, ErrInvalidDelta) {
			t.Errorf("delta %d: got err %v, want ErrInvalidDelta", delta, err)
		}
	}
	if b.Len() != 0 {
		t.Errorf("rejected award left %d entries on the board", b.Len())
	}
}

func TestFirstAwardCreatesEntry(t *testing.T) {
	b := NewBoard(models.PeriodAllTime, "ALL")

	res := award(t, b, 7, 5)
	if res.PreviousRank != nil {
		t.Errorf("previousRank = %v, want nil for new entrant", *res.PreviousRank)
	}
	if res.CurrentRank != 1 {
		t.Errorf("currentRank = %d, want 1", res.CurrentRank)
	}
	if res.Entry.Score != 5 {
		t.Errorf("newScore = %d, want 5", res.Entry.Score)
	}
	if len(res.Top10) != 1 || res.Top10[0].UserID != 7 || res.Top10[0].Rank != 1 || res.Top10[0].Score != 5 {
		t.Errorf("top10 = %+v", res.Top10)
	}
}

// The overtake scenario: A at 50 (rank 1), B at 30 (rank 2); awarding 25
// to B moves B to 55 and rank 1, with previousRank still reported as 2.
func TestOvertakeReportsOwnPreviousRank(t *testing.T) {
	b := newTestBoard()
	award(t, b, 1, 50) // A
	award(t, b, 2, 30) // B

	res := award(t, b, 2, 25)
	if res.PreviousRank == nil || *res.PreviousRank != 2 {
		t.Fatalf("previousRank = %v, want 2", res.PreviousRank)
	}
	if res.CurrentRank != 1 {
		t.Errorf("currentRank = %d, want 1", res.CurrentRank)
	}
	if res.Entry.Score != 55 {
		t.Errorf("newScore = %d, want 55", res.Entry.Score)
	}

	if len(res.Top10) != 2 {
		t.Fatalf("top10 has %d entries, want 2", len(res.Top10))
	}
	if res.Top10[0].UserID != 2 || res.Top10[0].Score != 55 || res.Top10[0].Rank != 1 {
		t.Errorf("top10[0] = %+v, want B(55, rank 1)", res.Top10[0])
	}
	if res.Top10[1].UserID != 1 || res.Top10[1].Score != 50 || res.Top10[1].Rank != 2 {
		t.Errorf("top10[1] = %+v, want A(50, rank 2)", res.Top10[1])
	}
}

func TestPreviousRankUnchangedByOwnDelta(t *testing.T) {
	b := newTestBoard()
	award(t, b, 1, 100)
	award(t, b, 2, 10)

	// Rank 2 before and after: previousRank must still be reported.
	res := award(t, b, 2, 10)
	if res.PreviousRank == nil || *res.PreviousRank != 2 {
		t.Errorf("previousRank = %v, want 2", res.PreviousRank)
	}
	if res.CurrentRank != 2 {
		t.Errorf("currentRank = %d, want 2", res.CurrentRank)
	}
}

func TestTiedScoresShareRank(t *testing.T) {
	b := newTestBoard()
	award(t, b, 3, 40)
	award(t, b, 1, 40)
	award(t, b, 2, 40)
	award(t, b, 4, 20)
	award(t, b, 5, 20)
	award(t, b, 6, 10)

	top := b.TopK(10)
	wantRanks := []struct {
		userID uint
		rank   int64
	}{
		// Ties ordered by ascending userID, sharing a rank; the next
		// distinct score's rank counts everyone strictly above it.
		{1, 1}, {2, 1}, {3, 1}, {4, 4}, {5, 4}, {6, 6},
	}
	if len(top) != len(wantRanks) {
		t.Fatalf("topK returned %d entries, want %d", len(top), len(wantRanks))
	}
	for i, w := range wantRanks {
		if top[i].UserID != w.userID || top[i].Rank != w.rank {
			t.Errorf("top[%d] = (user=%d rank=%d), want (user=%d rank=%d)",
				i, top[i].UserID, top[i].Rank, w.userID, w.rank)
		}
	}
}

func TestTopKTruncatesToK(t *testing.T) {
	b := newTestBoard()
	for i := 1; i <= 25; i++ {
		award(t, b, uint(i), int64(i*10))
	}

	top := b.TopK(TopSize)
	if len(top) != TopSize {
		t.Fatalf("topK(%d) returned %d entries", TopSize, len(top))
	}
	for i := 1; i < len(top); i++ {
		prev, cur := top[i-1], top[i]
		if cur.Score > prev.Score {
			t.Errorf("entries out of score order at %d: %d before %d", i, prev.Score, cur.Score)
		}
		if cur.Score == prev.Score && cur.UserID < prev.UserID {
			t.Errorf("tie-break violated at %d: user %d before %d", i, prev.UserID, cur.UserID)
		}
	}
}

// RankOf must agree with the rank TopK computes for the same user.
func TestRankOfConsistentWithTopK(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := newTestBoard()
	for i := 0; i < 500; i++ {
		award(t, b, uint(rng.Intn(40)+1), int64(rng.Intn(20)+1))
	}

	for _, entry := range b.TopK(40) {
		rank, err := b.RankOf(entry.UserID)
		if err != nil {
			t.Fatalf("RankOf(%d): %v", entry.UserID, err)
		}
		if rank != entry.Rank {
			t.Errorf("RankOf(%d) = %d, topK says %d", entry.UserID, rank, entry.Rank)
		}
	}
}

func TestRankOfUnknownUser(t *testing.T) {
	b := newTestBoard()
	award(t, b, 1, 10)
	if _, err := b.RankOf(99); !errors.Is(err, ErrUserNotRanked) {
		t.Errorf("got err %v, want ErrUserNotRanked", err)
	}
}

// Concurrent awards to the same user must sum; awards to different users
// must not interfere.
func TestConcurrentAwardsSum(t *testing.T) {
	b := newTestBoard()
	const (
		users       = 8
		perUser     = 50
		deltaPoints = 3
	)

	var wg sync.WaitGroup
	for u := 1; u <= users; u++ {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(userID uint) {
				defer wg.Done()
				if _, err := b.ApplyDelta(userID, "login", "nick", deltaPoints); err != nil {
					t.Errorf("ApplyDelta: %v", err)
				}
			}(uint(u))
		}
	}
	wg.Wait()

	if b.Len() != users {
		t.Fatalf("board has %d users, want %d", b.Len(), users)
	}
	for _, entry := range b.TopK(users) {
		if entry.Score != perUser*deltaPoints {
			t.Errorf("user %d score = %d, want %d", entry.UserID, entry.Score, perUser*deltaPoints)
		}
	}
}

func TestRestoreReplacesLiveEntry(t *testing.T) {
	b := newTestBoard()
	award(t, b, 1, 10)

	b.Restore(models.ScoreEntry{UserID: 1, LoginID: "user1", Nickname: "nick1", Score: 80})
	b.Restore(models.ScoreEntry{UserID: 2, LoginID: "user2", Nickname: "nick2", Score: 40})

	if b.Len() != 2 {
		t.Fatalf("board has %d users, want 2", b.Len())
	}
	rank, err := b.RankOf(1)
	if err != nil || rank != 1 {
		t.Errorf("RankOf(1) = %d, %v; want 1", rank, err)
	}
	top := b.TopK(10)
	if top[0].Score != 80 {
		t.Errorf("restored score = %d, want 80", top[0].Score)
	}
}
