package leaderboard

import (
	"sync"
	"testing"

	"github.com/planit-app/ranking-backend/internal/models"
)

func TestRegistryLazyCreation(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup(models.PeriodWeekly, "2025-W36"); ok {
		t.Fatal("Lookup created a board")
	}

	b1 := r.Board(models.PeriodWeekly, "2025-W36")
	b2 := r.Board(models.PeriodWeekly, "2025-W36")
	if b1 != b2 {
		t.Fatal("same (period, key) returned different boards")
	}

	if b3 := r.Board(models.PeriodMonthly, "2025-09"); b3 == b1 {
		t.Fatal("different periods share a board")
	}
	if r.Size() != 2 {
		t.Fatalf("registry size = %d, want 2", r.Size())
	}
}

func TestRegistryEvictLeavesOtherPeriods(t *testing.T) {
	r := NewRegistry()
	old := r.Board(models.PeriodWeekly, "2025-W35")
	current := r.Board(models.PeriodWeekly, "2025-W36")
	old.ApplyDelta(1, "a", "A", 10)
	current.ApplyDelta(2, "b", "B", 20)

	r.Evict(models.PeriodWeekly, "2025-W35")

	if _, ok := r.Lookup(models.PeriodWeekly, "2025-W35"); ok {
		t.Fatal("evicted board still resolvable")
	}
	got, ok := r.Lookup(models.PeriodWeekly, "2025-W36")
	if !ok || got != current {
		t.Fatal("eviction disturbed the live board")
	}
	if rank, err := current.RankOf(2); err != nil || rank != 1 {
		t.Errorf("live board state lost: rank=%d err=%v", rank, err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	keys := []string{"2025-W34", "2025-W35", "2025-W36"}

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := keys[i%len(keys)]
			b := r.Board(models.PeriodWeekly, key)
			if _, err := b.ApplyDelta(uint(i+1), "login", "nick", 1); err != nil {
				t.Errorf("ApplyDelta: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if r.Size() != len(keys) {
		t.Fatalf("registry size = %d, want %d", r.Size(), len(keys))
	}
	total := 0
	for _, b := range r.Boards() {
		total += b.Len()
	}
	if total != 60 {
		t.Errorf("total entries = %d, want 60", total)
	}
}
