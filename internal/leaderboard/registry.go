package leaderboard

import (
	"sync"

	"github.com/planit-app/ranking-backend/internal/models"
)

// Registry owns the live boards, one per (periodType, periodKey), created
// lazily on first use. Expired period keys are evicted explicitly by the
// retention policy owner; evicting one board never touches the others.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

func NewRegistry() *Registry {
	return &Registry{boards: make(map[string]*Board)}
}

func boardKey(pt models.PeriodType, periodKey string) string {
	return string(pt) + ":" + periodKey
}

// Board returns the live board for (pt, periodKey), creating it if needed.
func (r *Registry) Board(pt models.PeriodType, periodKey string) *Board {
	key := boardKey(pt, periodKey)

	r.mu.RLock()
	b, ok := r.boards[key]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.boards[key]; ok {
		return b
	}
	b = NewBoard(pt, periodKey)
	r.boards[key] = b
	return b
}

// Lookup returns the board without creating one.
func (r *Registry) Lookup(pt models.PeriodType, periodKey string) (*Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[boardKey(pt, periodKey)]
	return b, ok
}

// Evict drops the board for an expired period key. In-flight operations
// on the evicted board complete against its own lock; new lookups miss.
func (r *Registry) Evict(pt models.PeriodType, periodKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.boards, boardKey(pt, periodKey))
}

// Boards returns a snapshot of all live boards.
func (r *Registry) Boards() []*Board {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Board, 0, len(r.boards))
	for _, b := range r.boards {
		out = append(out, b)
	}
	return out
}

// Size returns the number of live boards.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boards)
}
