package leaderboard

import "math/rand"

const (
	skiplistMaxLevel = 32
	skiplistP        = 0.25
)

// skiplist is an ordered index over (score DESC, userID ASC) with span
// counts on every forward link, the same layout Redis uses for sorted
// sets. Spans make positional rank queries O(log N) instead of a walk.
// Callers hold the owning board's lock; the list itself is not safe for
// concurrent use.
type skiplist struct {
	head   *slNode
	length int64
	level  int
}

type slNode struct {
	userID uint
	score  int64
	links  []slLink
}

type slLink struct {
	next *slNode
	// span is the number of nodes crossed by following next, next included.
	span int64
}

func newSkiplist() *skiplist {
	return &skiplist{
		head:  &slNode{links: make([]slLink, skiplistMaxLevel)},
		level: 1,
	}
}

// sortsBefore reports whether node n precedes the key (score, userID)
// under the board ordering: higher scores first, ties by ascending userID.
func sortsBefore(n *slNode, score int64, userID uint) bool {
	if n.score != score {
		return n.score > score
	}
	return n.userID < userID
}

func randomLevel() int {
	lvl := 1
	for lvl < skiplistMaxLevel && rand.Float64() < skiplistP {
		lvl++
	}
	return lvl
}

func (sl *skiplist) insert(score int64, userID uint) {
	var update [skiplistMaxLevel]*slNode
	var rank [skiplistMaxLevel]int64

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i == sl.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for x.links[i].next != nil && sortsBefore(x.links[i].next, score, userID) {
			rank[i] += x.links[i].span
			x = x.links[i].next
		}
		update[i] = x
	}

	lvl := randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].links[i].span = sl.length
		}
		sl.level = lvl
	}

	n := &slNode{userID: userID, score: score, links: make([]slLink, lvl)}
	for i := 0; i < lvl; i++ {
		n.links[i].next = update[i].links[i].next
		update[i].links[i].next = n
		n.links[i].span = update[i].links[i].span - (rank[0] - rank[i])
		update[i].links[i].span = (rank[0] - rank[i]) + 1
	}
	for i := lvl; i < sl.level; i++ {
		update[i].links[i].span++
	}
	sl.length++
}

func (sl *skiplist) delete(score int64, userID uint) bool {
	var update [skiplistMaxLevel]*slNode

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.links[i].next != nil && sortsBefore(x.links[i].next, score, userID) {
			x = x.links[i].next
		}
		update[i] = x
	}

	x = x.links[0].next
	if x == nil || x.score != score || x.userID != userID {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].links[i].next == x {
			update[i].links[i].span += x.links[i].span - 1
			update[i].links[i].next = x.links[i].next
		} else {
			update[i].links[i].span--
		}
	}
	for sl.level > 1 && sl.head.links[sl.level-1].next == nil {
		sl.level--
	}
	sl.length--
	return true
}

// countHigher returns the number of entries with a score strictly greater
// than score. Rank of a member = countHigher(member score) + 1, so ties
// share a rank and the next distinct score continues from the group size.
func (sl *skiplist) countHigher(score int64) int64 {
	var count int64
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.links[i].next != nil && x.links[i].next.score > score {
			count += x.links[i].span
			x = x.links[i].next
		}
	}
	return count
}

// firstK returns up to k nodes from the front of the list in order.
func (sl *skiplist) firstK(k int) []*slNode {
	if k <= 0 {
		return nil
	}
	nodes := make([]*slNode, 0, k)
	for n := sl.head.links[0].next; n != nil && len(nodes) < k; n = n.links[0].next {
		nodes = append(nodes, n)
	}
	return nodes
}
