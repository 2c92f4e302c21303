package models

import "time"

// Event types carried in RankingUpdateEvent.EventType.
const (
	EventRankingUpdate  = "RANKING_UPDATE"
	EventInitialRanking = "INITIAL_RANKING"
)

// ScoreEntry is one user's cumulative score within a single
// (periodType, periodKey) window.
type ScoreEntry struct {
	UserID   uint   `json:"userId"`
	LoginID  string `json:"loginId"`
	Nickname string `json:"nickname"`
	Score    int64  `json:"score"`
}

// RankingEntry is a ScoreEntry annotated with its computed rank.
// Ties share a rank; the next distinct score's rank is the count of
// users strictly above it plus one.
type RankingEntry struct {
	UserID   uint   `json:"userId"`
	LoginID  string `json:"loginId"`
	Nickname string `json:"nickname"`
	Score    int64  `json:"score"`
	Rank     int64  `json:"rank"`
}

// UpdatedUserInfo describes the awarded user's own rank movement for one
// award. PreviousRank is nil when the user had no entry before the award.
type UpdatedUserInfo struct {
	UserID       uint   `json:"userId"`
	LoginID      string `json:"loginId"`
	Nickname     string `json:"nickname"`
	PreviousRank *int64 `json:"previousRank"`
	CurrentRank  int64  `json:"currentRank"`
	ScoreDelta   int64  `json:"scoreDelta"`
	NewScore     int64  `json:"newScore"`
}

// RankingUpdateEvent is the broadcast unit pushed to subscribers and
// relayed between servers. Top10 always carries a fresh snapshot of the
// affected board, never a diff. UpdatedUser is nil for INITIAL_RANKING.
type RankingUpdateEvent struct {
	EventType   string           `json:"eventType"`
	PeriodType  PeriodType       `json:"periodType"`
	PeriodKey   string           `json:"periodKey"`
	Top10       []RankingEntry   `json:"top10"`
	UpdatedUser *UpdatedUserInfo `json:"updatedUser"`
	Timestamp   string           `json:"timestamp"`
}

// NewInitialRankingEvent builds the snapshot event sent to a client when
// it subscribes to a period.
func NewInitialRankingEvent(pt PeriodType, key string, top10 []RankingEntry) *RankingUpdateEvent {
	return &RankingUpdateEvent{
		EventType:  EventInitialRanking,
		PeriodType: pt,
		PeriodKey:  key,
		Top10:      top10,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// AwardRequest is the ingestion payload from the point-award collaborators
// (certification approvals, likes, etc.).
type AwardRequest struct {
	UserID   uint   `json:"userId" binding:"required"`
	LoginID  string `json:"loginId" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
	Points   int64  `json:"points" binding:"required"`
}

// LedgerSyncItem is one durable-write work item queued on the Redis stream
// by the award path and drained by the sync worker.
type LedgerSyncItem struct {
	UserID     uint       `json:"user_id"`
	LoginID    string     `json:"login_id"`
	Nickname   string     `json:"nickname"`
	PeriodType PeriodType `json:"period_type"`
	PeriodKey  string     `json:"period_key"`
	Delta      int64      `json:"delta"`
	NewScore   int64      `json:"new_score"`
	Timestamp  time.Time  `json:"timestamp"`
}
