package models

import "time"

// ScoreRecord is the durable score ledger row: one cumulative score per
// (user, periodType, periodKey). Rows are only ever increased by awards
// and expire together with their period key.
type ScoreRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"uniqueIndex:idx_user_period;not null" json:"user_id"`
	LoginID    string     `gorm:"size:50;not null" json:"login_id"`
	Nickname   string     `gorm:"size:50;not null" json:"nickname"`
	PeriodType PeriodType `gorm:"uniqueIndex:idx_user_period;size:10;not null" json:"period_type"`
	PeriodKey  string     `gorm:"uniqueIndex:idx_user_period;index:idx_period_score;size:20;not null" json:"period_key"`
	Score      int64      `gorm:"index:idx_period_score,sort:desc;not null;default:0" json:"score"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (ScoreRecord) TableName() string {
	return "score_records"
}

// AwardHistory is the append-only audit trail of applied awards.
type AwardHistory struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index:idx_user_awards;not null" json:"user_id"`
	PeriodType PeriodType `gorm:"size:10;not null" json:"period_type"`
	PeriodKey  string     `gorm:"size:20;not null" json:"period_key"`
	Delta      int64      `gorm:"not null" json:"delta"`
	NewScore   int64      `gorm:"not null" json:"new_score"`
	AwardedAt  time.Time  `gorm:"index:idx_award_time" json:"awarded_at"`
}

func (AwardHistory) TableName() string {
	return "award_histories"
}

// Member is a Planit account as the ranking core sees it: just enough
// identity to label leaderboard entries. The full profile lives with the
// out-of-scope account subsystem.
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LoginID   string    `gorm:"uniqueIndex:idx_login_id;size:50;not null" json:"login_id"`
	Nickname  string    `gorm:"size:50;not null" json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}
