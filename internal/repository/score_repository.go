package repository

import (
	"github.com/planit-app/ranking-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreRepository persists the durable score ledger. Deltas are applied
// additively in the database, so the final sum is independent of the
// order concurrent sync batches land in.
type ScoreRepository interface {
	ApplySyncBatch(items []models.LedgerSyncItem) error
	ListByPeriod(pt models.PeriodType, periodKey string) ([]models.ScoreRecord, error)
	TopByPeriod(pt models.PeriodType, periodKey string, limit int) ([]models.ScoreRecord, error)
	HistoryByUser(userID uint, limit int) ([]models.AwardHistory, error)
}

type scoreRepository struct {
	db *gorm.DB
}

func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

// ApplySyncBatch writes one drained stream batch in a single transaction:
// additive upsert per item plus an append-only history row.
func (r *scoreRepository) ApplySyncBatch(items []models.LedgerSyncItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			record := models.ScoreRecord{
				UserID:     item.UserID,
				LoginID:    item.LoginID,
				Nickname:   item.Nickname,
				PeriodType: item.PeriodType,
				PeriodKey:  item.PeriodKey,
				Score:      item.Delta,
			}

			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "user_id"},
					{Name: "period_type"},
					{Name: "period_key"},
				},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"score":    gorm.Expr("score_records.score + ?", item.Delta),
					"nickname": item.Nickname,
					"login_id": item.LoginID,
				}),
			}).Create(&record).Error
			if err != nil {
				return err
			}

			history := models.AwardHistory{
				UserID:     item.UserID,
				PeriodType: item.PeriodType,
				PeriodKey:  item.PeriodKey,
				Delta:      item.Delta,
				NewScore:   item.NewScore,
				AwardedAt:  item.Timestamp,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *scoreRepository) ListByPeriod(pt models.PeriodType, periodKey string) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	err := r.db.Where("period_type = ? AND period_key = ?", pt, periodKey).
		Find(&records).Error
	return records, err
}

func (r *scoreRepository) TopByPeriod(pt models.PeriodType, periodKey string, limit int) ([]models.ScoreRecord, error) {
	var records []models.ScoreRecord
	err := r.db.Where("period_type = ? AND period_key = ?", pt, periodKey).
		Order("score DESC, user_id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *scoreRepository) HistoryByUser(userID uint, limit int) ([]models.AwardHistory, error) {
	var history []models.AwardHistory
	err := r.db.Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Limit(limit).
		Find(&history).Error
	return history, err
}
