package repository

import (
	"github.com/planit-app/ranking-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository keeps the minimal account mirror used to label
// leaderboard entries and drive the dev-mode award simulator.
type MemberRepository interface {
	Upsert(member *models.Member) error
	GetByID(id uint) (*models.Member, error)
	Count() (int64, error)
	GetRandom() (*models.Member, error)
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Upsert(member *models.Member) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "login_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname"}),
	}).Create(member).Error
}

func (r *memberRepository) GetByID(id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Member{}).Count(&count).Error
	return count, err
}

// GetRandom picks a random member for the award simulator.
func (r *memberRepository) GetRandom() (*models.Member, error) {
	var member models.Member
	err := r.db.Order("RANDOM()").First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}
