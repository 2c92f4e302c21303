package service

import (
	"log"
	"math/rand"
	"time"

	"github.com/planit-app/ranking-backend/internal/config"
	"github.com/planit-app/ranking-backend/internal/repository"
)

// SimulatorService drives the full award pipeline with random point
// awards to random members. Development-only stand-in for the
// certification/like subsystems that produce awards in production.
type SimulatorService interface {
	Start()
	Stop()
}

type simulatorService struct {
	rankingSvc RankingService
	memberRepo repository.MemberRepository
	ticker     *time.Ticker
	stopCh     chan bool
	running    bool
}

func NewSimulatorService(
	rankingSvc RankingService,
	memberRepo repository.MemberRepository,
) SimulatorService {
	return &simulatorService{
		rankingSvc: rankingSvc,
		memberRepo: memberRepo,
		stopCh:     make(chan bool),
		running:    false,
	}
}

// Start begins the award simulation
func (s *simulatorService) Start() {
	if s.running {
		log.Println("⚠️  Simulator already running")
		return
	}

	interval := 3 * time.Second
	if config.AppCfg != nil {
		interval = config.AppCfg.App.SimulatorInterval
	}
	s.ticker = time.NewTicker(interval)
	s.running = true

	log.Printf("🎮 Award simulator started (interval: %v)", interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.simulateAward()
			case <-s.stopCh:
				log.Println("⏹️  Award simulator stopped")
				return
			}
		}
	}()
}

// Stop halts the award simulation
func (s *simulatorService) Stop() {
	if !s.running {
		return
	}

	s.ticker.Stop()
	s.stopCh <- true
	s.running = false
}

// simulateAward awards random points to a random member
func (s *simulatorService) simulateAward() {
	member, err := s.memberRepo.GetRandom()
	if err != nil {
		log.Printf("❌ Failed to pick a member: %v", err)
		return
	}

	// Certification awards in Planit land between 5 and 50 points.
	delta := int64(rand.Intn(46) + 5)

	if _, err := s.rankingSvc.OnAward(member.ID, member.LoginID, member.Nickname, delta); err != nil {
		log.Printf("❌ Failed to award member %d: %v", member.ID, err)
	}
}
