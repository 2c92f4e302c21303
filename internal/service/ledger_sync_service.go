package service

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/planit-app/ranking-backend/internal/database"
	"github.com/planit-app/ranking-backend/internal/models"
	"github.com/planit-app/ranking-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	ledgerConsumerGroup = "ledger-sync-group"
	ledgerConsumerName  = "worker-1"

	ledgerBatchSize    = 100
	ledgerBlockTimeout = 5 * time.Second

	ledgerStreamMaxLen    = 1000 // keep roughly the last 1000 awards
	ledgerTrimEveryNBatch = 10
)

// LedgerSyncService drains award items off a Redis stream and persists
// them to PostgreSQL in batches, keeping durable writes off the award
// path. Items are acknowledged only after the transaction commits, so a
// crashed worker replays its pending batch.
type LedgerSyncService interface {
	Start()
	Stop()
	Enqueue(item models.LedgerSyncItem) error
}

type ledgerSyncService struct {
	redis        *redis.Client
	scoreRepo    repository.ScoreRepository
	ctx          context.Context
	stopCh       chan struct{}
	running      bool
	mu           sync.Mutex
	batchCounter int
}

func NewLedgerSyncService(redisClient *redis.Client, scoreRepo repository.ScoreRepository) LedgerSyncService {
	svc := &ledgerSyncService{
		redis:     redisClient,
		scoreRepo: scoreRepo,
		ctx:       database.Ctx,
		stopCh:    make(chan struct{}),
	}

	svc.initStream()
	return svc
}

func (s *ledgerSyncService) initStream() {
	// Create consumer group (idempotent)
	err := s.redis.XGroupCreateMkStream(
		s.ctx,
		database.AwardStream,
		ledgerConsumerGroup,
		"0",
	).Err()

	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		log.Fatalf("❌ Failed to create Redis consumer group: %v", err)
	}
}

func (s *ledgerSyncService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("🔄 Ledger sync worker started (Redis Streams)")
	go s.worker()
}

func (s *ledgerSyncService) Stop() {
	close(s.stopCh)
	log.Println("⏹️ Ledger sync worker stopping...")
}

// Enqueue adds one award to the durable-sync stream.
func (s *ledgerSyncService) Enqueue(item models.LedgerSyncItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	return s.redis.XAdd(s.ctx, &redis.XAddArgs{
		Stream: database.AwardStream,
		Values: map[string]interface{}{
			"data": data,
		},
	}).Err()
}

func (s *ledgerSyncService) worker() {
	for {
		select {
		case <-s.stopCh:
			return
		default:
			s.processBatch()
		}
	}
}

func (s *ledgerSyncService) processBatch() {
	streams, err := s.redis.XReadGroup(
		s.ctx,
		&redis.XReadGroupArgs{
			Group:    ledgerConsumerGroup,
			Consumer: ledgerConsumerName,
			Streams:  []string{database.AwardStream, ">"},
			Count:    ledgerBatchSize,
			Block:    ledgerBlockTimeout,
		},
	).Result()

	if err != nil && err != redis.Nil {
		log.Printf("⚠️ Redis XREADGROUP error: %v", err)
		return
	}

	if len(streams) == 0 {
		return
	}

	var (
		items      []models.LedgerSyncItem
		messageIDs []string
	)

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			raw, ok := msg.Values["data"].(string)
			if !ok {
				continue
			}

			var item models.LedgerSyncItem
			if err := json.Unmarshal([]byte(raw), &item); err != nil {
				continue
			}

			items = append(items, item)
			messageIDs = append(messageIDs, msg.ID)
		}
	}

	if len(items) == 0 {
		return
	}

	if err := s.scoreRepo.ApplySyncBatch(items); err != nil {
		log.Printf("❌ Ledger sync failed, retrying later: %v", err)
		return
	}

	// ACK messages ONLY after DB commit
	s.redis.XAck(
		s.ctx,
		database.AwardStream,
		ledgerConsumerGroup,
		messageIDs...,
	)

	s.batchCounter++

	// Periodic stream trim (non-blocking maintenance)
	if s.batchCounter%ledgerTrimEveryNBatch == 0 {
		go s.trimStream()
	}

	log.Printf("💾 Ledger sync: %d awards persisted", len(items))
}

func (s *ledgerSyncService) trimStream() {
	err := s.redis.XTrimMaxLen(
		s.ctx,
		database.AwardStream,
		ledgerStreamMaxLen,
	).Err()

	if err != nil {
		log.Printf("⚠️ Failed to trim Redis stream: %v", err)
		return
	}

	log.Printf("🧹 Trimmed award stream to ~%d entries", ledgerStreamMaxLen)
}
