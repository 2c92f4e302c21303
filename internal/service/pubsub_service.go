package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/planit-app/ranking-backend/internal/database"
	"github.com/planit-app/ranking-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// PubSubService bridges ranking events across server instances: the
// award path publishes to one Redis channel per period type, and every
// instance (including the publisher) receives and forwards to its own
// local hub. This keeps subscriber fan-out off the award path and makes
// the service horizontally scalable.
type PubSubService interface {
	Start(messageHandler func(*models.RankingUpdateEvent))
	Stop()
	Publish(event *models.RankingUpdateEvent) error
}

type pubSubService struct {
	redis     *redis.Client
	ctx       context.Context
	cancelCtx context.CancelFunc
	pubsub    *redis.PubSub
	running   bool
}

func NewPubSubService(redisClient *redis.Client) PubSubService {
	ctx, cancel := context.WithCancel(database.Ctx)

	return &pubSubService{
		redis:     redisClient,
		ctx:       ctx,
		cancelCtx: cancel,
		running:   false,
	}
}

// Start pattern-subscribes to every period channel and hands incoming
// events to the handler (which broadcasts to local WebSocket clients).
func (s *pubSubService) Start(messageHandler func(*models.RankingUpdateEvent)) {
	if s.running {
		log.Println("⚠️  PubSub service already running")
		return
	}

	s.pubsub = s.redis.PSubscribe(s.ctx, database.RankingChannelPattern)
	s.running = true

	log.Printf("📡 PubSub service started (pattern: %s)", database.RankingChannelPattern)

	go func() {
		defer func() {
			s.pubsub.Close()
			s.running = false
		}()

		ch := s.pubsub.Channel()

		for {
			select {
			case msg := <-ch:
				var event models.RankingUpdateEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("⚠️  Failed to unmarshal PubSub message: %v", err)
					continue
				}

				if messageHandler != nil {
					messageHandler(&event)
				}

			case <-s.ctx.Done():
				log.Println("⏹️  PubSub subscription stopped")
				return
			}
		}
	}()
}

// Stop unsubscribes and closes the subscription
func (s *pubSubService) Stop() {
	if !s.running {
		return
	}

	log.Println("⏹️  Stopping PubSub service...")
	s.cancelCtx()
}

// Publish sends a ranking event to its period's channel. All subscribed
// servers (including this one) will receive it.
func (s *pubSubService) Publish(event *models.RankingUpdateEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := database.RankingChannelPrefix + string(event.PeriodType)
	return s.redis.Publish(s.ctx, channel, data).Err()
}
