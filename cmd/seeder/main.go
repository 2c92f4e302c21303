package main

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/planit-app/ranking-backend/internal/config"
	"github.com/planit-app/ranking-backend/internal/database"
	"github.com/planit-app/ranking-backend/internal/models"
	"github.com/planit-app/ranking-backend/internal/repository"
)

func main() {
	log.Println("🌱 Starting Planit ranking seeder (PostgreSQL)...")

	// Load configuration
	cfg := config.LoadConfig()

	// Connect to PostgreSQL
	db, err := database.ConnectPostgres(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.CloseDB()

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	memberRepo := repository.NewMemberRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	// Check if data already exists
	count, _ := memberRepo.Count()
	if count > 0 {
		log.Printf("⚠️  Database already contains %d members", count)
		log.Println("Do you want to continue and add more? (y/n)")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			log.Println("Seeding cancelled")
			return
		}
	}

	numMembers := 1000
	log.Printf("Creating %d members...\n", numMembers)

	rand.Seed(time.Now().UnixNano())

	nicknames := []string{
		"runner", "climber", "reader", "writer", "yogi", "swimmer",
		"early_bird", "night_owl", "planner", "sprinter", "walker",
		"minji", "junho", "sora", "haneul", "dayoung", "woojin",
	}

	// STEP 1: Seed members
	log.Println("\n📊 STEP 1: Seeding members...")
	log.Println("─────────────────────────────────")

	batchSize := 200
	totalBatches := numMembers / batchSize
	startTime := time.Now()

	for batch := 0; batch < totalBatches; batch++ {
		members := make([]models.Member, 0, batchSize)

		for i := 0; i < batchSize; i++ {
			memberNum := batch*batchSize + i + 1
			nickname := nicknames[rand.Intn(len(nicknames))]

			members = append(members, models.Member{
				LoginID:  fmt.Sprintf("planit_%d", memberNum),
				Nickname: fmt.Sprintf("%s_%d", nickname, memberNum),
			})
		}

		if err := db.Create(&members).Error; err != nil {
			log.Fatalf("Failed to insert member batch %d: %v", batch+1, err)
		}

		progress := float64(batch+1) / float64(totalBatches) * 100
		log.Printf("  ✅ Batch %d/%d completed (%d members) - %.1f%%",
			batch+1, totalBatches, (batch+1)*batchSize, progress)
	}

	memberElapsed := time.Since(startTime)
	totalMembers, _ := memberRepo.Count()

	log.Printf("\n✅ Member seeding completed!")
	log.Printf("   📊 Total members: %d", totalMembers)
	log.Printf("   ⏱️  Time: %v\n", memberElapsed)

	// STEP 2: Replay awards into the score ledger
	log.Println("\n🏆 STEP 2: Seeding award history...")
	log.Println("─────────────────────────────────")

	awardStart := time.Now()
	now := time.Now().UTC()
	totalAwards := 0

	var members []models.Member
	if err := db.Find(&members).Error; err != nil {
		log.Fatalf("Failed to fetch members: %v", err)
	}

	items := make([]models.LedgerSyncItem, 0, 500)
	flush := func() {
		if len(items) == 0 {
			return
		}
		if err := scoreRepo.ApplySyncBatch(items); err != nil {
			log.Fatalf("Failed to write award batch: %v", err)
		}
		totalAwards += len(items)
		items = items[:0]
	}

	for _, member := range members {
		// Each member certified a plausible number of times this period.
		awards := generateAwardCount()
		running := make(map[models.PeriodType]int64)

		for a := 0; a < awards; a++ {
			delta := int64(rand.Intn(46) + 5)
			for _, pt := range models.AllPeriodTypes() {
				running[pt] += delta
				items = append(items, models.LedgerSyncItem{
					UserID:     member.ID,
					LoginID:    member.LoginID,
					Nickname:   member.Nickname,
					PeriodType: pt,
					PeriodKey:  pt.CurrentKey(now),
					Delta:      delta,
					NewScore:   running[pt],
					Timestamp:  now,
				})
			}
			if len(items) >= 500 {
				flush()
			}
		}
	}
	flush()

	awardElapsed := time.Since(awardStart)

	// Summary
	totalTime := time.Since(startTime)
	log.Println("\n═══════════════════════════════════")
	log.Println("🎉 SEEDING COMPLETE!")
	log.Println("═══════════════════════════════════")
	log.Printf("📊 Members:        %d", totalMembers)
	log.Printf("🏆 Awards written: %d", totalAwards)
	log.Printf("⏱️  Total time:    %v", totalTime)
	log.Printf("   ├─ Members:     %v", memberElapsed)
	log.Printf("   └─ Awards:      %v", awardElapsed)
	log.Println("\n🚀 Start server with: go run cmd/server/main.go")
	log.Println("   Boards rehydrate from the ledger at startup.")
}

// generateAwardCount draws a bell-curved number of certifications so the
// seeded leaderboard has a realistic spread with ties.
func generateAwardCount() int {
	mean := 8.0
	stdDev := 4.0

	// Box-Muller transform for normal distribution
	u1 := rand.Float64()
	u2 := rand.Float64()

	z := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
	n := int(mean + stdDev*z)

	if n < 1 {
		n = 1
	}
	if n > 25 {
		n = 25
	}
	return n
}
