package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/seats"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/config"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds the venue layout: rows A through J, ten seats per row. Rows A and B
// are vip, C through E premium, the rest standard. Prices are in currency
// minor units. Safe to run repeatedly; existing seats keep their status.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db.GetPostgreSQL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := seats.NewRepository(db.GetPostgreSQL(), db.GetRedis())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	layout := buildLayout()
	if err := repo.UpsertSeats(ctx, layout); err != nil {
		log.Fatalf("Failed to seed seats: %v", err)
	}

	log.Printf("Seeded %d seats", len(layout))
}

func buildLayout() []seats.Seat {
	rows := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	const seatsPerRow = 10

	var layout []seats.Seat
	for _, row := range rows {
		tier, price := tierForRow(row)
		for number := 1; number <= seatsPerRow; number++ {
			layout = append(layout, seats.Seat{
				ID:     uuid.New(),
				SeatID: fmt.Sprintf("%s%d", row, number),
				Row:    row,
				Number: number,
				Tier:   tier,
				Price:  price,
				Status: seats.StatusAvailable,
			})
		}
	}
	return layout
}

func tierForRow(row string) (string, int64) {
	switch row {
	case "A", "B":
		return seats.TierVIP, 25000
	case "C", "D", "E":
		return seats.TierPremium, 15000
	default:
		return seats.TierStandard, 8000
	}
}
