package database

import (
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/auth"
	"github.com/roomiesofficial522-svg/Tkitmaster/internal/seats"

	"gorm.io/gorm"
)

// Migrate creates the seats ledger and user tables.
// The unique index on seats.seat_id is the DRS-side guarantee that a seat
// exists exactly once.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&auth.User{},
		&seats.Seat{},
	)
}
