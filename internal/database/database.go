package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	// Registers the cgo-free "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"observatory/internal/domain"
)

// Connect opens PostgreSQL when the DSN looks like a postgres URL, SQLite
// otherwise (file path or ":memory:" for tests).
func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate creates the schema and the partial unique index backing the
// double-booking guard. Both PostgreSQL and SQLite accept the partial index
// syntax.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Telescope{},
		&domain.Booking{},
		&domain.Notification{},
	); err != nil {
		return err
	}

	return db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_no_double_booking
ON bookings (telescope_id, start_time)
WHERE status IN ('pending', 'confirmed')
`).Error
}
