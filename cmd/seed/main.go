package main

import (
	"encoding/json"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"observatory/internal/database"
	"observatory/internal/domain"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "observatory.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	// Clean in dependency order so foreign keys stay happy.
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM telescopes")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@observatory.example",
		PasswordHash: string(adminHash),
		Name:         "Observatory Admin",
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal(err)
	}

	memberHash, _ := bcrypt.GenerateFromPassword([]byte("member123"), bcrypt.DefaultCost)
	member := domain.User{
		Email:        "stargazer@observatory.example",
		PasswordHash: string(memberHash),
		Name:         "Test Stargazer",
		Role:         domain.RoleMember,
	}
	if err := db.Create(&member).Error; err != nil {
		log.Fatal(err)
	}

	log.Println("Creating telescopes...")
	telescopes := []domain.Telescope{
		{
			Name:        "Celestron CGX-L 14",
			Description: "14-inch Schmidt-Cassegrain on an equatorial mount, suited for planetary and deep-sky imaging.",
			Location:    "Dome A",
			Specs: mustJSON(domain.TelescopeSpecs{
				Aperture:    "356mm",
				FocalLength: "3910mm",
				MountType:   "equatorial",
				Accessories: []string{"CCD camera", "filter wheel"},
			}),
			IsActive: true,
		},
		{
			Name:        "Meade LX200 16",
			Description: "16-inch ACF reflector with GPS alignment.",
			Location:    "Dome B",
			Specs: mustJSON(domain.TelescopeSpecs{
				Aperture:    "406mm",
				FocalLength: "4064mm",
				MountType:   "alt-azimuth",
			}),
			IsActive: true,
		},
		{
			Name:        "Takahashi FSQ-106",
			Description: "Wide-field refractor for astrophotography.",
			Location:    "Roll-off roof",
			Specs: mustJSON(domain.TelescopeSpecs{
				Aperture:    "106mm",
				FocalLength: "530mm",
				MountType:   "equatorial",
			}),
			IsActive: true,
		},
	}
	for i := range telescopes {
		if err := db.Create(&telescopes[i]).Error; err != nil {
			log.Fatal(err)
		}
	}

	// One demo booking tomorrow night on the first telescope.
	log.Println("Creating demo booking...")
	tomorrow := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	b := domain.Booking{
		TelescopeID: telescopes[0].ID,
		UserID:      member.ID,
		StartTime:   tomorrow.Add(20 * time.Hour),
		EndTime:     tomorrow.Add(21 * time.Hour),
		Purpose:     "Lunar crater photography session",
		Status:      domain.BookingConfirmed,
	}
	if err := db.Create(&b).Error; err != nil {
		log.Fatal(err)
	}

	log.Println("Seed complete.")
	log.Println("  admin:  admin@observatory.example / admin123")
	log.Println("  member: stargazer@observatory.example / member123")
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Fatal(err)
	}
	return raw
}
