package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var clearData bool

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with one account per role for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, _, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			if err := db.Exec("DELETE FROM activity_logs").Error; err != nil {
				log.Fatalf("failed to clear activity_logs: %v", err)
			}
			if err := db.Exec("DELETE FROM agendas").Error; err != nil {
				log.Fatalf("failed to clear agendas: %v", err)
			}
			if err := db.Exec("DELETE FROM users").Error; err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		seeds := []struct {
			Email string
			Nama  string
			Role  string
		}{
			{"kepala" + cfg.School.AdminDomain, "Kepala Sekolah", "admin"},
			{"budi" + cfg.School.GuruDomain, "Budi Santoso", "guru"},
			{"siti" + cfg.School.SiswaDomain, "Siti Rahma", "siswa"},
		}

		for _, s := range seeds {
			if err := seedUser(db, s.Email, s.Nama, s.Role, string(hash)); err != nil {
				log.Fatalf("failed to seed %s: %v", s.Email, err)
			}
		}
	},
}

func seedUser(db *gorm.DB, email, nama, role, hash string) error {
	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row().Scan(&exists); err == nil {
		fmt.Println("user already exists:", email)
		return nil
	}

	err := db.Exec(
		"INSERT INTO users (email, nama, password_hash, role, status, created_at, updated_at) VALUES (?, ?, ?, ?, 'active', now(), now())",
		email, nama, hash, role,
	).Error
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %s user: %s\n", role, email)
	return nil
}
