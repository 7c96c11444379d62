package user

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	userModel "github.com/frahmantamala/agenda-management/internal/user"
)

func TestUserRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "UserRepository Suite")
}

type SQLiteUser struct {
	ID           int64      `gorm:"primaryKey"`
	Email        string     `gorm:"column:email;uniqueIndex;not null"`
	Nama         string     `gorm:"column:nama;not null"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Role         string     `gorm:"column:role;not null"`
	Status       string     `gorm:"column:status;default:'active'"`
	LastLogin    *time.Time `gorm:"column:last_login"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (SQLiteUser) TableName() string {
	return "users"
}

var _ = Describe("UserRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
	)

	seed := func(email, role, status string) *userModel.User {
		u := &userModel.User{
			Email:        email,
			Nama:         "Seed",
			PasswordHash: "hash",
			Role:         role,
			Status:       status,
		}
		Expect(repo.Create(u)).To(Succeed())
		return u
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteUser{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Create and GetByEmail", func() {
		It("should store and retrieve a user by email", func() {
			created := seed("budi@smkn1kotabekasi.guru.sch.id", userModel.RoleGuru, userModel.StatusActive)

			retrieved, err := repo.GetByEmail("budi@smkn1kotabekasi.guru.sch.id")
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ID).To(Equal(created.ID))
			Expect(retrieved.Role).To(Equal(userModel.RoleGuru))
		})

		It("should return gorm.ErrRecordNotFound for an unknown email", func() {
			_, err := repo.GetByEmail("tidakada@smkn1kotabekasi.guru.sch.id")
			Expect(err).To(Equal(gorm.ErrRecordNotFound))
		})
	})

	Describe("Deactivate", func() {
		It("should flip a guru account to inactive", func() {
			target := seed("budi@smkn1kotabekasi.guru.sch.id", userModel.RoleGuru, userModel.StatusActive)

			Expect(repo.Deactivate(target.ID)).To(Succeed())

			stored, err := repo.GetByID(target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(userModel.StatusInactive))
		})

		It("should refuse to deactivate the only active admin", func() {
			admin := seed("kepala@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusActive)

			err := repo.Deactivate(admin.ID)
			Expect(err).To(Equal(userModel.ErrLastActiveAdmin))

			stored, getErr := repo.GetByID(admin.ID)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(userModel.StatusActive))
		})

		It("should not count inactive admins towards the guard", func() {
			admin := seed("kepala@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusActive)
			seed("mantan@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusInactive)

			err := repo.Deactivate(admin.ID)
			Expect(err).To(Equal(userModel.ErrLastActiveAdmin))
		})

		It("should deactivate one of two active admins", func() {
			first := seed("kepala@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusActive)
			seed("wakil@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusActive)

			Expect(repo.Deactivate(first.ID)).To(Succeed())

			stored, err := repo.GetByID(first.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(userModel.StatusInactive))
		})

		It("should never let the active-admin set drain to zero", func() {
			first := seed("kepala@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusActive)
			second := seed("wakil@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusActive)

			Expect(repo.Deactivate(first.ID)).To(Succeed())
			Expect(repo.Deactivate(second.ID)).To(Equal(userModel.ErrLastActiveAdmin))

			stats, err := repo.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Active).To(Equal(int64(1)))
		})

		It("should allow deactivating an admin who is already inactive", func() {
			inactive := seed("mantan@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusInactive)

			Expect(repo.Deactivate(inactive.ID)).To(Succeed())
		})

		It("should return gorm.ErrRecordNotFound for a missing user", func() {
			Expect(repo.Deactivate(99999)).To(Equal(gorm.ErrRecordNotFound))
		})
	})

	Describe("Activate", func() {
		It("should flip an inactive account back to active", func() {
			target := seed("budi@smkn1kotabekasi.guru.sch.id", userModel.RoleGuru, userModel.StatusInactive)

			Expect(repo.Activate(target.ID)).To(Succeed())

			stored, err := repo.GetByID(target.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(userModel.StatusActive))
		})
	})

	Describe("GetByRole", func() {
		It("should list users of one role ordered by name", func() {
			seed("budi@smkn1kotabekasi.guru.sch.id", userModel.RoleGuru, userModel.StatusActive)
			seed("ani@smkn1kotabekasi.guru.sch.id", userModel.RoleGuru, userModel.StatusActive)
			seed("siti@smkn1kotabekasi.siswa.sch.id", userModel.RoleSiswa, userModel.StatusActive)

			gurus, err := repo.GetByRole(userModel.RoleGuru)
			Expect(err).NotTo(HaveOccurred())
			Expect(gurus).To(HaveLen(2))
		})
	})

	Describe("Stats", func() {
		It("should aggregate totals, active counts and role buckets", func() {
			seed("kepala@smkn1kotabekasi.admin.sch.id", userModel.RoleAdmin, userModel.StatusActive)
			seed("budi@smkn1kotabekasi.guru.sch.id", userModel.RoleGuru, userModel.StatusActive)
			seed("lama@smkn1kotabekasi.guru.sch.id", userModel.RoleGuru, userModel.StatusInactive)

			stats, err := repo.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(3)))
			Expect(stats.Active).To(Equal(int64(2)))
			Expect(stats.Inactive).To(Equal(int64(1)))
			Expect(stats.ByRole[userModel.RoleAdmin]).To(Equal(int64(1)))
			Expect(stats.ByRole[userModel.RoleGuru]).To(Equal(int64(2)))
		})
	})
})
