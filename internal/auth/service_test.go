package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/agenda-management/internal"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockAccountRepository struct {
	accounts      map[string]*Account
	accountsByID  map[int64]*Account
	lastLoginFor  int64
	returnError   bool
	errorToReturn error
}

func newMockAccountRepository() *mockAccountRepository {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct_password"), bcrypt.MinCost)

	accounts := map[string]*Account{
		"kepala@smkn1kotabekasi.admin.sch.id": {
			ID: 1, Email: "kepala@smkn1kotabekasi.admin.sch.id",
			Nama: "Kepala Sekolah", Role: "admin", Status: "active",
			PasswordHash: string(hashed),
		},
		"budi@smkn1kotabekasi.guru.sch.id": {
			ID: 2, Email: "budi@smkn1kotabekasi.guru.sch.id",
			Nama: "Budi", Role: "guru", Status: "active",
			PasswordHash: string(hashed),
		},
		"nonaktif@smkn1kotabekasi.guru.sch.id": {
			ID: 3, Email: "nonaktif@smkn1kotabekasi.guru.sch.id",
			Nama: "Nonaktif", Role: "guru", Status: "inactive",
			PasswordHash: string(hashed),
		},
	}
	byID := make(map[int64]*Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &mockAccountRepository{accounts: accounts, accountsByID: byID}
}

func (m *mockAccountRepository) GetByEmail(email string) (*Account, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if a, exists := m.accounts[email]; exists {
		return a, nil
	}
	return nil, errors.New("account not found")
}

func (m *mockAccountRepository) GetByID(userID int64) (*Account, error) {
	if m.returnError {
		return nil, m.errorToReturn
	}
	if a, exists := m.accountsByID[userID]; exists {
		return a, nil
	}
	return nil, errors.New("account not found")
}

func (m *mockAccountRepository) UpdateLastLogin(userID int64, at time.Time) error {
	m.lastLoginFor = userID
	return nil
}

type mockAttemptCounter struct {
	count         int
	returnError   bool
	errorToReturn error
}

func (m *mockAttemptCounter) FailedLoginAttempts(email, ip string, window time.Duration) (int, error) {
	if m.returnError {
		return 0, m.errorToReturn
	}
	return m.count, nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		mockRepo *mockAccountRepository
		attempts *mockAttemptCounter
		tokenGen *JWTTokenGenerator
	)

	school := &internal.SchoolConfig{
		AdminDomain: "@smkn1kotabekasi.admin.sch.id",
		GuruDomain:  "@smkn1kotabekasi.guru.sch.id",
		SiswaDomain: "@smkn1kotabekasi.siswa.sch.id",
	}
	security := &internal.SecurityConfig{
		MaxLoginAttempts:   5,
		LoginAttemptWindow: 15 * time.Minute,
		BCryptCost:         bcrypt.MinCost,
	}

	ginkgo.BeforeEach(func() {
		mockRepo = newMockAccountRepository()
		attempts = &mockAttemptCounter{}
		tokenGen = NewJWTTokenGenerator(
			"test-access-secret-must-be-32-chars!",
			"test-refresh-secret-must-be-32-char",
			15*time.Minute, 24*time.Hour,
		)
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = NewService(mockRepo, tokenGen, attempts, nil, school, security, logger)
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.Context("when credentials are valid", func() {
			ginkgo.It("should return the account with a token pair", func() {
				// Given
				dto := LoginDTO{
					Email:    "budi@smkn1kotabekasi.guru.sch.id",
					Password: "correct_password",
				}

				// When
				result, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")

				// Then
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(result.User.ID).To(gomega.Equal(int64(2)))
				gomega.Expect(result.User.Role).To(gomega.Equal("guru"))
				gomega.Expect(result.Tokens.AccessToken).ToNot(gomega.BeEmpty())
				gomega.Expect(result.Tokens.RefreshToken).ToNot(gomega.BeEmpty())
				gomega.Expect(mockRepo.lastLoginFor).To(gomega.Equal(int64(2)))
			})

			ginkgo.It("should produce an access token that validates back to the user", func() {
				dto := LoginDTO{
					Email:    "kepala@smkn1kotabekasi.admin.sch.id",
					Password: "correct_password",
				}

				result, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())

				claims, err := service.ValidateAccessToken(result.Tokens.AccessToken)
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(claims.Role).To(gomega.Equal("admin"))

				userID, err := claims.UserIDInt()
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
				gomega.Expect(userID).To(gomega.Equal(int64(1)))
			})
		})

		ginkgo.Context("when the email is outside the school domains", func() {
			ginkgo.It("should reject before touching the repository", func() {
				dto := LoginDTO{
					Email:    "intruder@gmail.com",
					Password: "correct_password",
				}

				_, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")
				gomega.Expect(err).To(gomega.Equal(ErrInvalidDomain))
			})
		})

		ginkgo.Context("when the source is throttled", func() {
			ginkgo.It("should return a rate limit error at the attempt ceiling", func() {
				attempts.count = 5
				dto := LoginDTO{
					Email:    "budi@smkn1kotabekasi.guru.sch.id",
					Password: "correct_password",
				}

				_, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")
				gomega.Expect(err).To(gomega.Equal(ErrTooManyAttempts))
			})

			ginkgo.It("should allow a login just under the ceiling", func() {
				attempts.count = 4
				dto := LoginDTO{
					Email:    "budi@smkn1kotabekasi.guru.sch.id",
					Password: "correct_password",
				}

				_, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})

			ginkgo.It("should fail open when the counter itself errors", func() {
				attempts.returnError = true
				attempts.errorToReturn = errors.New("analytics store down")
				dto := LoginDTO{
					Email:    "budi@smkn1kotabekasi.guru.sch.id",
					Password: "correct_password",
				}

				_, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")
				gomega.Expect(err).ToNot(gomega.HaveOccurred())
			})
		})

		ginkgo.Context("when the account is inactive", func() {
			ginkgo.It("should refuse the login", func() {
				dto := LoginDTO{
					Email:    "nonaktif@smkn1kotabekasi.guru.sch.id",
					Password: "correct_password",
				}

				_, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")
				gomega.Expect(err).To(gomega.Equal(ErrUserInactive))
			})
		})

		ginkgo.Context("when credentials are wrong", func() {
			ginkgo.It("should not reveal whether the account exists", func() {
				wrongPassword := LoginDTO{
					Email:    "budi@smkn1kotabekasi.guru.sch.id",
					Password: "wrong_password",
				}
				unknownAccount := LoginDTO{
					Email:    "tidakada@smkn1kotabekasi.guru.sch.id",
					Password: "correct_password",
				}

				_, err1 := service.Authenticate(context.Background(), wrongPassword, "10.0.0.1", "test")
				_, err2 := service.Authenticate(context.Background(), unknownAccount, "10.0.0.1", "test")

				gomega.Expect(err1).To(gomega.Equal(ErrInvalidCredentials))
				gomega.Expect(err2).To(gomega.Equal(ErrInvalidCredentials))
			})
		})

		ginkgo.Context("when the payload is incomplete", func() {
			ginkgo.It("should fail validation on a missing password", func() {
				dto := LoginDTO{Email: "budi@smkn1kotabekasi.guru.sch.id"}

				_, err := service.Authenticate(context.Background(), dto, "10.0.0.1", "test")
				gomega.Expect(err).To(gomega.HaveOccurred())

				appErr, ok := internal.IsAppError(err)
				gomega.Expect(ok).To(gomega.BeTrue())
				gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
			})
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("should issue a fresh pair for a valid refresh token", func() {
			refresh, err := tokenGen.GenerateRefreshToken(2, "budi@smkn1kotabekasi.guru.sch.id", "guru")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			tokens, err := service.RefreshTokens(refresh)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("should reject garbage tokens", func() {
			_, err := service.RefreshTokens("not-a-token")
			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})

		ginkgo.It("should refuse tokens for an inactive account", func() {
			refresh, err := tokenGen.GenerateRefreshToken(3, "nonaktif@smkn1kotabekasi.guru.sch.id", "guru")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(refresh)
			gomega.Expect(err).To(gomega.Equal(ErrUserInactive))
		})
	})

	ginkgo.Describe("ResolveAccount", func() {
		ginkgo.It("should load the active account behind the claims", func() {
			claims := &Claims{UserID: "2"}

			account, err := service.ResolveAccount(claims)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(account.Email).To(gomega.Equal("budi@smkn1kotabekasi.guru.sch.id"))
		})

		ginkgo.It("should reject claims with a non-numeric subject", func() {
			claims := &Claims{UserID: "abc"}

			_, err := service.ResolveAccount(claims)
			gomega.Expect(err).To(gomega.Equal(ErrInvalidToken))
		})
	})
})
