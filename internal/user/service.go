package user

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/core/events"
)

// Repository defines the data access methods for users.
type Repository interface {
	Create(user *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	List(limit, offset int) ([]*User, int64, error)
	GetByRole(role string) ([]*User, error)
	Update(user *User) error
	UpdatePassword(id int64, passwordHash string) error
	Activate(id int64) error
	// Deactivate flips status to inactive. It must refuse, atomically, to
	// deactivate the last remaining active admin.
	Deactivate(id int64) error
	Stats() (*Stats, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo     Repository
	bus      EventPublisher
	school   *internal.SchoolConfig
	security *internal.SecurityConfig
	logger   *slog.Logger
}

func NewService(repo Repository, bus EventPublisher, school *internal.SchoolConfig, security *internal.SecurityConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		bus:      bus,
		school:   school,
		security: security,
		logger:   logger,
	}
}

// CreateUser registers a new account. The role is never chosen by the caller:
// it is derived from the email domain suffix.
func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO, actorID int64, ip, userAgent string) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role := s.school.DomainRole(dto.Email)
	if role == "" {
		return nil, ErrInvalidDomain
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("failed to check email uniqueness", "error", err, "email", dto.Email)
		return nil, internal.NewPersistenceError("gagal memeriksa email", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.security.BCryptCost)
	if err != nil {
		return nil, internal.NewInternalError("gagal memproses password", err)
	}

	u := &User{
		Email:        dto.Email,
		Nama:         dto.Nama,
		PasswordHash: string(hash),
		Role:         role,
		Status:       StatusActive,
	}
	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, internal.NewPersistenceError("gagal menyimpan user", err)
	}

	s.publish(ctx, events.EventTypeUserCreated, actorID, u.Email, "User baru dibuat: "+u.Email, ip, userAgent)
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) GetUser(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internal.NewPersistenceError("gagal mengambil user", err)
	}
	return u, nil
}

func (s *Service) ListUsers(page, perPage int) ([]*User, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	users, total, err := s.repo.List(perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, internal.NewPersistenceError("gagal mengambil daftar user", err)
	}
	return users, total, nil
}

func (s *Service) GetUsersByRole(role string) ([]*User, error) {
	users, err := s.repo.GetByRole(role)
	if err != nil {
		return nil, internal.NewPersistenceError("gagal mengambil user per role", err)
	}
	return users, nil
}

// UpdateUser applies a partial update. Email and role stay immutable.
func (s *Service) UpdateUser(id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if dto.Nama != "" {
		u.Nama = dto.Nama
	}
	if dto.Status == StatusInactive && u.Status == StatusActive {
		if err := s.deactivate(u); err != nil {
			return nil, err
		}
	} else if dto.Status == StatusActive && u.Status == StatusInactive {
		if err := s.repo.Activate(u.ID); err != nil {
			return nil, internal.NewPersistenceError("gagal mengaktifkan user", err)
		}
		u.Status = StatusActive
	}

	if err := s.repo.Update(u); err != nil {
		return nil, internal.NewPersistenceError("gagal memperbarui user", err)
	}
	return u, nil
}

// DeleteUser soft-deletes by marking the account inactive.
func (s *Service) DeleteUser(ctx context.Context, id int64, actorID int64, ip, userAgent string) error {
	u, err := s.GetUser(id)
	if err != nil {
		return err
	}

	if err := s.deactivate(u); err != nil {
		return err
	}

	s.publish(ctx, events.EventTypeUserDeleted, actorID, u.Email, "User dinonaktifkan: "+u.Email, ip, userAgent)
	s.logger.Info("user deactivated", "user_id", id)
	return nil
}

func (s *Service) ResetPassword(id int64, dto ResetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if _, err := s.GetUser(id); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.security.BCryptCost)
	if err != nil {
		return internal.NewInternalError("gagal memproses password", err)
	}
	if err := s.repo.UpdatePassword(id, string(hash)); err != nil {
		return internal.NewPersistenceError("gagal menyimpan password", err)
	}
	return nil
}

func (s *Service) Stats() (*Stats, error) {
	stats, err := s.repo.Stats()
	if err != nil {
		return nil, internal.NewPersistenceError("gagal menghitung statistik user", err)
	}
	return stats, nil
}

func (s *Service) deactivate(u *User) error {
	err := s.repo.Deactivate(u.ID)
	if err == nil {
		u.Status = StatusInactive
		return nil
	}
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return internal.NewPersistenceError("gagal menonaktifkan user", err)
}

func (s *Service) publish(ctx context.Context, eventType string, actorID int64, email, description, ip, userAgent string) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, events.NewAuthEvent(eventType, actorID, email, description, ip, userAgent))
}
