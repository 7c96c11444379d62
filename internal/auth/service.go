package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/core/events"
)

type RepositoryAPI interface {
	GetByEmail(email string) (*Account, error)
	GetByID(userID int64) (*Account, error)
	UpdateLastLogin(userID int64, at time.Time) error
}

// AttemptCounter reports how many failed logins a source produced inside a
// trailing window. Backed by the activity log.
type AttemptCounter interface {
	FailedLoginAttempts(email, ip string, window time.Duration) (int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo     RepositoryAPI
	tokens   TokenGeneratorAPI
	attempts AttemptCounter
	bus      EventPublisher
	school   *internal.SchoolConfig
	security *internal.SecurityConfig
	logger   *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	tokens TokenGeneratorAPI,
	attempts AttemptCounter,
	bus EventPublisher,
	school *internal.SchoolConfig,
	security *internal.SecurityConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		attempts: attempts,
		bus:      bus,
		school:   school,
		security: security,
		logger:   logger,
	}
}

// Authenticate validates credentials for a school-domain address and returns
// the account together with a token pair. Every outcome is published to the
// event bus so the audit trail records both successes and failures.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO, ip, userAgent string) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if !s.school.IsSchoolEmail(dto.Email) {
		s.publishFailure(ctx, dto.Email, "login ditolak: domain email bukan domain sekolah", ip, userAgent)
		return nil, ErrInvalidDomain
	}

	if s.throttled(dto.Email, ip) {
		s.logger.Warn("login throttled", "email", dto.Email, "ip", ip)
		return nil, ErrTooManyAttempts
	}

	account, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		s.publishFailure(ctx, dto.Email, "percobaan login gagal: "+dto.Email, ip, userAgent)
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive() {
		s.publishFailure(ctx, dto.Email, "login ditolak: akun tidak aktif", ip, userAgent)
		return nil, ErrUserInactive
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		s.publishFailure(ctx, dto.Email, "percobaan login gagal: "+dto.Email, ip, userAgent)
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.UpdateLastLogin(account.ID, now); err != nil {
		// non-fatal: the login itself already succeeded
		s.logger.Error("failed to update last_login", "error", err, "user_id", account.ID)
	}
	account.LastLogin = &now

	tokens, err := s.issueTokens(account)
	if err != nil {
		s.logger.Error("failed to issue tokens", "error", err, "user_id", account.ID)
		return nil, internal.NewInternalError("gagal membuat token", err)
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewAuthEvent(events.EventTypeUserLogin, account.ID, account.Email, "User berhasil login", ip, userAgent))
	}

	s.logger.Info("user authenticated", "user_id", account.ID, "role", account.Role)
	return &LoginResult{User: account, Tokens: tokens}, nil
}

// RefreshTokens validates a refresh token and issues a fresh pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	userID, err := claims.UserIDInt()
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	account, err := s.repo.GetByID(userID)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if !account.IsActive() {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(account)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// ResolveAccount loads the active account behind validated claims.
func (s *Service) ResolveAccount(claims *Claims) (*Account, error) {
	userID, err := claims.UserIDInt()
	if err != nil {
		return nil, ErrInvalidToken
	}
	account, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !account.IsActive() {
		return nil, ErrUserInactive
	}
	return account, nil
}

func (s *Service) issueTokens(account *Account) (AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return AuthTokens{}, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(account.ID, account.Email, account.Role)
	if err != nil {
		return AuthTokens{}, err
	}
	return AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// throttled consults the audit trail for recent failures. Counter errors
// fail open: an unreachable analytics store must not lock everyone out.
func (s *Service) throttled(email, ip string) bool {
	if s.attempts == nil {
		return false
	}
	n, err := s.attempts.FailedLoginAttempts(email, ip, s.security.LoginAttemptWindow)
	if err != nil {
		s.logger.Error("failed to count login attempts", "error", err, "email", email)
		return false
	}
	return n >= s.security.MaxLoginAttempts
}

func (s *Service) publishFailure(ctx context.Context, email, description, ip, userAgent string) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, events.NewAuthEvent(events.EventTypeUserLoginFailed, 0, email, description, ip, userAgent))
}
