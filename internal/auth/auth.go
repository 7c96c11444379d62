package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/agenda-management/internal"
)

// Account is a credential-bearing user row as the auth layer sees it.
type Account struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Nama         string     `json:"nama"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func (a *Account) IsActive() bool {
	return a.Status == "active"
}

func (a *Account) ToSessionUser() *internal.SessionUser {
	return &internal.SessionUser{
		ID:    a.ID,
		Email: a.Email,
		Nama:  a.Nama,
		Role:  a.Role,
	}
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserIDInt() (int64, error) {
	return strconv.ParseInt(c.UserID, 10, 64)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email, role string) (string, error)
	GenerateRefreshToken(userID int64, email, role string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, email, role string) (string, error) {
	return j.generate(userID, email, role, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, email, role string) (string, error) {
	return j.generate(userID, email, role, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) generate(userID int64, email, role string, ttl time.Duration, secret []byte) (string, error) {
	id := strconv.FormatInt(userID, 10)
	claims := &Claims{
		UserID: id,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   id,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken checks signature and expiry against the access secret first,
// then the refresh secret, so one validator serves both token kinds.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	for _, secret := range [][]byte{j.AccessTokenSecret, j.RefreshTokenSecret} {
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, internal.NewUnauthorizedError("unexpected signing method", internal.ErrCodeInvalidToken)
			}
			return secret, nil
		})
		if err == nil && token.Valid {
			return claims, nil
		}
	}
	return nil, internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var (
	ErrInvalidCredentials = internal.NewUnauthorizedError("email atau password salah", internal.ErrCodeInvalidCredentials)
	ErrUserInactive       = internal.NewForbiddenError("akun tidak aktif", internal.ErrCodeUserInactive)
	ErrInvalidToken       = internal.NewUnauthorizedError("invalid token", internal.ErrCodeInvalidToken)
	ErrInvalidDomain      = internal.NewUnauthorizedError("domain email tidak valid, gunakan email sekolah", internal.ErrCodeInvalidDomain)
	ErrTooManyAttempts    = internal.NewRateLimitedError("terlalu banyak percobaan login, coba lagi nanti", internal.ErrCodeTooManyAttempts)
)
