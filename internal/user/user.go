package user

import (
	"time"

	"github.com/frahmantamala/agenda-management/internal"
)

const (
	RoleAdmin = "admin"
	RoleGuru  = "guru"
	RoleSiswa = "siswa"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

type User struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email"`
	Nama         string     `json:"nama"`
	PasswordHash string     `json:"-" gorm:"column:password_hash"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Stats summarises the user table for the dashboard endpoint.
type Stats struct {
	Total    int64            `json:"total"`
	Active   int64            `json:"active"`
	Inactive int64            `json:"inactive"`
	ByRole   map[string]int64 `json:"by_role"`
}

var (
	ErrUserNotFound    = internal.NewNotFoundError("user tidak ditemukan", internal.ErrCodeUserNotFound)
	ErrEmailTaken      = internal.NewConflictError("email sudah terdaftar", internal.ErrCodeEmailTaken)
	ErrInvalidDomain   = internal.NewValidationError("email harus menggunakan domain sekolah", internal.ErrCodeInvalidDomain)
	ErrLastActiveAdmin = internal.NewConflictError("tidak dapat menghapus admin aktif terakhir", internal.ErrCodeLastActiveAdmin)
)
