package auth

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/agenda-management/internal/auth"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetByEmail(email string) (*auth.Account, error) {
	var account auth.Account
	query := `SELECT id, email, nama, role, status, password_hash, last_login
	          FROM users WHERE email = ?`

	row := r.db.Raw(query, email).Row()
	if err := scanAccount(row, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) GetByID(userID int64) (*auth.Account, error) {
	var account auth.Account
	query := `SELECT id, email, nama, role, status, password_hash, last_login
	          FROM users WHERE id = ?`

	row := r.db.Raw(query, userID).Row()
	if err := scanAccount(row, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) UpdateLastLogin(userID int64, at time.Time) error {
	return r.db.Exec(`UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`, at, at, userID).Error
}

func scanAccount(row *sql.Row, account *auth.Account) error {
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Nama,
		&account.Role,
		&account.Status,
		&account.PasswordHash,
		&account.LastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return gorm.ErrRecordNotFound
	}
	return err
}
