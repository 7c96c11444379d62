package user

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/agenda-management/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(u *user.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	return r.db.Create(u).Error
}

func (r *Repository) GetByID(id int64) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) List(limit, offset int) ([]*user.User, int64, error) {
	var total int64
	if err := r.db.Model(&user.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*user.User
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *Repository) GetByRole(role string) ([]*user.User, error) {
	var users []*user.User
	err := r.db.Where("role = ?", role).Order("nama ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repository) Update(u *user.User) error {
	u.UpdatedAt = time.Now()
	return r.db.Model(&user.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"nama":       u.Nama,
		"status":     u.Status,
		"updated_at": u.UpdatedAt,
	}).Error
}

func (r *Repository) UpdatePassword(id int64, passwordHash string) error {
	return r.db.Model(&user.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	}).Error
}

func (r *Repository) Activate(id int64) error {
	return r.db.Model(&user.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     user.StatusActive,
		"updated_at": time.Now(),
	}).Error
}

// Deactivate marks the account inactive inside a transaction. When the target
// is an active admin, the whole active-admin set is read under FOR UPDATE so
// two concurrent deactivations of different admins serialize on the shared
// rows instead of each only seeing the other still active.
func (r *Repository) Deactivate(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		lock := tx
		if tx.Dialector.Name() != "sqlite" {
			lock = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var target user.User
		if err := lock.First(&target, "id = ?", id).Error; err != nil {
			return err
		}

		if target.Role == user.RoleAdmin && target.Status == user.StatusActive {
			var admins []user.User
			if err := lock.Where("role = ? AND status = ?", user.RoleAdmin, user.StatusActive).
				Find(&admins).Error; err != nil {
				return err
			}
			remaining := 0
			for _, a := range admins {
				if a.ID != id {
					remaining++
				}
			}
			if remaining == 0 {
				return user.ErrLastActiveAdmin
			}
		}

		return tx.Model(&user.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":     user.StatusInactive,
			"updated_at": time.Now(),
		}).Error
	})
}

func (r *Repository) Stats() (*user.Stats, error) {
	stats := &user.Stats{ByRole: make(map[string]int64)}

	if err := r.db.Model(&user.User{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&user.User{}).Where("status = ?", user.StatusActive).Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	stats.Inactive = stats.Total - stats.Active

	rows, err := r.db.Model(&user.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var total int64
		if err := rows.Scan(&role, &total); err != nil {
			return nil, err
		}
		stats.ByRole[role] = total
	}
	return stats, rows.Err()
}
