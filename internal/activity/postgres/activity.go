package activity

import (
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/agenda-management/internal/activity"
)

// Repository is the append side of the audit log, sharing the gorm handle
// the domain repositories use.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Insert(entry *activity.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.Create(entry).Error
}

func (r *Repository) Prune(cutoff time.Time) (int64, error) {
	res := r.db.Delete(&activity.Entry{}, "created_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
