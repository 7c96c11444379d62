package agenda

import (
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/agenda-management/internal/agenda"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(a *agenda.Agenda) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	return r.db.Create(a).Error
}

func (r *Repository) GetByID(id int64) (*agenda.Agenda, error) {
	var a agenda.Agenda
	if err := r.db.First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetAll(limit, offset int) ([]*agenda.Agenda, int64, error) {
	var total int64
	if err := r.db.Model(&agenda.Agenda{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var agendas []*agenda.Agenda
	err := r.db.Order("tanggal DESC, waktu DESC").Limit(limit).Offset(offset).Find(&agendas).Error
	if err != nil {
		return nil, 0, err
	}
	return agendas, total, nil
}

func (r *Repository) GetByStatus(status string, limit, offset int) ([]*agenda.Agenda, int64, error) {
	base := r.db.Model(&agenda.Agenda{}).Where("status = ?", status)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var agendas []*agenda.Agenda
	err := r.db.Where("status = ?", status).
		Order("tanggal DESC, waktu DESC").
		Limit(limit).Offset(offset).
		Find(&agendas).Error
	if err != nil {
		return nil, 0, err
	}
	return agendas, total, nil
}

func (r *Repository) GetByOwnerOrApproved(userID int64) ([]*agenda.Agenda, error) {
	var agendas []*agenda.Agenda
	err := r.db.Where("status = ? OR created_by = ?", agenda.StatusApproved, userID).
		Order("tanggal DESC, waktu DESC").
		Find(&agendas).Error
	if err != nil {
		return nil, err
	}
	return agendas, nil
}

func (r *Repository) GetByDateRange(start, end time.Time, status string) ([]*agenda.Agenda, error) {
	q := r.db.Where("tanggal >= ? AND tanggal <= ?", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var agendas []*agenda.Agenda
	if err := q.Order("tanggal ASC, waktu ASC").Find(&agendas).Error; err != nil {
		return nil, err
	}
	return agendas, nil
}

func (r *Repository) Search(filter agenda.SearchFilter) ([]*agenda.Agenda, error) {
	query, args, err := filter.BuildQuery()
	if err != nil {
		return nil, err
	}

	var agendas []*agenda.Agenda
	if err := r.db.Raw(query, args...).Scan(&agendas).Error; err != nil {
		return nil, err
	}
	return agendas, nil
}

func (r *Repository) Update(a *agenda.Agenda) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&agenda.Agenda{}).Where("id = ?", a.ID).Updates(map[string]interface{}{
			"judul":            a.Judul,
			"deskripsi":        a.Deskripsi,
			"tanggal":          a.Tanggal.Format("2006-01-02"),
			"waktu":            a.Waktu,
			"tempat":           a.Tempat,
			"status":           a.Status,
			"approved_by":      a.ApprovedBy,
			"approved_at":      a.ApprovedAt,
			"rejection_reason": a.RejectionReason,
			"updated_at":       time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return agenda.ErrAgendaNotFound
		}
		return nil
	})
}

// Approve runs the precondition and the write as one statement so two
// concurrent approvals cannot both pass the pending check.
func (r *Repository) Approve(id, approverID int64, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&agenda.Agenda{}).
			Where("id = ? AND status = ?", id, agenda.StatusPending).
			Updates(map[string]interface{}{
				"status":           agenda.StatusApproved,
				"approved_by":      approverID,
				"approved_at":      at,
				"rejection_reason": nil,
				"updated_at":       at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return resolveZeroRows(tx, id)
		}
		return nil
	})
}

func (r *Repository) Reject(id, approverID int64, reason string, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&agenda.Agenda{}).
			Where("id = ? AND status = ?", id, agenda.StatusPending).
			Updates(map[string]interface{}{
				"status":           agenda.StatusRejected,
				"approved_by":      approverID,
				"approved_at":      nil,
				"rejection_reason": reason,
				"updated_at":       at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return resolveZeroRows(tx, id)
		}
		return nil
	})
}

func (r *Repository) Delete(id int64) error {
	res := r.db.Delete(&agenda.Agenda{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return agenda.ErrAgendaNotFound
	}
	return nil
}

func (r *Repository) AutoRejectStale(cutoff time.Time, reason string) (int64, error) {
	res := r.db.Model(&agenda.Agenda{}).
		Where("status = ? AND created_at < ?", agenda.StatusPending, cutoff).
		Updates(map[string]interface{}{
			"status":           agenda.StatusRejected,
			"rejection_reason": reason,
			"updated_at":       time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) Stats(now time.Time) (*agenda.Stats, error) {
	stats := &agenda.Stats{}
	today := now.Format("2006-01-02")

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Total, r.db.Model(&agenda.Agenda{})},
		{&stats.Pending, r.db.Model(&agenda.Agenda{}).Where("status = ?", agenda.StatusPending)},
		{&stats.Approved, r.db.Model(&agenda.Agenda{}).Where("status = ?", agenda.StatusApproved)},
		{&stats.Rejected, r.db.Model(&agenda.Agenda{}).Where("status = ?", agenda.StatusRejected)},
		{&stats.Today, r.db.Model(&agenda.Agenda{}).Where("tanggal = ?", today)},
		{&stats.Upcoming, r.db.Model(&agenda.Agenda{}).Where("tanggal > ?", today)},
		{&stats.Past, r.db.Model(&agenda.Agenda{}).Where("tanggal < ?", today)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// resolveZeroRows tells a missing agenda apart from one that already left
// pending, so the caller can answer 404 versus 409.
func resolveZeroRows(tx *gorm.DB, id int64) error {
	var count int64
	if err := tx.Model(&agenda.Agenda{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return agenda.ErrAgendaNotFound
	}
	return agenda.ErrAgendaAlreadyResolved
}
