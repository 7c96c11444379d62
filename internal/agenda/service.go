package agenda

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/auth"
	"github.com/frahmantamala/agenda-management/internal/core/events"
)

// Repository defines the data access methods for agendas. Guarded transitions
// (Approve, Reject) run their precondition and write atomically and report
// losing the race as ErrAgendaAlreadyResolved.
type Repository interface {
	Create(agenda *Agenda) error
	GetByID(id int64) (*Agenda, error)
	GetAll(limit, offset int) ([]*Agenda, int64, error)
	GetByStatus(status string, limit, offset int) ([]*Agenda, int64, error)
	GetByOwnerOrApproved(userID int64) ([]*Agenda, error)
	GetByDateRange(start, end time.Time, status string) ([]*Agenda, error)
	Search(filter SearchFilter) ([]*Agenda, error)
	Update(agenda *Agenda) error
	Approve(id, approverID int64, at time.Time) error
	Reject(id, approverID int64, reason string, at time.Time) error
	Delete(id int64) error
	AutoRejectStale(cutoff time.Time, reason string) (int64, error)
	Stats(now time.Time) (*Stats, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service holds agenda lifecycle logic. Callers are trusted to have passed
// capability checks at the boundary; the service still re-validates ownership
// for non-admin actors.
type Service struct {
	repo   Repository
	bus    EventPublisher
	logger *slog.Logger
}

func NewService(repo Repository, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// Create stores a new agenda. Status defaults to pending; an admin may ask
// for approved at creation, anyone else falls back to pending.
func (s *Service) Create(ctx context.Context, dto AgendaDTO, actor *internal.SessionUser, ip, userAgent string) (*Agenda, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	tanggal, err := dto.ParseTanggal()
	if err != nil {
		return nil, internal.NewValidationError("format tanggal tidak valid", internal.ErrCodeInvalidDate)
	}

	a := &Agenda{
		Judul:     dto.Judul,
		Deskripsi: dto.Deskripsi,
		Tanggal:   tanggal,
		Waktu:     dto.Waktu,
		Tempat:    dto.Tempat,
		Status:    StatusPending,
		CreatedBy: actor.ID,
	}

	if dto.Status == StatusApproved && auth.HasPermission(actor.Role, auth.ActionApproveAgenda) {
		now := time.Now()
		a.Status = StatusApproved
		a.ApprovedBy = &actor.ID
		a.ApprovedAt = &now
	}

	if err := s.repo.Create(a); err != nil {
		s.logger.Error("failed to create agenda", "error", err, "user_id", actor.ID)
		return nil, internal.NewPersistenceError("gagal menyimpan agenda", err)
	}

	s.publish(ctx, events.EventTypeAgendaCreated, a, actor.ID, "Agenda dibuat: "+a.Judul, ip, userAgent)
	s.logger.Info("agenda created", "agenda_id", a.ID, "status", a.Status, "user_id", actor.ID)
	return a, nil
}

// Approve transitions pending → approved. A second approval of the same
// agenda returns a conflict and leaves the record untouched.
func (s *Service) Approve(ctx context.Context, id int64, actor *internal.SessionUser, ip, userAgent string) (*Agenda, error) {
	if err := s.repo.Approve(id, actor.ID, time.Now()); err != nil {
		return nil, s.transitionError(err, id)
	}

	a, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTypeAgendaApproved, a, actor.ID, "Agenda disetujui: "+a.Judul, ip, userAgent)
	s.logger.Info("agenda approved", "agenda_id", id, "approver_id", actor.ID)
	return a, nil
}

// Reject transitions pending → rejected. An empty reason falls back to the
// fixed admin rejection string.
func (s *Service) Reject(ctx context.Context, id int64, dto RejectDTO, actor *internal.SessionUser, ip, userAgent string) (*Agenda, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	reason := dto.Reason
	if reason == "" {
		reason = DefaultRejectionReason
	}

	if err := s.repo.Reject(id, actor.ID, reason, time.Now()); err != nil {
		return nil, s.transitionError(err, id)
	}

	a, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTypeAgendaRejected, a, actor.ID, "Agenda ditolak: "+a.Judul+" ("+reason+")", ip, userAgent)
	s.logger.Info("agenda rejected", "agenda_id", id, "approver_id", actor.ID)
	return a, nil
}

// Update edits agenda fields and always resets the record to pending. Any
// edit invalidates a prior approval, so approval metadata is cleared too.
// Non-admin actors may only touch their own agendas.
func (s *Service) Update(ctx context.Context, id int64, dto AgendaDTO, actor *internal.SessionUser, ip, userAgent string) (*Agenda, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.getRaw(id)
	if err != nil {
		return nil, err
	}

	if !auth.HasPermission(actor.Role, auth.ActionEditAgenda) && existing.CreatedBy != actor.ID {
		return nil, ErrNotAgendaOwner
	}

	tanggal, err := dto.ParseTanggal()
	if err != nil {
		return nil, internal.NewValidationError("format tanggal tidak valid", internal.ErrCodeInvalidDate)
	}

	existing.Judul = dto.Judul
	existing.Deskripsi = dto.Deskripsi
	existing.Tanggal = tanggal
	existing.Waktu = dto.Waktu
	existing.Tempat = dto.Tempat
	existing.Status = StatusPending
	existing.ApprovedBy = nil
	existing.ApprovedAt = nil
	existing.RejectionReason = nil

	if err := s.repo.Update(existing); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		s.logger.Error("failed to update agenda", "error", err, "agenda_id", id)
		return nil, internal.NewPersistenceError("gagal memperbarui agenda", err)
	}

	s.publish(ctx, events.EventTypeAgendaUpdated, existing, actor.ID, "Agenda diperbarui: "+existing.Judul, ip, userAgent)
	s.logger.Info("agenda updated", "agenda_id", id, "user_id", actor.ID)
	return existing, nil
}

// Delete removes the agenda row permanently.
func (s *Service) Delete(ctx context.Context, id int64, actor *internal.SessionUser, ip, userAgent string) error {
	existing, err := s.getRaw(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return appErr
		}
		s.logger.Error("failed to delete agenda", "error", err, "agenda_id", id)
		return internal.NewPersistenceError("gagal menghapus agenda", err)
	}

	s.publish(ctx, events.EventTypeAgendaDeleted, existing, actor.ID, "Agenda dihapus: "+existing.Judul, ip, userAgent)
	s.logger.Info("agenda deleted", "agenda_id", id, "user_id", actor.ID)
	return nil
}

// AutoRejectStale bulk-rejects every pending agenda older than maxDays and
// returns how many rows moved. Meant for the sweep command, not a request path.
func (s *Service) AutoRejectStale(ctx context.Context, maxDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -maxDays)
	count, err := s.repo.AutoRejectStale(cutoff, StaleRejectionReason)
	if err != nil {
		s.logger.Error("auto-reject sweep failed", "error", err)
		return 0, internal.NewPersistenceError("gagal menjalankan auto-reject", err)
	}

	if count > 0 {
		s.publish(ctx, events.EventTypeAgendaRejected, &Agenda{}, 0, "Auto-reject menandai agenda pending kadaluarsa", "", "system")
	}
	s.logger.Info("auto-reject sweep finished", "rejected", count, "max_days", maxDays)
	return count, nil
}

// GetByID applies the visibility rule: admins see everything, everyone else
// sees approved agendas plus their own.
func (s *Service) GetByID(id int64) (*Agenda, error) {
	return s.getRaw(id)
}

// GetVisibleByID is GetByID filtered for the caller.
func (s *Service) GetVisibleByID(id int64, actor *internal.SessionUser) (*Agenda, error) {
	a, err := s.getRaw(id)
	if err != nil {
		return nil, err
	}
	if auth.HasPermission(actor.Role, auth.ActionViewAllAgendas) {
		return a, nil
	}
	if a.Status == StatusApproved || a.CreatedBy == actor.ID {
		return a, nil
	}
	return nil, ErrAgendaNotFound
}

func (s *Service) GetAll(page, perPage int) ([]*Agenda, int64, error) {
	limit, offset := pageToRange(page, perPage)
	agendas, total, err := s.repo.GetAll(limit, offset)
	if err != nil {
		return nil, 0, internal.NewPersistenceError("gagal mengambil agenda", err)
	}
	return agendas, total, nil
}

func (s *Service) GetApproved(page, perPage int) ([]*Agenda, int64, error) {
	return s.getByStatus(StatusApproved, page, perPage)
}

func (s *Service) GetPending(page, perPage int) ([]*Agenda, int64, error) {
	return s.getByStatus(StatusPending, page, perPage)
}

// GetByOwnerOrApproved returns exactly the approved set united with the
// user's own agendas, whatever their status.
func (s *Service) GetByOwnerOrApproved(userID int64) ([]*Agenda, error) {
	agendas, err := s.repo.GetByOwnerOrApproved(userID)
	if err != nil {
		return nil, internal.NewPersistenceError("gagal mengambil agenda", err)
	}
	return agendas, nil
}

func (s *Service) GetByDateRange(start, end time.Time, status string) ([]*Agenda, error) {
	agendas, err := s.repo.GetByDateRange(start, end, status)
	if err != nil {
		return nil, internal.NewPersistenceError("gagal mengambil agenda", err)
	}
	return agendas, nil
}

func (s *Service) Search(filter SearchFilter) ([]*Agenda, error) {
	agendas, err := s.repo.Search(filter.Normalize())
	if err != nil {
		return nil, internal.NewPersistenceError("gagal mencari agenda", err)
	}
	return agendas, nil
}

func (s *Service) Stats() (*Stats, error) {
	stats, err := s.repo.Stats(time.Now())
	if err != nil {
		return nil, internal.NewPersistenceError("gagal menghitung statistik agenda", err)
	}
	return stats, nil
}

func (s *Service) getByStatus(status string, page, perPage int) ([]*Agenda, int64, error) {
	limit, offset := pageToRange(page, perPage)
	agendas, total, err := s.repo.GetByStatus(status, limit, offset)
	if err != nil {
		return nil, 0, internal.NewPersistenceError("gagal mengambil agenda", err)
	}
	return agendas, total, nil
}

func (s *Service) getRaw(id int64) (*Agenda, error) {
	a, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgendaNotFound
		}
		if appErr, ok := internal.IsAppError(err); ok {
			return nil, appErr
		}
		return nil, internal.NewPersistenceError("gagal mengambil agenda", err)
	}
	return a, nil
}

func (s *Service) transitionError(err error, id int64) error {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr
	}
	s.logger.Error("agenda transition failed", "error", err, "agenda_id", id)
	return internal.NewPersistenceError("gagal memproses agenda", err)
}

func (s *Service) publish(ctx context.Context, eventType string, a *Agenda, actorID int64, description, ip, userAgent string) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, events.NewAgendaEvent(eventType, a.ID, actorID, a.Judul, description, ip, userAgent))
}

func pageToRange(page, perPage int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return perPage, (page - 1) * perPage
}
