package activity

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/core/events"
)

// WriteRepository is the append side of the log.
type WriteRepository interface {
	Insert(entry *Entry) error
	Prune(cutoff time.Time) (int64, error)
}

// AnalyticsRepository is the read side. Its queries may fail loudly; none of
// them sit on the critical path of a mutating operation.
type AnalyticsRepository interface {
	Recent(filter Filter) ([]*Entry, int64, error)
	Stats(from, to time.Time) (*Stats, error)
	DailyCounts(since time.Time) ([]DailyCount, error)
	MostActiveUsers(limit int, since time.Time) ([]ActiveUser, error)
	Suspicious(since time.Time) ([]SuspiciousIP, error)
	FailedLoginCount(email, ip string, since time.Time) (int64, error)
	AgendaHistory(agendaID int64) ([]*Entry, error)
}

type Service struct {
	writes    WriteRepository
	analytics AnalyticsRepository
	logger    *slog.Logger
}

func NewService(writes WriteRepository, analytics AnalyticsRepository, logger *slog.Logger) *Service {
	return &Service{
		writes:    writes,
		analytics: analytics,
		logger:    logger,
	}
}

// Record appends one audit row. It never returns an error: a failure to
// persist is reported to the operational log and swallowed, because audit
// recording must not block the operation it observes.
func (s *Service) Record(userID *int64, action string, agendaID *int64, description, ip, userAgent string) {
	entry := &Entry{
		UserID:      userID,
		Action:      action,
		AgendaID:    agendaID,
		Description: description,
		IPAddress:   ip,
		UserAgent:   userAgent,
		CreatedAt:   time.Now(),
	}
	if err := s.writes.Insert(entry); err != nil {
		s.logger.Error("failed to record activity", "error", err, "action", action)
	}
}

// RegisterSubscriptions wires the recorder onto every event type the domain
// services publish.
func (s *Service) RegisterSubscriptions(bus *events.EventBus) {
	agendaTypes := []string{
		events.EventTypeAgendaCreated,
		events.EventTypeAgendaUpdated,
		events.EventTypeAgendaApproved,
		events.EventTypeAgendaRejected,
		events.EventTypeAgendaDeleted,
	}
	for _, t := range agendaTypes {
		bus.Subscribe(t, s.handleAgendaEvent)
	}

	authTypes := []string{
		events.EventTypeUserLogin,
		events.EventTypeUserLoginFailed,
		events.EventTypeUserCreated,
		events.EventTypeUserDeleted,
	}
	for _, t := range authTypes {
		bus.Subscribe(t, s.handleAuthEvent)
	}
}

func (s *Service) handleAgendaEvent(_ context.Context, event events.Event) error {
	e, ok := event.(*events.AgendaEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	var userID *int64
	if e.ActorID != 0 {
		userID = &e.ActorID
	}
	var agendaID *int64
	if e.AgendaID != 0 {
		agendaID = &e.AgendaID
	}

	s.Record(userID, e.EventType(), agendaID, e.Description, e.IPAddress, e.UserAgent)
	return nil
}

func (s *Service) handleAuthEvent(_ context.Context, event events.Event) error {
	e, ok := event.(*events.AuthEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload for %s", event.EventType())
	}

	var userID *int64
	if e.UserID != 0 {
		userID = &e.UserID
	}

	s.Record(userID, e.EventType(), nil, e.Description, e.IPAddress, e.UserAgent)
	return nil
}

func (s *Service) Recent(filter Filter) ([]*Entry, int64, error) {
	entries, total, err := s.analytics.Recent(filter.Normalize())
	if err != nil {
		return nil, 0, internal.NewPersistenceError("gagal mengambil log aktivitas", err)
	}
	return entries, total, nil
}

func (s *Service) Stats(from, to time.Time) (*Stats, error) {
	stats, err := s.analytics.Stats(from, to)
	if err != nil {
		return nil, internal.NewPersistenceError("gagal menghitung statistik aktivitas", err)
	}
	return stats, nil
}

func (s *Service) DailyCounts(days int) ([]DailyCount, error) {
	if days < 1 {
		days = 7
	}
	counts, err := s.analytics.DailyCounts(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, internal.NewPersistenceError("gagal menghitung aktivitas harian", err)
	}
	return counts, nil
}

func (s *Service) MostActiveUsers(limit, days int) ([]ActiveUser, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if days < 1 {
		days = 30
	}
	users, err := s.analytics.MostActiveUsers(limit, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, internal.NewPersistenceError("gagal mengambil user teraktif", err)
	}
	return users, nil
}

// Suspicious flags IPs whose trailing-window traffic shows more than 10
// failed logins or more than 100 events total.
func (s *Service) Suspicious(days int) ([]SuspiciousIP, error) {
	if days < 1 {
		days = 1
	}
	ips, err := s.analytics.Suspicious(time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, internal.NewPersistenceError("gagal memeriksa aktivitas mencurigakan", err)
	}
	return ips, nil
}

// FailedLoginAttempts satisfies the auth throttle contract.
func (s *Service) FailedLoginAttempts(email, ip string, window time.Duration) (int, error) {
	count, err := s.analytics.FailedLoginCount(email, ip, time.Now().Add(-window))
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Service) AgendaHistory(agendaID int64) ([]*Entry, error) {
	entries, err := s.analytics.AgendaHistory(agendaID)
	if err != nil {
		return nil, internal.NewPersistenceError("gagal mengambil riwayat agenda", err)
	}
	return entries, nil
}

// ExportCSV streams the filtered log as CSV. The export reuses Recent with a
// raised row cap rather than loading the whole table.
func (s *Service) ExportCSV(w io.Writer, filter Filter) error {
	filter = filter.Normalize()
	filter.Limit = 10000

	entries, _, err := s.analytics.Recent(filter)
	if err != nil {
		return internal.NewPersistenceError("gagal mengekspor log aktivitas", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user_id", "action", "agenda_id", "description", "ip_address", "user_agent", "created_at"}); err != nil {
		return internal.NewInternalError("gagal menulis CSV", err)
	}

	for _, e := range entries {
		record := []string{
			strconv.FormatInt(e.ID, 10),
			formatNullableID(e.UserID),
			e.Action,
			formatNullableID(e.AgendaID),
			e.Description,
			e.IPAddress,
			e.UserAgent,
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return internal.NewInternalError("gagal menulis CSV", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return internal.NewInternalError("gagal menulis CSV", err)
	}
	return nil
}

// Prune deletes rows older than keepDays and returns how many went.
func (s *Service) Prune(keepDays int) (int64, error) {
	if keepDays < 1 {
		keepDays = 90
	}
	count, err := s.writes.Prune(time.Now().AddDate(0, 0, -keepDays))
	if err != nil {
		return 0, internal.NewPersistenceError("gagal memangkas log aktivitas", err)
	}
	s.logger.Info("activity log pruned", "deleted", count, "keep_days", keepDays)
	return count, nil
}

func formatNullableID(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
