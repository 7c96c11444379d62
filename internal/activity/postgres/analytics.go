package activity

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/agenda-management/internal/activity"
)

// AnalyticsRepository serves the aggregate read side over sqlx. Cutoff times
// are computed in Go and bound as parameters so the SQL stays portable
// between the production store and the sqlite test database.
type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{
		db: db,
	}
}

func (r *AnalyticsRepository) Recent(filter activity.Filter) ([]*activity.Entry, int64, error) {
	where := filterPredicates(filter)

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("activity_logs").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.Get(&total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query, args, err := sq.Select(
		"id", "user_id", "action", "agenda_id", "description",
		"ip_address", "user_agent", "created_at",
	).
		From("activity_logs").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var entries []*activity.Entry
	if err := r.db.Select(&entries, r.db.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *AnalyticsRepository) Stats(from, to time.Time) (*activity.Stats, error) {
	stats := &activity.Stats{ByAction: make(map[string]int64)}

	summaryQuery := r.db.Rebind(`
		SELECT COUNT(*),
		       COUNT(DISTINCT user_id),
		       COUNT(DISTINCT ip_address),
		       SUM(CASE WHEN action = ? THEN 1 ELSE 0 END)
		FROM activity_logs
		WHERE created_at >= ? AND created_at <= ?`)

	row := r.db.QueryRow(summaryQuery, "user.login_failed", from, to)
	var failed *int64
	if err := row.Scan(&stats.TotalEvents, &stats.UniqueUsers, &stats.UniqueIPs, &failed); err != nil {
		return nil, err
	}
	if failed != nil {
		stats.FailedLogins = *failed
	}

	actionQuery := r.db.Rebind(`
		SELECT action, COUNT(*)
		FROM activity_logs
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY action`)

	rows, err := r.db.Query(actionQuery, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		stats.ByAction[action] = count
	}
	return stats, rows.Err()
}

func (r *AnalyticsRepository) DailyCounts(since time.Time) ([]activity.DailyCount, error) {
	query := r.db.Rebind(`
		SELECT DATE(created_at) AS day, COUNT(*) AS total
		FROM activity_logs
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day ASC`)

	var counts []activity.DailyCount
	if err := r.db.Select(&counts, query, since); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *AnalyticsRepository) MostActiveUsers(limit int, since time.Time) ([]activity.ActiveUser, error) {
	query := r.db.Rebind(`
		SELECT al.user_id AS user_id, u.email AS email, u.nama AS nama, COUNT(*) AS total
		FROM activity_logs al
		JOIN users u ON u.id = al.user_id
		WHERE al.created_at >= ? AND al.user_id IS NOT NULL
		GROUP BY al.user_id, u.email, u.nama
		ORDER BY total DESC
		LIMIT ?`)

	var users []activity.ActiveUser
	if err := r.db.Select(&users, query, since, limit); err != nil {
		return nil, err
	}
	return users, nil
}

// Suspicious applies the static thresholds per source address: more than 10
// failed logins or more than 100 events in the window. Aggregate expressions
// are repeated in HAVING because postgres rejects select-list aliases there.
func (r *AnalyticsRepository) Suspicious(since time.Time) ([]activity.SuspiciousIP, error) {
	query := r.db.Rebind(`
		SELECT ip_address,
		       SUM(CASE WHEN action = ? THEN 1 ELSE 0 END) AS failed_logins,
		       COUNT(*) AS total_events
		FROM activity_logs
		WHERE created_at >= ? AND ip_address <> ''
		GROUP BY ip_address
		HAVING SUM(CASE WHEN action = ? THEN 1 ELSE 0 END) > 10 OR COUNT(*) > 100`)

	rows, err := r.db.Query(query, "user.login_failed", since, "user.login_failed")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flagged []activity.SuspiciousIP
	for rows.Next() {
		var ip activity.SuspiciousIP
		if err := rows.Scan(&ip.IPAddress, &ip.FailedLogins, &ip.TotalEvents); err != nil {
			return nil, err
		}
		switch {
		case ip.FailedLogins > 10 && ip.TotalEvents > 100:
			ip.Reason = "failed logins dan volume traffic melebihi ambang"
		case ip.FailedLogins > 10:
			ip.Reason = "failed logins melebihi ambang"
		default:
			ip.Reason = "volume traffic melebihi ambang"
		}
		flagged = append(flagged, ip)
	}
	return flagged, rows.Err()
}

func (r *AnalyticsRepository) FailedLoginCount(email, ip string, since time.Time) (int64, error) {
	b := sq.Select("COUNT(*)").
		From("activity_logs").
		Where(sq.Eq{"action": "user.login_failed"}).
		Where(sq.GtOrEq{"created_at": since})

	source := sq.Or{}
	if ip != "" {
		source = append(source, sq.Eq{"ip_address": ip})
	}
	if email != "" {
		source = append(source, sq.Like{"description": "%" + email + "%"})
	}
	if len(source) > 0 {
		b = b.Where(source)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	var count int64
	if err := r.db.Get(&count, r.db.Rebind(query), args...); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AnalyticsRepository) AgendaHistory(agendaID int64) ([]*activity.Entry, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, action, agenda_id, description, ip_address, user_agent, created_at
		FROM activity_logs
		WHERE agenda_id = ?
		ORDER BY created_at ASC, id ASC`)

	var entries []*activity.Entry
	if err := r.db.Select(&entries, query, agendaID); err != nil {
		return nil, err
	}
	return entries, nil
}

func filterPredicates(filter activity.Filter) sq.And {
	where := sq.And{}
	if filter.UserID != nil {
		where = append(where, sq.Eq{"user_id": *filter.UserID})
	}
	if filter.Action != "" {
		where = append(where, sq.Eq{"action": filter.Action})
	}
	if filter.AgendaID != nil {
		where = append(where, sq.Eq{"agenda_id": *filter.AgendaID})
	}
	if filter.From != nil {
		where = append(where, sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		where = append(where, sq.LtOrEq{"created_at": *filter.To})
	}
	if len(where) == 0 {
		where = append(where, sq.Expr("1 = 1"))
	}
	return where
}
