package activity

import "time"

// Entry is one append-only audit row. UserID is nil for system events such
// as the stale-agenda sweep.
type Entry struct {
	ID          int64     `json:"id" db:"id" gorm:"primaryKey"`
	UserID      *int64    `json:"user_id,omitempty" db:"user_id"`
	Action      string    `json:"action" db:"action"`
	AgendaID    *int64    `json:"agenda_id,omitempty" db:"agenda_id"`
	Description string    `json:"description" db:"description"`
	IPAddress   string    `json:"ip_address" db:"ip_address"`
	UserAgent   string    `json:"user_agent" db:"user_agent"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

func (Entry) TableName() string {
	return "activity_logs"
}

// Filter narrows the read-side queries. Zero values mean "no constraint".
type Filter struct {
	UserID   *int64
	Action   string
	AgendaID *int64
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

func (f Filter) Normalize() Filter {
	if f.Limit < 1 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Stats aggregates the log over a date range.
type Stats struct {
	TotalEvents  int64            `json:"total_events"`
	UniqueUsers  int64            `json:"unique_users"`
	UniqueIPs    int64            `json:"unique_ips"`
	FailedLogins int64            `json:"failed_logins"`
	ByAction     map[string]int64 `json:"by_action"`
}

type DailyCount struct {
	Day   string `json:"day" db:"day"`
	Total int64  `json:"total" db:"total"`
}

type ActiveUser struct {
	UserID int64  `json:"user_id" db:"user_id"`
	Email  string `json:"email" db:"email"`
	Nama   string `json:"nama" db:"nama"`
	Total  int64  `json:"total" db:"total"`
}

// SuspiciousIP is an address whose trailing-window traffic crossed one of
// the static thresholds.
type SuspiciousIP struct {
	IPAddress    string `json:"ip_address"`
	FailedLogins int64  `json:"failed_logins"`
	TotalEvents  int64  `json:"total_events"`
	Reason       string `json:"reason"`
}
