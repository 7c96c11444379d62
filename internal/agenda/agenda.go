package agenda

import (
	"encoding/json"
	"time"

	"github.com/frahmantamala/agenda-management/internal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Fixed reason strings carried over from the legacy system so existing
// consumers keep matching on them.
const (
	DefaultRejectionReason = "Ditolak oleh admin"
	StaleRejectionReason   = "Auto-rejected: Pending terlalu lama"
)

type Agenda struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	Judul           string     `json:"judul"`
	Deskripsi       string     `json:"deskripsi"`
	Tanggal         time.Time  `json:"tanggal" gorm:"type:date"`
	Waktu           string     `json:"waktu"`
	Tempat          string     `json:"tempat"`
	Status          string     `json:"status"`
	CreatedBy       int64      `json:"created_by"`
	ApprovedBy      *int64     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Agenda) TableName() string {
	return "agendas"
}

func (a *Agenda) IsPending() bool {
	return a.Status == StatusPending
}

func (a *Agenda) IsResolved() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

// MarshalJSON renders tanggal as a bare date, matching the wire format the
// mobile client already expects.
func (a Agenda) MarshalJSON() ([]byte, error) {
	type alias Agenda
	return json.Marshal(struct {
		alias
		Tanggal string `json:"tanggal"`
	}{
		alias:   alias(a),
		Tanggal: a.Tanggal.Format("2006-01-02"),
	})
}

// Stats summarises the agenda table for the dashboard endpoint.
type Stats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Today    int64 `json:"today"`
	Upcoming int64 `json:"upcoming"`
	Past     int64 `json:"past"`
}

var (
	ErrAgendaNotFound        = internal.NewNotFoundError("agenda tidak ditemukan", internal.ErrCodeAgendaNotFound)
	ErrAgendaAlreadyResolved = internal.NewConflictError("agenda sudah diproses", internal.ErrCodeAgendaAlreadyResolved)
	ErrNotAgendaOwner        = internal.NewForbiddenError("hanya pembuat agenda yang dapat mengubahnya", internal.ErrCodeNotAgendaOwner)
)
