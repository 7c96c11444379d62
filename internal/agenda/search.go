package agenda

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

// SearchFilter describes the composable predicates of the search endpoint.
// Empty fields are skipped entirely so the generated SQL only carries the
// predicates the caller actually asked for.
type SearchFilter struct {
	Query     string
	Status    string
	CreatedBy *int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int

	// Visibility scope, set by the boundary from the caller's role and never
	// from request input. ApprovedOnly restricts to the approved set;
	// OwnerOrApproved widens that with one user's own rows. Both compose with
	// the caller's other predicates by intersection.
	ApprovedOnly    bool
	OwnerOrApproved *int64
}

func (f SearchFilter) Normalize() SearchFilter {
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// BuildQuery composes the filter into one parameterized SELECT. Placeholders
// stay in question form; callers rebind for their driver when needed.
func (f SearchFilter) BuildQuery() (string, []interface{}, error) {
	b := sq.Select(
		"id", "judul", "deskripsi", "tanggal", "waktu", "tempat", "status",
		"created_by", "approved_by", "approved_at", "rejection_reason",
		"created_at", "updated_at",
	).From("agendas")

	if f.Query != "" {
		like := "%" + f.Query + "%"
		b = b.Where(sq.Or{
			sq.Like{"judul": like},
			sq.Like{"deskripsi": like},
			sq.Like{"tempat": like},
		})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": f.Status})
	}
	if f.CreatedBy != nil {
		b = b.Where(sq.Eq{"created_by": *f.CreatedBy})
	}
	if f.DateFrom != nil {
		b = b.Where(sq.GtOrEq{"tanggal": f.DateFrom.Format("2006-01-02")})
	}
	if f.DateTo != nil {
		b = b.Where(sq.LtOrEq{"tanggal": f.DateTo.Format("2006-01-02")})
	}
	if f.ApprovedOnly {
		b = b.Where(sq.Eq{"status": StatusApproved})
	}
	if f.OwnerOrApproved != nil {
		b = b.Where(sq.Or{
			sq.Eq{"status": StatusApproved},
			sq.Eq{"created_by": *f.OwnerOrApproved},
		})
	}

	b = b.OrderBy("tanggal DESC", "waktu DESC")
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	return b.ToSql()
}
