package agenda

import (
	"time"

	errors "github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/core/common/validation"
)

// AgendaDTO is the payload for both create and update. Status is honored on
// create only, and only for admin callers.
type AgendaDTO struct {
	Judul     string `json:"judul"`
	Deskripsi string `json:"deskripsi,omitempty"`
	Tanggal   string `json:"tanggal"`
	Waktu     string `json:"waktu"`
	Tempat    string `json:"tempat"`
	Status    string `json:"status,omitempty"`
}

func (dto AgendaDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("judul", dto.Judul).Required().MaxLength(255)
	v.Field("deskripsi", dto.Deskripsi).MaxLength(1000)
	v.Field("tanggal", dto.Tanggal).Required().DateFormat()
	v.Field("waktu", dto.Waktu).Required().TimeFormat()
	v.Field("tempat", dto.Tempat).Required().MaxLength(255)
	if dto.Status != "" {
		v.Field("status", dto.Status).OneOf(StatusPending, StatusApproved)
	}
	return v.Validate()
}

// ParseTanggal converts the validated date string. Call only after Validate.
func (dto AgendaDTO) ParseTanggal() (time.Time, error) {
	return time.Parse("2006-01-02", dto.Tanggal)
}

type RejectDTO struct {
	Reason string `json:"reason,omitempty"`
}

func (dto RejectDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Reason != "" {
		v.Field("reason", dto.Reason).MaxLength(1000)
	}
	return v.Validate()
}
