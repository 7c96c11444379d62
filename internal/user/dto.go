package user

import (
	errors "github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email    string `json:"email"`
	Nama     string `json:"nama"`
	Password string `json:"password"`
}

func (dto CreateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Email().MaxLength(255)
	v.Field("nama", dto.Nama).Required().MaxLength(255)
	v.Field("password", dto.Password).Required().MinLength(6).MaxLength(50)
	return v.Validate()
}

// UpdateUserDTO carries partial updates. Role is intentionally absent: it is
// derived from the email domain and never editable.
type UpdateUserDTO struct {
	Nama   string `json:"nama,omitempty"`
	Status string `json:"status,omitempty"`
}

func (dto UpdateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Nama != "" {
		v.Field("nama", dto.Nama).MaxLength(255)
	}
	if dto.Status != "" {
		v.Field("status", dto.Status).OneOf(StatusActive, StatusInactive)
	}
	return v.Validate()
}

type ResetPasswordDTO struct {
	Password string `json:"password"`
}

func (dto ResetPasswordDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("password", dto.Password).Required().MinLength(6).MaxLength(50)
	return v.Validate()
}
