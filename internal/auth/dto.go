package auth

import (
	errors "github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/core/common/validation"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Email()
	v.Field("password", dto.Password).Required()
	return v.Validate()
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (dto RefreshTokenDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("refresh_token", dto.RefreshToken).Required()
	return v.Validate()
}

// LoginResult is what a successful authentication hands back to the boundary.
type LoginResult struct {
	User   *Account   `json:"user"`
	Tokens AuthTokens `json:"tokens"`
}
