package validation

import (
	"fmt"
	"net/mail"
	"time"

	errors "github.com/frahmantamala/agenda-management/internal"
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
	errors []errors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
		errors: make([]errors.ValidationError, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s wajib diisi", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case int64:
			if v == 0 {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s wajib diisi", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		case *string:
			if v == nil || *v == "" {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s wajib diisi", fv.FieldName), errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if s, ok := value.(string); ok && len(s) > max {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s maksimal %d karakter", fv.FieldName, max), errors.ErrCodeFieldTooLong)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if s, ok := value.(string); ok && s != "" && len(s) < min {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s minimal %d karakter", fv.FieldName, min), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

// DateFormat accepts YYYY-MM-DD.
func (fv *FieldValidator) DateFormat() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if s, ok := value.(string); ok && s != "" {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s harus berformat YYYY-MM-DD", fv.FieldName), errors.ErrCodeInvalidDate)
			}
		}
		return nil
	})
	return fv
}

// TimeFormat accepts HH:MM.
func (fv *FieldValidator) TimeFormat() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if s, ok := value.(string); ok && s != "" {
			if _, err := time.Parse("15:04", s); err != nil {
				return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s harus berformat HH:MM", fv.FieldName), errors.ErrCodeInvalidTime)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if s, ok := value.(string); ok && s != "" {
			if _, err := mail.ParseAddress(s); err != nil {
				return errors.NewValidationFieldError(fv.FieldName, "format email tidak valid", errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) OneOf(allowed ...string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		s, ok := value.(string)
		if !ok || s == "" {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s tidak valid", fv.FieldName), errors.ErrCodeValidationFailed)
	})
	return fv
}

// Validate runs every field's validators and collects failures into a single
// validation AppError, or returns nil when everything passes.
func (v *ValidationBuilder) Validate() *errors.AppError {
	for _, field := range v.fields {
		for _, validate := range field.Validators {
			if appErr := validate(field.Value); appErr != nil {
				if details, ok := appErr.Details.(errors.ValidationErrors); ok {
					v.errors = append(v.errors, details.Errors...)
				} else {
					v.errors = append(v.errors, errors.ValidationError{
						Field:   field.FieldName,
						Message: appErr.Message,
						Code:    string(appErr.Code),
					})
				}
				break
			}
		}
	}

	if len(v.errors) == 0 {
		return nil
	}

	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: v.errors})
}
