// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/rifas-backend/internal/utils"
)

var (
	ErrRaffleNotFound          = errors.New("raffle not found")
	ErrRaffleClosed            = errors.New("raffle is closed")
	ErrInvalidSellerCode       = errors.New("invalid seller code")
	ErrEmptySelection          = errors.New("no numbers selected")
	ErrNumbersUnavailable      = errors.New("numbers unavailable")
	ErrBusy                    = errors.New("raffle busy, retry later")
	ErrSellerNotFound          = errors.New("seller not found")
	ErrSellerAlreadyRegistered = errors.New("user already has a seller code")
	ErrCodeSpaceExhausted      = errors.New("could not allocate a unique seller code")
	ErrUserExists              = errors.New("user with this email already exists")
	ErrInvalidCredentials      = errors.New("invalid email or password")
)

// UnavailableError lists the requested numbers that could not be granted.
type UnavailableError struct {
	Numbers []int
}

func (e *UnavailableError) Error() string {
	parts := make([]string, len(e.Numbers))
	for i, n := range e.Numbers {
		parts[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("numbers unavailable: %s", strings.Join(parts, ","))
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrNumbersUnavailable
}

// ValidationError is a caller error on raffle or seller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// validateRequest runs struct validation and reports the first failure.
func validateRequest(req interface{}) error {
	err := utils.ValidateStruct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		if details := utils.GetValidationErrors(verrs); len(details) > 0 {
			return newValidationError(details[0].Field, details[0].Message)
		}
	}
	return fmt.Errorf("validation failed: %w", err)
}
