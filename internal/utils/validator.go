// internal/utils/validator.go
package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate        *validator.Validate
	sellerCodeRegex = regexp.MustCompile("^[A-Z0-9]{4,12}$")
	dniRegex        = regexp.MustCompile("^[0-9]{8}$")
)

func init() {
	validate = validator.New()
	validate.RegisterValidation("seller_code", validateSellerCode)
	validate.RegisterValidation("dni", validateDNI)
	validate.RegisterValidation("unique_positions", validateUniquePositions)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsSellerCode reports whether code has the shape of a seller code.
func IsSellerCode(code string) bool {
	return sellerCodeRegex.MatchString(code)
}

func validateSellerCode(fl validator.FieldLevel) bool {
	return IsSellerCode(fl.Field().String())
}

func validateDNI(fl validator.FieldLevel) bool {
	return dniRegex.MatchString(fl.Field().String())
}

// validateUniquePositions checks a slice of structs carrying a Position int
// field, such as a raffle prize list.
func validateUniquePositions(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}

	seen := make(map[int64]struct{}, field.Len())
	for i := 0; i < field.Len(); i++ {
		item := reflect.Indirect(field.Index(i))
		if item.Kind() != reflect.Struct {
			return false
		}
		pos := item.FieldByName("Position")
		if !pos.IsValid() || !pos.CanInt() {
			return false
		}
		if _, dup := seen[pos.Int()]; dup {
			return false
		}
		seen[pos.Int()] = struct{}{}
	}
	return true
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   toSnakeCase(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "url":
		return e.Field() + " must be a valid URL"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "seller_code":
		return "Seller code must be 4-12 uppercase letters or digits"
	case "dni":
		return "DNI must be exactly 8 digits"
	case "unique_positions":
		return "Prize positions must be unique"
	default:
		return e.Field() + " is invalid"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
