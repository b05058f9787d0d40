package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSample is wrapped by every ValidationError.
var ErrInvalidSample = errors.New("invalid forecast sample")

// ValidationError reports the first malformed sample of a feed.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: sample %d: %s %s", ErrInvalidSample, e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSample
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("finite", isFinite); err != nil {
		panic(err)
	}
	return v
}

func isFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Validate checks every sample and stops at the first failure.
func Validate(samples []Sample) error {
	for i := range samples {
		err := validate.Struct(samples[i])
		if err == nil {
			continue
		}

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Index: i, Field: fe.Field(), Reason: reason(fe)}
		}
		return fmt.Errorf("%w: sample %d: %v", ErrInvalidSample, i, err)
	}
	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be a positive unix timestamp"
	case "finite":
		return "must be a finite number"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
