package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var (
	emailPattern       = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	passwordSpecials   = "@#$%^&+=!"
	errBodyUnreadable  = errors.New("malformed JSON request body")
	passwordRuleReason = "Password must contain at least one digit, one lowercase, one uppercase, and one special character"
)

type validationErrors map[string]string

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("strict_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	return v
}

// IsStrongPassword reports whether p contains a digit, a lowercase letter,
// an uppercase letter and one of @#$%^&+=!. Length is checked separately.
func IsStrongPassword(p string) bool {
	var digit, lower, upper, special bool
	for _, r := range p {
		switch {
		case r >= '0' && r <= '9':
			digit = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return digit && lower && upper && special
}

// decodeAndValidate reads a JSON body into dst and runs the struct tags.
// A non-nil validationErrors means the body parsed but failed validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) (validationErrors, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("%w: %w", errBodyUnreadable, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data", errBodyUnreadable)
	}

	err := h.validate.Struct(dst)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	out := make(validationErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fieldMessage(fe)
		}
	}
	return out, nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	label := strings.ToUpper(field[:1]) + field[1:]

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email", "strict_email":
		return "Invalid email format"
	case "password":
		return passwordRuleReason
	case "min", "max":
		switch field {
		case "password":
			return "Password must be between 8 and 100 characters"
		case "email":
			return "Email is too long"
		}
		if fe.Tag() == "min" {
			return fmt.Sprintf("%s must be at least %s", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	}

	return label + " is invalid"
}
