package validation

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
)

// maxBodyBytes caps decoded request bodies.
const maxBodyBytes = 64 << 10

var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Validator validates request data
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the validation errors, or nil when there are none.
func (v *Validator) Err() error {
	if v.HasErrors() {
		return v.errors
	}
	return nil
}

// MaxLength validates maximum string length
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// OneOf validates value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v // empty fields take their defaults
	}

	for _, a := range allowed {
		if value == a {
			return v
		}
	}

	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Matches validates value matches a regex pattern
func (v *Validator) Matches(field, value string, pattern *regexp.Regexp, message string) *Validator {
	if value != "" && !pattern.MatchString(value) {
		v.errors.Add(field, message)
	}
	return v
}

// SessionID validates the format of a client-supplied session ID
func (v *Validator) SessionID(field, value string) *Validator {
	return v.Matches(field, value, sessionIDRegex, "Must be 1-128 letters, digits, '-' or '_'")
}

// DecodeAndValidate decodes a JSON request body. Unknown fields and
// oversized bodies are rejected.
func DecodeAndValidate[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	var req T

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Invalid request body")
	}

	return &req, nil
}

// ParseStringQueryParam returns the trimmed query parameter, or "" if absent
func ParseStringQueryParam(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
