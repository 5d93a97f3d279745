package shared

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"hrconsole/internal/transport/http/api"
)

const dateLayout = "2006-01-02"

// FieldError is one rejected payload field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field errors so a handler can report every problem of a
// payload in one 400 response.
type Validator struct {
	errs []FieldError
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	if reason = strings.TrimSpace(reason); reason == "" {
		return
	}
	v.errs = append(v.errs, FieldError{Field: strings.TrimSpace(field), Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// Enum accepts an empty value; pair it with Required when the field is mandatory.
func (v *Validator) Enum(field, value string, allowed []string, reason string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if !slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, value) }) {
		v.Add(field, reason)
	}
}

func (v *Validator) MaxLen(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		v.Add(field, fmt.Sprintf("must be at most %d characters", limit))
	}
}

// Date parses a calendar date. Full RFC3339 timestamps are accepted too and
// keep their time of day.
func (v *Validator) Date(field, raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if d, err := time.Parse(dateLayout, raw); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, true
	}
	v.Add(field, "must be a valid date in YYYY-MM-DD format")
	return time.Time{}, false
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() || !end.Before(start) {
		return
	}
	v.Add(startField, "must be on or before "+endField)
	v.Add(endField, "must be on or after "+startField)
}

func (v *Validator) UUID(field, value string, required bool) {
	switch value = strings.TrimSpace(value); {
	case value == "" && required:
		v.Add(field, "is required")
	case value == "":
	case uuid.Validate(value) != nil:
		v.Add(field, "must be a valid id")
	}
}

func (v *Validator) NonNegative(field string, value float64) {
	if value < 0 {
		v.Add(field, "must not be negative")
	}
}

// Errors returns the collected errors ordered by field, then reason.
func (v *Validator) Errors() []FieldError {
	out := slices.Clone(v.errs)
	slices.SortStableFunc(out, func(a, b FieldError) int {
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return strings.Compare(a.Reason, b.Reason)
	})
	return out
}

// Reject writes a validation_error response when anything was collected and
// reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if len(v.errs) == 0 {
		return false
	}
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": v.Errors()}, requestID)
	return true
}

// ValidID rejects a missing or malformed path id.
func ValidID(w http.ResponseWriter, requestID, field, value string) bool {
	v := NewValidator()
	v.UUID(field, value, true)
	return !v.Reject(w, requestID)
}
