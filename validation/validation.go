// Package validation collects field violations for form and JSON input.
package validation

import (
	"net/mail"
	"strings"
	"time"
)

// Violations maps a field name to a translation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// RequiredID flags zero foreign keys.
func RequiredID(field string, id uint, v Violations) {
	if id == 0 {
		v[field] = "required"
	}
}

// Email accepts a bare address; display names are rejected.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	a, err := mail.ParseAddress(value)
	if err != nil || a.Address != value {
		v[field] = "invalid_email"
	}
}

// OneOf flags values outside the allowed set.
func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "invalid_choice"
}

// Date parses value with layout; an empty value is left to Required.
func Date(field, value, layout string, v Violations) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		v[field] = "invalid_date"
		return time.Time{}, false
	}
	return t, true
}

// DateOrder flags an end date before the start date.
func DateOrder(field string, start, end time.Time, v Violations) {
	if !end.IsZero() && end.Before(start) {
		v[field] = "end_before_start"
	}
}

func RangeInt(field string, val, minVal, maxVal int, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}
