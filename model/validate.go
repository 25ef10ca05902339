package model

import (
	"regexp"
	"strings"
)

// Error tags returned per field. Presentation layers translate them.
const (
	ErrMissing          = "missing"
	ErrChooseOne        = "choose-one"
	ErrChooseAtLeastOne = "choose-at-least-one"
	ErrInvalidFormat    = "invalid-format"
)

// FieldErrors maps a field label to its error tag.
type FieldErrors map[string]string

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Permissive: optional leading +, grouped digits with optional
	// space/dash separators, local or international.
	phoneRe = regexp.MustCompile(`^\+?\d{1,3}?[\s-]?\(?\d{1,4}\)?([\s-]?\d{2,4}){2,4}$`)
)

// ValidateRequired checks that every required field carries a value:
// non-blank string for scalar types, a selection for radio, a non-empty
// selection list for checkbox groups.
func ValidateRequired(fields []FieldDefinition, values map[string]any) FieldErrors {
	errs := FieldErrors{}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		v := values[f.Label]
		switch f.Type {
		case FieldRadio:
			if s, ok := v.(string); !ok || strings.TrimSpace(s) == "" {
				errs[f.Label] = ErrChooseOne
			}
		case FieldCheckbox:
			if len(StringSlice(v)) == 0 {
				errs[f.Label] = ErrChooseAtLeastOne
			}
		default:
			if v == nil || strings.TrimSpace(StringValue(v)) == "" {
				errs[f.Label] = ErrMissing
			}
		}
	}
	return errs
}

// ValidateFormat checks email and phone shapes. It runs whenever a value
// is present, regardless of the required flag.
func ValidateFormat(fields []FieldDefinition, values map[string]any) FieldErrors {
	errs := FieldErrors{}
	for _, f := range fields {
		s := StringValue(values[f.Label])
		if s == "" {
			continue
		}
		switch f.Type {
		case FieldEmail:
			if !emailRe.MatchString(s) {
				errs[f.Label] = ErrInvalidFormat
			}
		case FieldPhone:
			if !phoneRe.MatchString(s) {
				errs[f.Label] = ErrInvalidFormat
			}
		}
	}
	return errs
}

// Validate is the conjunction of the required and format checks. A
// field's required error takes precedence over its format error. An
// empty result means the form is valid.
func Validate(fields []FieldDefinition, values map[string]any) FieldErrors {
	errs := ValidateRequired(fields, values)
	for label, tag := range ValidateFormat(fields, values) {
		if _, taken := errs[label]; !taken {
			errs[label] = tag
		}
	}
	return errs
}

// StringValue returns v as a string, or "" for non-strings.
func StringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// StringSlice coerces a captured checkbox value ([]string, or []any
// after a JSON round trip) to []string.
func StringSlice(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
