// Package candidate extracts applicant fields from the body of an application email.
package candidate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is wrapped by MissingFieldError.
var ErrMissingField = errors.New("missing field")

// ErrEmptyRecord is returned when every label is present but all values are blank.
var ErrEmptyRecord = errors.New("empty record: all fields are blank")

// Record holds the fields extracted for one applicant.
type Record struct {
	Name  string
	Phone string
	Role  string
}

// Labels are the line markers searched for in the body. Matching is a
// case-sensitive substring test.
type Labels struct {
	Name  string
	Phone string
	Role  string
}

// DefaultLabels match the application form the mailbox receives.
var DefaultLabels = Labels{Name: "Nome", Phone: "Telefone", Role: "Vaga"}

// MissingFieldError reports labels that never appeared in the body.
type MissingFieldError struct {
	Labels []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: no line labelled %s", strings.Join(e.Labels, ", "))
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// Extract scans body line by line. The first label a line contains decides
// the field (name, then phone, then role); a later line overwrites an earlier
// value for the same field. The value is the text after the first colon with
// surrounding whitespace removed, so CRLF bodies and values containing colons
// come out intact. Lines without a colon are ignored.
func Extract(body string, labels Labels) (Record, error) {
	var rec Record
	var hasName, hasPhone, hasRole bool

	for _, line := range strings.Split(body, "\n") {
		var field *string
		var seen *bool
		switch {
		case labels.Name != "" && strings.Contains(line, labels.Name):
			field, seen = &rec.Name, &hasName
		case labels.Phone != "" && strings.Contains(line, labels.Phone):
			field, seen = &rec.Phone, &hasPhone
		case labels.Role != "" && strings.Contains(line, labels.Role):
			field, seen = &rec.Role, &hasRole
		default:
			continue
		}

		_, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		*field = strings.TrimSpace(value)
		*seen = true
	}

	var missing []string
	if !hasName {
		missing = append(missing, labels.Name)
	}
	if !hasPhone {
		missing = append(missing, labels.Phone)
	}
	if !hasRole {
		missing = append(missing, labels.Role)
	}
	if len(missing) > 0 {
		return rec, &MissingFieldError{Labels: missing}
	}
	if rec.Empty() {
		return rec, ErrEmptyRecord
	}
	return rec, nil
}

// Empty reports whether no field holds a value.
func (r Record) Empty() bool {
	return r.Name == "" && r.Phone == "" && r.Role == ""
}

// Row returns the record as spreadsheet cells in column order.
func (r Record) Row() []string {
	return []string{r.Name, r.Phone, r.Role}
}
