package models

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	TitleMinLength       = 3
	TitleMaxLength       = 100
	DescriptionMinLength = 5
	DescriptionMaxLength = 500
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors lists every offending field of one input.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Field returns the message for one field, or "" when the field is valid.
func (v ValidationErrors) Field(name string) string {
	for _, fe := range v {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ValidationErrors{{Field: "correo", Message: "email is required"}}
	}
	if !emailRegex.MatchString(email) {
		return ValidationErrors{{Field: "correo", Message: "enter a valid email address"}}
	}
	return nil
}

// ValidateTask checks the length constraints of the trimmed fields before
// anything is submitted.
// It returns nil or a ValidationErrors value.
func ValidateTask(in TaskInput) error {
	in = in.Normalized()
	var errs ValidationErrors
	if fe, ok := checkLength("titulo", in.Title, TitleMinLength, TitleMaxLength); !ok {
		errs = append(errs, fe)
	}
	if fe, ok := checkLength("descripcion", in.Description, DescriptionMinLength, DescriptionMaxLength); !ok {
		errs = append(errs, fe)
	}
	if !in.Status.Valid() {
		errs = append(errs, FieldError{Field: "estado", Message: "status must be P or C"})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkLength(field, value string, min, max int) (FieldError, bool) {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0:
		return FieldError{Field: field, Message: "required"}, false
	case n < min:
		return FieldError{Field: field, Message: fmt.Sprintf("minimum %d characters", min)}, false
	case n > max:
		return FieldError{Field: field, Message: fmt.Sprintf("maximum %d characters", max)}, false
	}
	return FieldError{}, true
}
