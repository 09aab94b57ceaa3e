package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/roadrunner/api-go/validation"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
)

// ValidationError carries per-field messages back to the client as a 400.
// Message is set for request-level problems that belong to no single field.
type ValidationError struct {
	Message string
	Fields  validation.Fields
}

// BadRequest is a ValidationError without field details.
func BadRequest(msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: validation.Fields{}}
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: validation.Fields{}}
}

// FieldError is a ValidationError with a single message.
func FieldError(field, msg string) *ValidationError {
	v := NewValidationError()
	v.Add(field, msg)
	return v
}

func (v *ValidationError) Add(field, msg string) {
	v.Fields.Add(field, msg)
}

func (v *ValidationError) HasErrors() bool {
	return v.Message != "" || len(v.Fields) > 0
}

// OrNil returns v when it holds messages, otherwise a nil error.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func (v *ValidationError) Error() string {
	if len(v.Fields) == 0 {
		return v.Message
	}
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
