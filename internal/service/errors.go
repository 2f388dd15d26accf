package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRoomFull     = errors.New("room is full")
	ErrConflict     = errors.New("conflict")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// TranslationError reports a failed translation for one language pair.
type TranslationError struct {
	SourceLang string
	TargetLang string
	Err        error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation %s->%s failed: %v", e.SourceLang, e.TargetLang, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
