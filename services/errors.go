package services

import (
	"fmt"
	"strings"
)

// ValidationError reports a missing or malformed field in a request.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Detail)
	}
	return "validation failed: " + e.Detail
}

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// AuthorizationError reports that the acting user has no mapping to the
// requested resource.
type AuthorizationError struct {
	Detail string
}

func (e *AuthorizationError) Error() string {
	return e.Detail
}

// InsufficientPoolError reports that a selection criterion matched zero
// questions. Filters holds the resolved human-readable dimension values of
// the unmet combination so the caller can relax the request.
type InsufficientPoolError struct {
	Filters []string
}

func (e *InsufficientPoolError) Error() string {
	desc := strings.Join(e.Filters, ", ")
	if desc == "" {
		desc = "the specified criteria"
	}
	return fmt.Sprintf("no questions found matching: %s. Please add questions to the question bank first or use more flexible criteria", desc)
}

// RenderError reports that the document engine failed or timed out.
type RenderError struct {
	Detail string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render failed: %s: %v", e.Detail, e.Err)
	}
	return "render failed: " + e.Detail
}

func (e *RenderError) Unwrap() error { return e.Err }

// PersistenceError reports a failed storage write. The already-rendered
// document is left in place so the caller may retry persistence alone.
type PersistenceError struct {
	Detail string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("persistence failed: %s: %v", e.Detail, e.Err)
	}
	return "persistence failed: " + e.Detail
}

func (e *PersistenceError) Unwrap() error { return e.Err }
