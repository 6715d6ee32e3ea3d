package model

import (
	"fmt"
	"strings"
)

// ValidationError reports malformed input such as a non-positive duration or a slot
// outside working hours.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

// ConflictError carries the bookings a candidate interval overlaps so callers can
// offer alternatives.
type ConflictError struct {
	Conflicts []Booking
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "conflict: slot is already taken"
	}
	ids := make([]string, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		ids = append(ids, b.ID)
	}
	return "conflict: overlaps booking " + strings.Join(ids, ", ")
}

type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition: %s -> %s is not allowed", e.From, e.To)
}

type AuthorizationError struct {
	Role   Role
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	msg := fmt.Sprintf("authorization: role %q may not %s", e.Role, e.Action)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}
