package domain

import (
	"errors"
	"fmt"
)

// ValidationError is a caller mistake: the action is not allowed for this actor
// or carries bad arguments. It is always surfaced, never retried.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NotFoundError reports a missing room (or other keyed entity).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvariantViolation means authoritative state or a transition broke a rule that
// should be unreachable. Callers must not mask it.
type InvariantViolation struct {
	Op     string
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Detail)
}

func NotMember(op string, user UserID) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf("user %q is not a member", user)}
}

func RoomNotFound(id RoomID) error {
	return &NotFoundError{Kind: "room", ID: string(id)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsInvariant(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}
