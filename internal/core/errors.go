package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Every core operation fails with one of the typed errors below (possibly
// wrapped), so adapters can map each failure to a specific, actionable
// response instead of a generic 500.

// InvalidTransitionError reports an illegal work-order status change.
type InvalidTransitionError struct {
	From WorkOrderStatus
	To   WorkOrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition work order from %s to %s", e.From, e.To)
}

// MissingDataError reports a required field or reason that was absent or blank.
type MissingDataError struct {
	Field  string
	Detail string
}

func (e *MissingDataError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s is required: %s", e.Field, e.Detail)
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// ValidationError carries one or more field-level problems. Close-out and
// draft validation can fail for several reasons at once, so Issues is a list.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Issues, "; ")
}

// ConflictError reports a write rejected by an admission check, most notably
// an over-allocation attempt. Requested and Remaining carry the exact amounts
// so callers can render the shortfall.
type ConflictError struct {
	Message   string
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *ConflictError) Error() string { return e.Message }

// newOverAllocationError builds the canonical over-allocation conflict.
func newOverAllocationError(requested, remaining decimal.Decimal) *ConflictError {
	return &ConflictError{
		Message: fmt.Sprintf("Cannot allocate $%s. Only $%s remaining.",
			requested.StringFixed(2), remaining.StringFixed(2)),
		Requested: requested,
		Remaining: remaining,
	}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Ref)
}

// PermissionDeniedError reports an authorization failure. Authorization
// policy itself lives in the web adapter; the core only carries the type.
type PermissionDeniedError struct {
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Action)
}
