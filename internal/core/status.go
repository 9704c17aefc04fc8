package core

import "strings"

// WorkOrderStatus enumerates the work-order lifecycle states.
type WorkOrderStatus string

const (
	StatusUnscheduled WorkOrderStatus = "UNSCHEDULED"
	StatusScheduled   WorkOrderStatus = "SCHEDULED"
	StatusInProgress  WorkOrderStatus = "IN_PROGRESS"
	StatusCompleted   WorkOrderStatus = "COMPLETED"
	StatusClosed      WorkOrderStatus = "CLOSED"
	StatusCanceled    WorkOrderStatus = "CANCELED"
)

type transition struct {
	from, to WorkOrderStatus
}

// transitionTable is the single source of truth for legal status changes.
// A work order can never return to UNSCHEDULED once it has passed SCHEDULED,
// and CLOSED/CANCELED are terminal.
var transitionTable = map[WorkOrderStatus][]WorkOrderStatus{
	StatusUnscheduled: {StatusScheduled, StatusCanceled},
	StatusScheduled:   {StatusInProgress, StatusUnscheduled, StatusCanceled},
	StatusInProgress:  {StatusCompleted, StatusScheduled, StatusCanceled},
	StatusCompleted:   {StatusClosed, StatusInProgress},
	StatusClosed:      {},
	StatusCanceled:    {},
}

// reasonRequired lists the transitions that demand an operator-supplied
// reason: every cancellation and every backward step.
var reasonRequired = map[transition]bool{
	{StatusUnscheduled, StatusCanceled}:  true,
	{StatusScheduled, StatusUnscheduled}: true,
	{StatusScheduled, StatusCanceled}:    true,
	{StatusInProgress, StatusScheduled}:  true,
	{StatusInProgress, StatusCanceled}:   true,
	{StatusCompleted, StatusInProgress}:  true,
}

// ValidStatus reports whether s is a known work-order status.
func ValidStatus(s WorkOrderStatus) bool {
	_, ok := transitionTable[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible from s.
func IsTerminal(s WorkOrderStatus) bool {
	return len(transitionTable[s]) == 0 && ValidStatus(s)
}

// AllowedTransitions returns the statuses reachable from the current one.
func AllowedTransitions(from WorkOrderStatus) []WorkOrderStatus {
	targets := transitionTable[from]
	out := make([]WorkOrderStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to WorkOrderStatus) bool {
	for _, t := range transitionTable[from] {
		if t == to {
			return true
		}
	}
	return false
}

// RequiresReason reports whether the from → to transition demands an
// operator-supplied reason. Only meaningful for legal transitions.
func RequiresReason(from, to WorkOrderStatus) bool {
	return reasonRequired[transition{from, to}]
}

// CheckTransition validates a requested status change without touching any
// state. It returns *InvalidTransitionError for an illegal pair and
// *MissingDataError when a required reason is absent or blank.
func CheckTransition(from, to WorkOrderStatus, reason string) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	if RequiresReason(from, to) && strings.TrimSpace(reason) == "" {
		return &MissingDataError{
			Field:  "reason",
			Detail: string(from) + " to " + string(to) + " requires a reason",
		}
	}
	return nil
}
