package status

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle status of an order.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid status")

// transitions is the exhaustive transition table. A status missing a target
// here cannot move to it; an empty set means the status is terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

var labels = map[Status]string{
	StatusDraft:     "Rascunho",
	StatusPending:   "Pendente",
	StatusPaid:      "Pago",
	StatusCancelled: "Cancelado",
}

var colors = map[Status]string{
	StatusDraft:     "#6b7280",
	StatusPending:   "#f59e0b",
	StatusPaid:      "#10b981",
	StatusCancelled: "#ef4444",
}

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// ParseStatus parses a status token supplied by a caller.
func ParseStatus(v string) (Status, error) {
	switch Status(v) {
	case StatusDraft, StatusPending, StatusPaid, StatusCancelled:
		return Status(v), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Values returns every known status token.
func Values() []string {
	return []string{
		StatusDraft.String(),
		StatusPending.String(),
		StatusPaid.String(),
		StatusCancelled.String(),
	}
}

// AllowedTransitions returns the statuses s may move to.
func (s Status) AllowedTransitions() []Status {
	return transitions[s]
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsFinal reports whether s has no outgoing transitions.
func (s Status) IsFinal() bool {
	return len(transitions[s]) == 0
}

// Label returns the display label for s.
func (s Status) Label() string {
	return labels[s]
}

// Color returns the display color for s.
func (s Status) Color() string {
	return colors[s]
}

// InvalidTransitionError is returned when a requested status change is not in
// the transition table. No mutation happens when it is raised.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := e.From.AllowedTransitions()
	if len(allowed) == 0 {
		return fmt.Sprintf(
			"cannot change status from %q to %q, allowed transitions: none (terminal)",
			e.From, e.To,
		)
	}

	tokens := make([]string, len(allowed))
	for i, s := range allowed {
		tokens[i] = s.String()
	}

	return fmt.Sprintf(
		"cannot change status from %q to %q, allowed transitions: %s",
		e.From, e.To, strings.Join(tokens, ", "),
	)
}
