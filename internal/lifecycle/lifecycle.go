// Package lifecycle holds the request status state machine.
//
// pending is the only non-terminal state. approved, rejected and cancelled
// have no outgoing transitions.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/viniuy/e-barangay/internal/models"
)

var (
	ErrUnknownStatus     = errors.New("unknown request status")
	ErrInvalidTransition = errors.New("invalid status transition")
)

var transitions = map[models.RequestStatus][]models.RequestStatus{
	models.StatusPending:   {models.StatusApproved, models.StatusRejected, models.StatusCancelled},
	models.StatusApproved:  nil,
	models.StatusRejected:  nil,
	models.StatusCancelled: nil,
}

// Known reports whether s is one of the four request statuses.
func Known(s models.RequestStatus) bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func Terminal(s models.RequestStatus) bool {
	return Known(s) && len(transitions[s]) == 0
}

// Next validates moving from current to requested and returns the new status.
func Next(current, requested models.RequestStatus) (models.RequestStatus, error) {
	if !Known(current) || !Known(requested) {
		return "", ErrUnknownStatus
	}
	for _, s := range transitions[current] {
		if s == requested {
			return requested, nil
		}
	}
	return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, requested)
}
