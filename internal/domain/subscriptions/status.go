package subscriptions

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Status string

const (
	// StatusPending: a payment failed and the subscription sits in its grace
	// window awaiting recovery.
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	// StatusCancelledActive: the user cancelled at period end; entitlement
	// runs until end_date.
	StatusCancelledActive Status = "cancelled_active"
	StatusCancelled       Status = "cancelled"
	StatusExpired         Status = "expired"
)

var ErrInvalidTransition = errors.New("invalid subscription status transition")

var transitions = map[Status][]Status{
	StatusPending:         {StatusActive, StatusCancelled, StatusExpired},
	StatusActive:          {StatusPending, StatusCancelledActive, StatusCancelled},
	StatusCancelledActive: {StatusActive, StatusExpired, StatusCancelled},
	// cancelled and expired are terminal
	StatusCancelled: {},
	StatusExpired:   {},
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates and applies a status change in memory. Persisting is
// the caller's job.
func (s *Subscription) Transition(to Status) error {
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	s.Status = to
	return nil
}

// LockForUpdate takes a row lock so concurrent webhook deliveries for the same
// stripe_subscription_id serialize. SQLite has no FOR UPDATE and serializes
// writers itself, so the clause is skipped there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
