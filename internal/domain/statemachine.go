package domain

import "github.com/PCcoding666/LLM-QUOTATION/internal/errors"

// StateMachine centralizes every status rule of the quote lifecycle:
//
//	draft -> confirmed | cancelled
//	any non-deleted state -> deleted (soft delete, dedicated operation)
//
// Confirmed, cancelled and expired accept no further ordinary mutation, and
// expired is only ever set by an external time-based process.
type StateMachine struct{}

// NewStateMachine creates the quote state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

// transitions lists the statuses reachable through an ordinary update.
var transitions = map[QuoteStatus][]QuoteStatus{
	StatusDraft:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {},
	StatusCancelled: {},
	StatusExpired:   {},
	StatusDeleted:   {},
}

// CheckModifiable fails unless the quote is still a draft. Item mutations,
// discount application and metadata edits all pass through here.
func (m *StateMachine) CheckModifiable(status QuoteStatus) error {
	if status != StatusDraft {
		return errors.InvalidState("only draft quotes may be modified")
	}
	return nil
}

// CheckTransition validates a status change requested through an update.
func (m *StateMachine) CheckTransition(from, to QuoteStatus) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return errors.InvalidTransition(string(from), string(to))
}

// CheckDeletable validates a soft delete. Deleted is terminal.
func (m *StateMachine) CheckDeletable(status QuoteStatus) error {
	if status == StatusDeleted {
		return errors.InvalidState("quote is already deleted")
	}
	return nil
}
