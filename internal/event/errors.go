package event

import "errors"

// All errors raised by the aggregate are caller-input errors; they are
// returned synchronously and never wrapped in transient failure modes.
var (
	// ErrInvalidProposal is returned when a proposal index was never
	// issued or refers to a removed slot.
	ErrInvalidProposal = errors.New("invalid proposal")

	// ErrEventFinalized is returned when a new date is proposed on an
	// event that already has a finalized date.
	ErrEventFinalized = errors.New("event already finalized")

	// ErrEventAlreadyFinalized is returned by Finalize when a finalized
	// date has already been chosen.
	ErrEventAlreadyFinalized = errors.New("event is already finalized")

	// ErrEventNotFinalized is returned when the finalized proposal is
	// requested before one has been chosen.
	ErrEventNotFinalized = errors.New("event not finalized")
)
