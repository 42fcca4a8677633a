package viewmodel

import "errors"

var (
	// ErrVotingUnavailable means the entry has no feedback record to attach
	// votes to. It is not a network failure.
	ErrVotingUnavailable = errors.New("voting unavailable for this entry")
	ErrVoteInProgress    = errors.New("vote already in progress")
	ErrAlreadyAccepted   = errors.New("vote already recorded")
	ErrNoPendingVote     = errors.New("no pending vote")
	ErrInvalidOutcome    = errors.New("vote outcome must be accepted or failed")
	ErrInvalidLabel      = errors.New("unknown emotion label")
)
