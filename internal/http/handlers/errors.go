// Package handlers implements the local EmotionWise HTTP API.
//
// Every error response uses the ErrorResponse envelope with one of the codes
// below, so the browser UI can branch on code rather than on message text:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "unauthorized",
//	  "message": "Your session has expired. Please log in again.",
//	  "login_url": "/login"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeValidation          = "validation_failed"
	ErrCodeUpstream            = "upstream_error"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"
	ErrCodeVotingUnavailable   = "voting_unavailable"
	ErrCodeVoteInProgress      = "vote_in_progress"
	ErrCodeAlreadyAccepted     = "vote_already_accepted"
	ErrCodeSubmitInProgress    = "submission_in_progress"
)
