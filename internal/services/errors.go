// Package services implements the EmotionWise use-cases: authentication,
// detection, history, per-emotion voting and feedback. This file centralizes
// service-level error values so they can be returned consistently and mapped
// to HTTP results by the handler layer.
//
// Upstream failures are not wrapped in sentinels; they keep their apiclient
// types (*apiclient.AuthError, *apiclient.ServerError, ...) and client-side
// input problems stay *validation.ValidationError.
package services

import "errors"

var (
	// ErrEntryNotFound indicates that no log entry with the given key has been
	// detected or loaded in this profile.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidLabel is returned when a vote names a label that is not one of
	// the entry's detected emotions.
	ErrInvalidLabel = errors.New("label not detected for this entry")

	// ErrInvalidSessionID is returned for a blank session id.
	ErrInvalidSessionID = errors.New("session id is required")

	// ErrEmptyQuery is returned by a history search without search terms.
	ErrEmptyQuery = errors.New("search query is required")

	// ErrMissingToken is returned by VerifyEmail without a token.
	ErrMissingToken = errors.New("verification token is required")

	// ErrSubmissionInProgress is returned when another request holding the
	// same Idempotency-Key has not finished yet.
	ErrSubmissionInProgress = errors.New("a submission with this idempotency key is in progress")
)
