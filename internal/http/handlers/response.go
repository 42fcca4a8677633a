package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/apiclient"
	"github.com/tbourn/emotionwise-web/internal/http/middleware"
	"github.com/tbourn/emotionwise-web/internal/services"
	"github.com/tbourn/emotionwise-web/internal/validation"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"validation_failed"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"Password must be at least 8 characters long."`
	// Field that failed client-side validation
	Field string `json:"field,omitempty" example:"password"`
	// All problems found for Field
	Problems []string `json:"problems,omitempty"`
	// Where to send the user when the session is gone
	LoginURL string `json:"login_url,omitempty" example:"/login"`
	// Upstream HTTP status for upstream_error
	UpstreamStatus int `json:"upstream_status,omitempty" example:"500"`
}

const msgUnreachable = "Could not reach the EmotionWise service. Check your connection and try again."

// fail aborts with the error envelope. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	abort(c, status, ErrorResponse{Code: code, Message: msg})
}

func abort(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = middleware.GetRequestID(c)
	if resp.RequestID == "" {
		resp.RequestID = c.Writer.Header().Get("X-Request-ID")
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service or client error onto a status and code.
//
//	ValidationError        400 validation_failed (+ field, problems)
//	AuthError              401 unauthorized (+ login_url)
//	ConflictError          409 conflict
//	ServerError            502 upstream_error (+ upstream_status)
//	NetworkError           503 upstream_unavailable
//	voting errors          409
//	submission in progress 409
//	unknown entry          404
//	bad label / session id 400
func (h *Handlers) failErr(c *gin.Context, err error) {
	var (
		ve *validation.ValidationError
		ae *apiclient.AuthError
		ce *apiclient.ConflictError
		se *apiclient.ServerError
		ne *apiclient.NetworkError
	)
	switch {
	case errors.As(err, &ve):
		abort(c, http.StatusBadRequest, ErrorResponse{
			Code: ErrCodeValidation, Message: strings.Join(ve.Problems, " "), Field: ve.Field, Problems: ve.Problems,
		})
	case errors.As(err, &ae):
		abort(c, http.StatusUnauthorized, ErrorResponse{
			Code: ErrCodeUnauthorized, Message: ae.Message, LoginURL: h.loginURL,
		})
	case errors.As(err, &ce):
		fail(c, http.StatusConflict, ErrCodeConflict, ce.Message)
	case errors.As(err, &se):
		abort(c, http.StatusBadGateway, ErrorResponse{
			Code: ErrCodeUpstream, Message: se.Message, UpstreamStatus: se.Status,
		})
	case errors.As(err, &ne):
		middleware.LoggerFrom(c).Warn().Err(ne).Msg("upstream unreachable")
		fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, msgUnreachable)
	case errors.Is(err, viewmodel.ErrVotingUnavailable):
		fail(c, http.StatusConflict, ErrCodeVotingUnavailable, "Voting is not available for this entry.")
	case errors.Is(err, viewmodel.ErrVoteInProgress):
		fail(c, http.StatusConflict, ErrCodeVoteInProgress, "A vote for this emotion is already being sent.")
	case errors.Is(err, viewmodel.ErrAlreadyAccepted):
		fail(c, http.StatusConflict, ErrCodeAlreadyAccepted, "Your vote for this emotion was already recorded.")
	case errors.Is(err, services.ErrSubmissionInProgress):
		fail(c, http.StatusConflict, ErrCodeSubmitInProgress, "This feedback is already being sent.")
	case errors.Is(err, services.ErrEntryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "entry not found")
	case errors.Is(err, services.ErrInvalidLabel),
		errors.Is(err, viewmodel.ErrInvalidLabel),
		errors.Is(err, services.ErrInvalidSessionID),
		errors.Is(err, services.ErrEmptyQuery),
		errors.Is(err, services.ErrMissingToken):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
