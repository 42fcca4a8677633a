package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError means no usable response was received: the connection failed,
// the request timed out, or the circuit breaker is open.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("apiclient: %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is a 401 from the API. Recovered reports whether this failure
// cleared the stored token and triggered the login redirect.
type AuthError struct {
	Message   string
	Recovered bool
}

func (e *AuthError) Error() string {
	return "apiclient: unauthorized: " + e.Message
}

// ServerError is any other non-2xx reply.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("apiclient: status %d: %s", e.Status, e.Message)
}

// ConflictError is returned by Register when the account already exists.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "apiclient: conflict: " + e.Message
}

const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgAccountExists  = "An account with this email already exists."
)

// genericMessage is shown when the server sent nothing usable.
func genericMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return "The request was invalid."
	case status == http.StatusUnauthorized:
		return msgSessionExpired
	case status == http.StatusForbidden:
		return "You do not have permission to do that."
	case status == http.StatusNotFound:
		return "The requested resource was not found."
	case status == http.StatusConflict:
		return "The request conflicts with existing data."
	case status == http.StatusUnprocessableEntity:
		return "Please check your input."
	case status == http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	case status >= 500:
		return "The server encountered an error. Please try again later."
	default:
		return "The request could not be completed."
	}
}

// serverMessage extracts a human-readable message from an error body.
// FastAPI sends {"detail": "..."} or, for validation failures,
// {"detail": [{"msg": "...", ...}]}; other services use "message" or "error".
func serverMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if len(env.Detail) > 0 {
		var s string
		if json.Unmarshal(env.Detail, &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(env.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if m := strings.TrimSpace(it.Msg); m != "" {
					msgs = append(msgs, m)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	if m := strings.TrimSpace(env.Message); m != "" {
		return m
	}
	return strings.TrimSpace(env.Error)
}

func messageFor(status int, body []byte) string {
	if m := serverMessage(body); m != "" {
		return m
	}
	return genericMessage(status)
}
