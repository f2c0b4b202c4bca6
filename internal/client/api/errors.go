package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds. Match with errors.Is; the concrete *Error carries
// the HTTP status and server detail.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("forbidden")
	ErrValidation     = errors.New("validation failed")
	ErrNetwork        = errors.New("network unreachable")

	// ErrSessionExpired is surfaced when neither the access token nor a
	// refresh can authenticate further requests. It matches
	// ErrAuthentication.
	ErrSessionExpired = fmt.Errorf("%w: session expired", ErrAuthentication)
)

// Error is a typed failure returned by the access layer for any non-2xx
// response. Status is the original HTTP status code; Detail is the server's
// message; Fields carries per-field validation messages when present.
type Error struct {
	Status int
	Detail string
	Fields map[string]string

	kind error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Unwrap exposes the taxonomy sentinel, so errors.Is(err, api.ErrValidation)
// and friends work. Statuses outside the mapped set unwrap to nothing.
func (e *Error) Unwrap() error { return e.kind }

// errorPayload is the backend's error body: {"detail": ..., "status": ...}
// where detail is either a plain string or {"error": ..., "message": ...}.
type errorPayload struct {
	Detail errorDetail `json:"detail"`
	Status int         `json:"status"`
}

type errorDetail struct {
	Message string
	Fields  map[string]string
}

func (d *errorDetail) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		d.Message = s
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if msg, ok := obj["message"]; ok {
		d.Message = msg
	} else if msg, ok := obj["error"]; ok {
		d.Message = msg
	}
	for k, v := range obj {
		if k == "message" || k == "error" {
			continue
		}
		if d.Fields == nil {
			d.Fields = map[string]string{}
		}
		d.Fields[k] = v
	}
	return nil
}

// newStatusError maps an HTTP status and decoded payload to a typed error.
func newStatusError(status int, body []byte) *Error {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = errorPayload{}
	}
	if payload.Detail.Message == "" && payload.Detail.Fields == nil {
		// undecodable or empty body: synthesize a payload from the status
		payload.Detail.Message = http.StatusText(status)
	}

	e := &Error{
		Status: status,
		Detail: payload.Detail.Message,
		Fields: payload.Detail.Fields,
	}
	switch status {
	case http.StatusBadRequest:
		e.kind = ErrValidation
	case http.StatusUnauthorized:
		e.kind = ErrAuthentication
	case http.StatusForbidden:
		e.kind = ErrAuthorization
	}
	return e
}

// networkError wraps a transport-level failure (connection refused, DNS,
// timeout) so it never pattern-matches an HTTP-level kind.
func networkError(err error) error {
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
