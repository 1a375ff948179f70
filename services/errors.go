package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error codes persisted to generation_error_logs.
const (
	ErrCodeAuth       = "AUTH_ERROR"
	ErrCodeRateLimit  = "RATE_LIMIT"
	ErrCodeAPI        = "API_ERROR"
	ErrCodeTimeout    = "TIMEOUT"
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeUnknown    = "UNKNOWN_ERROR"
	ErrCodeGeneration = "GENERATION_FAILED"
)

// ValidationError marks bad caller input. Never retried, surfaced as 4xx.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// GatewayError carries the HTTP status the LLM gateway answered with, set at
// the point the error is first raised so classification never depends on
// substring matching.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

func (e *GatewayError) HTTPStatusCode() int { return e.StatusCode }

// ParseError marks a structurally invalid gateway response envelope.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// DatabaseError marks a persistence failure. Not retried by this layer.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string { return "database error: " + e.Op + ": " + e.Err.Error() }
func (e *DatabaseError) Unwrap() error { return e.Err }

// GenerationError marks malformed model output in the generation pipeline.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string { return e.Message }
func (e *GenerationError) Unwrap() error { return e.Err }

// ErrorCode classifies an error into the persisted taxonomy. Typed errors
// are inspected first; the substring heuristics survive only as a fallback
// for errors raised outside this package.
func ErrorCode(err error) string {
	if err == nil {
		return ErrCodeUnknown
	}

	var gw *GatewayError
	if errors.As(err, &gw) {
		switch {
		case gw.StatusCode == 401:
			return ErrCodeAuth
		case gw.StatusCode == 429:
			return ErrCodeRateLimit
		case gw.StatusCode >= 500:
			return ErrCodeAPI
		default:
			return ErrCodeUnknown
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrCodeTimeout
		}
		return ErrCodeNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"):
		return ErrCodeAuth
	case strings.Contains(msg, "429"):
		return ErrCodeRateLimit
	case strings.Contains(msg, "500"):
		return ErrCodeAPI
	case strings.Contains(msg, "timeout"):
		return ErrCodeTimeout
	case strings.Contains(msg, "network"):
		return ErrCodeNetwork
	}
	return ErrCodeUnknown
}
