// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodingError is a classified failure of a single provider lookup.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit the provider throttled us.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded quota exhausted or access denied.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout the request did not complete in time.
	ErrorTypeTimeout
	// ErrorTypeNotFound the provider has no match for the location.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the provider rejected the request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError transport failure or service unavailable.
	ErrorTypeNetworkError
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeNetworkError:
		return "network"
	default:
		return "unknown"
	}
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether err is caused by provider throttling.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is caused by an exhausted quota.
func IsQuotaExceededError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeQuotaExceeded
	}

	// Google Maps reports it in the body status
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError reports whether the provider had no match for the location.
func IsNotFoundError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeNotFound
	}

	return false
}

// ClassifyHTTPError maps a non-200 provider response to a GeocodingError.
func ClassifyHTTPError(statusCode int, provider string) *GeocodingError {
	prefix := provider
	if prefix == "" {
		prefix = "geocoder"
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: prefix + ": rate limit reached",
		}
	case http.StatusForbidden, http.StatusUnauthorized:
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: prefix + ": quota exceeded or access denied",
		}
	case http.StatusBadRequest:
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: prefix + ": invalid request",
		}
	case http.StatusNotFound:
		return &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: prefix + ": location not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("%s: service unavailable (status %d)", prefix, statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("%s: HTTP error %d", prefix, statusCode),
		}
	}
}

// ResolutionError reports the input that could not be turned into a
// coordinate. It aborts the whole resolution.
type ResolutionError struct {
	// Position is 1-based, matching the order the locations were given in.
	Position int
	Text     string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not geocode address #%d %q: %v", e.Position, e.Text, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Hint returns a corrective action for the user.
func (e *ResolutionError) Hint() string {
	switch {
	case e.Err == nil:
		return "check the address and try again"
	case IsNotFoundError(e.Err):
		return "check the spelling or add the city and state to the address"
	case IsRateLimitError(e.Err):
		return "the geocoding service is throttling requests, wait a few minutes and run again; resolved addresses are cached"
	case IsQuotaExceededError(e.Err):
		return "the geocoding quota is exhausted or the API key was rejected, check the configured key"
	case IsTimeoutError(e.Err):
		return "the geocoding service did not answer in time, check your connection or raise geocoder.timeout"
	default:
		return "check your internet connection and run again; resolved addresses are cached"
	}
}
