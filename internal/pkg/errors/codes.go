package errors

import "net/http"

// Taxonomy codes. The fetch pipeline reports every failure through one
// of these so callers can distinguish "gave up" from "one specific
// failure" and "no upcoming departures" from "could not fetch".
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeNetwork          = "NETWORK_ERROR"
	CodeHTTPStatus       = "HTTP_STATUS"
	CodeRateLimited      = "RATE_LIMITED"
	CodeDecodingFailed   = "DECODING_FAILED"
	CodeTooManyRetries   = "TOO_MANY_RETRIES"
	CodeRequestCoalesced = "REQUEST_COALESCED"
	CodeNoData           = "NO_DATA"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeDatabase         = "DATABASE_ERROR"
	CodeCache            = "CACHE_ERROR"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Detail keys used in AppError.Details.
const (
	DetailRetryAfterSeconds = "retry_after_seconds"
	DetailHTTPBody          = "http_body"
	DetailAttempts          = "attempts"
	DetailLastError         = "last_error"
)

var (
	ErrInvalidRequest = New(
		CodeInvalidRequest,
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrRouteNotFound = New(
		CodeRouteNotFound,
		"Route not found",
		http.StatusNotFound,
	)

	ErrNoData = New(
		CodeNoData,
		"No live data and no usable offline snapshot",
		http.StatusServiceUnavailable,
	)

	ErrDatabaseError = New(
		CodeDatabase,
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		CodeCache,
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInternalServer = New(
		CodeInternal,
		"Internal server error",
		http.StatusInternalServerError,
	)
)

// Network wraps a transport-level failure (timeout, connection reset).
func Network(err error) *AppError {
	return New(CodeNetwork, "Transport API unreachable", http.StatusBadGateway).Wrap(err)
}

// HTTPStatus wraps a non-success status reported by the server. The
// status code decides retryability: 5xx transient, 4xx terminal.
func HTTPStatus(status int, body []byte) *AppError {
	e := New(CodeHTTPStatus, "Transport API returned an error status", status)
	if len(body) > 0 {
		e = e.WithDetails(map[string]interface{}{DetailHTTPBody: string(body)})
	}
	return e
}

// RateLimited wraps a 429, keeping the server-provided retry-after when
// present.
func RateLimited(retryAfterSeconds *int) *AppError {
	e := New(CodeRateLimited, "Transport API rate limit exceeded", http.StatusTooManyRequests)
	if retryAfterSeconds != nil && *retryAfterSeconds > 0 {
		e = e.WithDetails(map[string]interface{}{DetailRetryAfterSeconds: *retryAfterSeconds})
	}
	return e
}

// DecodingFailed wraps a payload-shape mismatch. Never retried.
func DecodingFailed(err error) *AppError {
	return New(CodeDecodingFailed, "Transport API payload could not be decoded", http.StatusBadGateway).Wrap(err)
}

// TooManyRetries marks retry exhaustion, distinct from the last
// underlying error, which stays reachable via Unwrap and Details.
func TooManyRetries(attempts int, last error) *AppError {
	details := map[string]interface{}{DetailAttempts: attempts}
	if last != nil {
		details[DetailLastError] = last.Error()
	}
	return New(CodeTooManyRetries, "Live data unavailable after retries", http.StatusServiceUnavailable).
		WithDetails(details).
		Wrap(last)
}
