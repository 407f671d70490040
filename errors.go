package webpush

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Errors returned by this package wrap one of these. Use errors.Is to
// classify them.
var (
	// ErrConfig reports missing or malformed VAPID keys, subscriber or
	// options. It is fatal at startup.
	ErrConfig = errors.New("webpush: invalid config")

	// ErrValidation reports a malformed subscription. Only the one message
	// is rejected.
	ErrValidation = errors.New("webpush: invalid subscription")

	// ErrCrypto reports an invalid curve point or an encryption failure.
	ErrCrypto = errors.New("webpush: crypto failure")

	// ErrPayloadTooLarge is returned before any network attempt when the
	// record would exceed the configured record size.
	ErrPayloadTooLarge = errors.New("webpush: payload too large")
)

// StatusError is returned by Deliver when the push service answers with a
// non 2xx status. Deciding what to do about it is up to the caller.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := "webpush: push service responded with " + strconv.Itoa(e.StatusCode)
	if len(e.Body) > 0 {
		msg += ": " + string(e.Body)
	}
	return msg
}

// Gone reports whether the subscription no longer exists and should be
// pruned.
func (e *StatusError) Gone() bool {
	return e.StatusCode == http.StatusGone || e.StatusCode == http.StatusNotFound
}

// TooLarge reports whether the push service rejected the body size.
func (e *StatusError) TooLarge() bool {
	return e.StatusCode == http.StatusRequestEntityTooLarge
}

// RateLimited reports whether the push service asked us to back off.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// RetryAfter returns the delay requested by the Retry-After header, or zero
// if there was none. Both delta-seconds and HTTP-date forms are accepted.
func (e *StatusError) RetryAfter() time.Duration {
	v := e.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
