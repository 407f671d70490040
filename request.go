package webpush

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Urgency directly impacts battery life.
//
// https://www.rfc-editor.org/rfc/rfc8030.html#section-5.3
type Urgency string

const (
	// UrgencyVeryLow targets "On power and Wi-Fi".
	UrgencyVeryLow Urgency = "very-low"
	// UrgencyLow targets "On either power or Wi-Fi".
	UrgencyLow Urgency = "low"
	// UrgencyNormal targets "On neither power nor Wi-Fi".
	UrgencyNormal Urgency = "normal"
	// UrgencyHigh targets any state including "Low battery".
	UrgencyHigh Urgency = "high"
)

func (u Urgency) isValid() bool {
	switch u {
	case UrgencyVeryLow, UrgencyLow, UrgencyNormal, UrgencyHigh:
		return true
	}
	return false
}

// Topics use the URL and filename safe Base64 alphabet and are limited to 32
// characters.
//
// https://www.rfc-editor.org/rfc/rfc8030.html#section-5.4
const maxTopicLen = 32

func validTopic(topic string) bool {
	if len(topic) > maxTopicLen {
		return false
	}
	for i := 0; i < len(topic); i++ {
		c := topic[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

type requestOptions struct {
	ttl     time.Duration
	topic   string
	urgency Urgency
}

// buildRequest wraps an encrypted record in the POST the push service
// expects. The record is sent as is.
func buildRequest(
	ctx context.Context,
	endpoint string,
	record []byte,
	authHeader string,
	opts requestOptions,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(record))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("TTL", strconv.Itoa(int(opts.ttl.Seconds())))

	if opts.topic != "" {
		req.Header.Set("Topic", opts.topic)
	}
	if opts.urgency != "" {
		req.Header.Set("Urgency", string(opts.urgency))
	}
	return req, nil
}
