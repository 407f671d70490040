package webpush

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// Push services reject tokens that expire further out than this.
	maxVAPIDExpiration = 24 * time.Hour

	defaultVAPIDExpiration = 12 * time.Hour

	// ES256 signatures are IEEE P1363 encoded: r || s, 32 bytes each.
	signatureLen = 64
)

func validSubscriber(subscriber string) bool {
	// Google & Firefox allow for empty Subscriber, but Apple doesn't.
	return strings.HasPrefix(subscriber, "https:") || strings.HasPrefix(subscriber, "mailto:")
}

// checkExpiration requires the token to be valid at now and to expire at most
// maxVAPIDExpiration later.
func checkExpiration(now, expiration time.Time) error {
	if !expiration.After(now) {
		return fmt.Errorf("%w: VAPID expiration %v has already passed", ErrConfig, expiration)
	}
	if expiration.After(now.Add(maxVAPIDExpiration)) {
		return fmt.Errorf("%w: VAPID expiration %v is more than %v away",
			ErrConfig, expiration, maxVAPIDExpiration)
	}
	return nil
}

// makeAuthHeader returns the Authorization header value for a request to
// endpoint. The token audience is the origin of the push service, never the
// full subscription URL.
func makeAuthHeader(
	endpoint,
	subscriber string,
	keys *VAPIDKeyPair,
	now, expiration time.Time,
) (string, error) {
	subURL, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: invalid endpoint: %w", ErrValidation, err)
	}
	if subURL.Scheme == "" || subURL.Host == "" {
		return "", fmt.Errorf("%w: invalid endpoint: %q", ErrValidation, endpoint)
	}

	if !validSubscriber(subscriber) {
		return "", fmt.Errorf("%w: invalid subscriber: %q", ErrConfig, subscriber)
	}
	if err := checkExpiration(now, expiration); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"aud": subURL.Scheme + "://" + subURL.Host,
		"exp": expiration.Unix(),
		"sub": subscriber,
	})

	jwtString, err := token.SignedString(keys.private)
	if err != nil {
		return "", fmt.Errorf("%w: signing VAPID token: %w", ErrCrypto, err)
	}

	// Push services only accept the raw encoding, not ASN.1 DER.
	sig, err := b64Decode(jwtString[strings.LastIndexByte(jwtString, '.')+1:])
	if err != nil || len(sig) != signatureLen {
		return "", fmt.Errorf("%w: VAPID signature is not %d raw bytes", ErrCrypto, signatureLen)
	}

	return "vapid t=" + jwtString + ", k=" + keys.PublicKey(), nil
}
