package webpush

import (
	"crypto/ecdh"
	"fmt"
	"net/url"
)

const authSecretLen = 16

// Keys are the Base64 encoded values from the User Agent.
type Keys struct {
	Auth   string `json:"auth"`
	P256dh string `json:"p256dh"`
}

// Subscription represents a PushSubscription from the User Agent.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// subscriber is a decoded Subscription, valid for one message.
type subscriber struct {
	endpoint       string
	auth           []byte
	publicKeyBytes []byte
	publicKey      *ecdh.PublicKey
}

// Length and format problems wrap ErrValidation. A well formed p256dh that is
// not a point on P-256 wraps ErrCrypto.
func decodeSubscription(s *Subscription) (*subscriber, error) {
	if s.Endpoint == "" || s.Keys.Auth == "" || s.Keys.P256dh == "" {
		return nil, fmt.Errorf("%w: missing endpoint or keys", ErrValidation)
	}

	endpoint, err := url.Parse(s.Endpoint)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("%w: invalid endpoint: %q", ErrValidation, s.Endpoint)
	}

	auth, err := b64Decode(s.Keys.Auth)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid auth in key: %w", ErrValidation, err)
	}
	if len(auth) != authSecretLen {
		return nil, fmt.Errorf("%w: invalid auth in key: want %d bytes, got %d",
			ErrValidation, authSecretLen, len(auth))
	}

	publicKeyBytes, err := b64Decode(s.Keys.P256dh)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid public key: %w", ErrValidation, err)
	}
	if len(publicKeyBytes) != publicKeyLen || publicKeyBytes[0] != 0x04 {
		return nil, fmt.Errorf("%w: invalid public key: want %d byte uncompressed point, got %d bytes",
			ErrValidation, publicKeyLen, len(publicKeyBytes))
	}

	publicKey, err := parsePublicKey(publicKeyBytes)
	if err != nil {
		return nil, err
	}

	return &subscriber{
		endpoint:       s.Endpoint,
		auth:           auth,
		publicKeyBytes: publicKeyBytes,
		publicKey:      publicKey,
	}, nil
}
