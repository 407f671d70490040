package webpush

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
)

const (
	// Uncompressed P-256 point: 0x04 || X || Y.
	publicKeyLen = 65

	// P-256 scalar.
	privateKeyLen = 32
)

// VAPIDKeyPair is the application server's long lived P-256 key pair. It is
// immutable once constructed and safe to share between goroutines.
type VAPIDKeyPair struct {
	private *ecdsa.PrivateKey
	public  []byte
}

// GenerateVAPIDKey will create a private VAPID key in Base64 Raw URL Encoding.
// Generate a key and store it in your configuration. Use ParseVAPIDKey on
// application startup to parse it for use in the Config.
func GenerateVAPIDKey() (string, error) {
	keys, err := GenerateVAPIDKeyPair()
	if err != nil {
		return "", err
	}
	return keys.PrivateKey(), nil
}

// GenerateVAPIDKeyPair creates a new key pair. Store both halves with
// PublicKey and PrivateKey and load them with LoadVAPIDKeyPair.
func GenerateVAPIDKeyPair() (*VAPIDKeyPair, error) {
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return newVAPIDKeyPair(private)
}

// ParseVAPIDKey parses a private key encoded in Base64 and derives the public
// half from it. Use GenerateVAPIDKey to generate a key for use in your
// application.
func ParseVAPIDKey(privateKey string) (*VAPIDKeyPair, error) {
	private, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return newVAPIDKeyPair(private)
}

// LoadVAPIDKeyPair parses both halves of a configured key pair and verifies
// that they belong together. All failures wrap ErrConfig.
func LoadVAPIDKeyPair(publicKey, privateKey string) (*VAPIDKeyPair, error) {
	if publicKey == "" {
		return nil, fmt.Errorf("%w: missing VAPID public key", ErrConfig)
	}
	private, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	publicBytes, err := b64Decode(publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed VAPID public key: %w", ErrConfig, err)
	}
	if _, err := ecdsa.ParseUncompressedPublicKey(elliptic.P256(), publicBytes); err != nil {
		return nil, fmt.Errorf("%w: invalid VAPID public key: %w", ErrConfig, err)
	}

	keys, err := newVAPIDKeyPair(private)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(keys.public, publicBytes) {
		return nil, fmt.Errorf("%w: VAPID public key does not match private key", ErrConfig)
	}
	return keys, nil
}

func parsePrivateKey(privateKey string) (*ecdsa.PrivateKey, error) {
	if privateKey == "" {
		return nil, fmt.Errorf("%w: missing VAPID private key", ErrConfig)
	}
	raw, err := b64Decode(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed VAPID private key: %w", ErrConfig, err)
	}
	if len(raw) != privateKeyLen {
		return nil, fmt.Errorf("%w: VAPID private key must be %d bytes, got %d",
			ErrConfig, privateKeyLen, len(raw))
	}
	private, err := ecdsa.ParseRawPrivateKey(elliptic.P256(), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid VAPID private key: %w", ErrConfig, err)
	}
	return private, nil
}

func newVAPIDKeyPair(private *ecdsa.PrivateKey) (*VAPIDKeyPair, error) {
	public, err := private.PublicKey.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return &VAPIDKeyPair{private: private, public: public}, nil
}

// PublicKey returns the uncompressed public key in Base64 Raw URL Encoding.
// This is the applicationServerKey given to PushManager.subscribe.
func (k *VAPIDKeyPair) PublicKey() string {
	return b64Encode(k.public)
}

// PrivateKey returns the private scalar in Base64 Raw URL Encoding.
func (k *VAPIDKeyPair) PrivateKey() string {
	raw, err := k.private.Bytes()
	if err != nil {
		// only fails for keys not on a NIST curve, which newVAPIDKeyPair
		// never produces
		panic("webpush: " + err.Error())
	}
	return b64Encode(raw)
}

// A new key for every message. Never cache the result.
func generateEphemeralKey() (*ecdh.PrivateKey, error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: generating ephemeral key: %w", ErrCrypto, err)
	}
	return key, nil
}

// parsePublicKey rejects off-curve points and the point at infinity.
func parsePublicKey(raw []byte) (*ecdh.PublicKey, error) {
	key, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid public key: %w", ErrCrypto, err)
	}
	return key, nil
}

func ecdhSecret(local *ecdh.PrivateKey, remote *ecdh.PublicKey) ([]byte, error) {
	secret, err := local.ECDH(remote)
	if err != nil {
		return nil, fmt.Errorf("%w: ecdh: %w", ErrCrypto, err)
	}
	return secret, nil
}
