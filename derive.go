package webpush

import (
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"slices"

	"golang.org/x/crypto/hkdf"
)

const (
	saltLen  = 16
	ikmLen   = 32
	cekLen   = 16
	nonceLen = 12
)

var (
	webPushInfo              = []byte("WebPush: info\x00")
	contentEncryptionKeyInfo = []byte("Content-Encoding: aes128gcm\x00")
	nonceInfo                = []byte("Content-Encoding: nonce\x00")
)

// contentKeys are the per message secrets. salt travels in the record header.
type contentKeys struct {
	salt  []byte
	cek   []byte
	nonce []byte
}

func hkdfExpand(length int, secret, salt, info []byte) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)
	_, err := io.ReadFull(hkdfReader, key)
	return key, err
}

func newSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: generating salt: %w", ErrCrypto, err)
	}
	return salt, nil
}

// deriveKeys implements RFC 8291 section 3.3 and 3.4. It is deterministic for
// a given ephemeral key, subscriber and salt.
func deriveKeys(ephemeral *ecdh.PrivateKey, ua *subscriber, salt []byte) (*contentKeys, error) {
	// Derive Shared Secret for this Message
	sharedSecret, err := ecdhSecret(ephemeral, ua.publicKey)
	if err != nil {
		return nil, err
	}

	// Derive IKM. Order is user agent key, then application server key.
	keyInfo := slices.Concat(webPushInfo, ua.publicKeyBytes, ephemeral.PublicKey().Bytes())
	ikm, err := hkdfExpand(ikmLen, sharedSecret, ua.auth, keyInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	// Derive Content Encryption Key
	cek, err := hkdfExpand(cekLen, ikm, salt, contentEncryptionKeyInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	// Derive Nonce
	nonce, err := hkdfExpand(nonceLen, ikm, salt, nonceInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	return &contentKeys{salt: salt, cek: cek, nonce: nonce}, nil
}
