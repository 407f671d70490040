package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
)

const (
	// Push services are not required to support more than this.
	// Apple for example does not.
	maxRecordSize = 4096

	// salt: 16 + rs: 4 + idlen: 1 + keyid: 65
	headerLen = 86

	// header: 86 + padding: minimum 1 + AEAD_AES_128_GCM Expansion: 16
	minOverhead = 103

	// MaxPayloadSize is the largest message accepted with the default
	// RecordSize and no extra padding.
	MaxPayloadSize = maxRecordSize - minOverhead

	// Marks the final record, RFC 8188 section 2.
	lastRecordDelimiter = 0x02
)

// checkPayloadSize is run before any keys are generated.
func checkPayloadSize(messageLen, padding, recordSize int) error {
	if messageLen > recordSize-minOverhead-padding {
		return fmt.Errorf(
			"%w: message length of %v with %v bytes of padding is too long for record size of %v",
			ErrPayloadTooLarge, messageLen, padding, recordSize)
	}
	return nil
}

// encryptRecord produces the aes128gcm body:
//
//	salt(16) || rs(4) || idlen(1) || keyid(65) || ciphertext
//
// The plaintext is the message, the 0x02 delimiter and padding zero bytes.
// rs covers idlen, keyid and the ciphertext of the single record.
func encryptRecord(message []byte, padding int, keys *contentKeys, keyID []byte) ([]byte, error) {
	// AES + GCM
	aesCipher, err := aes.NewCipher(keys.cek)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}
	gcm, err := cipher.NewGCM(aesCipher)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	plaintextLen := len(message) + 1 + padding
	ciphertextLen := plaintextLen + gcm.Overhead()
	recordSize := 1 + len(keyID) + ciphertextLen
	start := len(keys.salt) + 4 + 1 + len(keyID)

	// Single allocation byte slice in which we write the header, message,
	// delimiter and padding. We then Seal the message and write the resulting
	// ciphertext replacing the plaintext message in the same byte slice.
	record := make([]byte, 0, start+ciphertextLen)
	record = append(record, keys.salt...)
	record = binary.BigEndian.AppendUint32(record, uint32(recordSize))
	record = append(record, byte(len(keyID)))
	record = append(record, keyID...)
	record = append(record, message...)
	record = append(record, lastRecordDelimiter)
	record = append(record, make([]byte, padding)...)
	return gcm.Seal(record[:start], keys.nonce, record[start:], nil), nil
}
