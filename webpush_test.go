package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/hkdf"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/daaku/ensure"
)

var (
	validVapidKey       = must(ParseVAPIDKey("Npnu7ulDI0A5nvDXgrEreznX809sYVuIqEh7AXG2oOk"))
	validVapidPublicKey = "BBRS0hDoszIXnLVNyR3EbnXnN4glsvb6AusPR9e9L93ZWHeKO4mYTWjpwa5w2xwc0sZBIBIQ-RtwDgE7BZqRWc0"
	validSubscription   = Subscription{
		Endpoint: "https://the.push.server/capability-url",
		Keys: Keys{
			Auth:   "RW2wUiDEKNzSyDxlg7ArbQ",
			P256dh: "BOaRpSCtjsB92YouZnj8iNgCdFDNVNbid40AGxLcR47DI1S-zQkYf1CDG2G4y9GXeg74-8U_mEMzSZc-mRF_X0Y",
		},
	}
	validSubscriptionEndpointOrigin = "https://the.push.server"
	validHTTPSSubscriber            = "https://app.server/"
	validMailtoSubscriber           = "mailto:admin@app.server"
	goldTime                        = time.Date(2015, time.May, 13, 3, 15, 0, 0, time.UTC)
)

// RFC 8291 Appendix A.
var (
	rfcPlaintext        = []byte("When I grow up, I want to be a watermelon")
	rfcAppServerPrivate = "yfWPiYE-n46HLnH0KqZOF1fJJU3MYrct3AELtAQ-oRw"
	rfcAppServerPublic  = "BP4z9KsN6nGRTbVYI_c7VJSPQTBtkgcy27mlmlMoZIIgDll6e3vCYLocInmYWAmS6TlzAC8wEqKK6PBru3jl7A8"
	rfcUserAgentPrivate = "q1dXpw3UpT5VOmu_cf_v6ih07Aems3njxI-JWgLcM94"
	rfcSalt             = "DGv6ra1nlYgDCS1FRnbzlw"
	rfcCEK              = "oIhVW04MRdy2XN9CiKLxTg"
	rfcNonce            = "4h_95klXJ5E_qnoN"
	rfcCiphertext       = "8pfeW0KbunFT06SuDKoJH9Ql87S1QUrdirN6GcG7sFz1y1sqLgVi1VhjVkHsUoEsbI_0LpXMuGvnzQ"
	rfcSubscription     = Subscription{
		Endpoint: "https://push.example.net/push/JzLQ3raZJfFBR0aqvOMsLrt54w4rJUsV",
		Keys: Keys{
			Auth:   "BTBZMqHH6r4Tts7J_aSIgg",
			P256dh: "BCVxsr7N_eNgVRqvHtD0zTZsEc6-VV-JvLexhqUzORcxaOzi6-AYWXvTBHm4bjyPjs7Vd8pZGH6SRpkNtoIAiw4",
		},
	}
)

func must[T any](v T, err error) T {
	if err == nil {
		return v
	}
	panic(fmt.Sprintf("error: %+v", err))
}

type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func ecdhKey(b64 string) *ecdh.PrivateKey {
	return must(ecdh.P256().NewPrivateKey(must(b64Decode(b64))))
}

func newTestSender(t *testing.T, conf Config) *Sender {
	t.Helper()
	if conf.VAPIDKeys == nil {
		conf.VAPIDKeys = validVapidKey
	}
	if conf.Subscriber == "" {
		conf.Subscriber = validHTTPSSubscriber
	}
	s, err := NewSender(&conf)
	ensure.Nil(t, err)
	return s
}

// decryptRecord plays the user agent: it parses an aes128gcm body and
// returns the plaintext including the delimiter and any padding. It only uses
// the standard library so it does not share code with the encrypting side.
func decryptRecord(t *testing.T, record []byte, ua *ecdh.PrivateKey, auth []byte) []byte {
	t.Helper()
	ensure.True(t, len(record) > headerLen, "record too short")

	salt := record[:16]
	rs := binary.BigEndian.Uint32(record[16:20])
	idlen := int(record[20])
	keyID := record[21 : 21+idlen]
	ciphertext := record[21+idlen:]
	ensure.DeepEqual(t, int(rs), 1+idlen+len(ciphertext))

	asPublic, err := ecdh.P256().NewPublicKey(keyID)
	ensure.Nil(t, err)
	secret, err := ua.ECDH(asPublic)
	ensure.Nil(t, err)

	info := "WebPush: info\x00" + string(ua.PublicKey().Bytes()) + string(keyID)
	ikm, err := hkdf.Key(sha256.New, secret, auth, info, 32)
	ensure.Nil(t, err)
	cek, err := hkdf.Key(sha256.New, ikm, salt, "Content-Encoding: aes128gcm\x00", 16)
	ensure.Nil(t, err)
	nonce, err := hkdf.Key(sha256.New, ikm, salt, "Content-Encoding: nonce\x00", 12)
	ensure.Nil(t, err)

	block, err := aes.NewCipher(cek)
	ensure.Nil(t, err)
	gcm, err := cipher.NewGCM(block)
	ensure.Nil(t, err)
	plaintext, err := gcm.Open(nil, nonce, slices.Clone(ciphertext), nil)
	ensure.Nil(t, err)
	return plaintext
}
