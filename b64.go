package webpush

import "encoding/base64"

func b64Encoding(s string) *base64.Encoding {
	hasPadding := len(s) > 0 && s[len(s)-1] == '='
	isURL := false

outer:
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '-', '_':
			isURL = true
			break outer
		case '+', '/':
			break outer
		}
	}

	switch {
	case isURL && hasPadding:
		return base64.URLEncoding
	case isURL && !hasPadding:
		return base64.RawURLEncoding
	case !isURL && hasPadding:
		return base64.StdEncoding
	}
	return base64.RawStdEncoding
}

// Browsers hand out base64url, but stored subscriptions are often re-encoded
// along the way, so all four variants are accepted on input.
func b64Decode(s string) ([]byte, error) {
	return b64Encoding(s).DecodeString(s)
}

// Output is always unpadded base64url.
func b64Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
