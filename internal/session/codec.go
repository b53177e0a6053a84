package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// The session credential is "base64url(email).base64url(tag)" where tag is
// HMAC-SHA256(secret, base64url(email)). No randomness and no embedded
// expiry; lifetime is enforced by the cookie max-age.

func encoding() *base64.Encoding {
	return base64.RawURLEncoding
}

// Sign produces a credential for email. Deterministic and side-effect free.
func Sign(email, secret string) string {
	payload := encoding().EncodeToString([]byte(email))
	return payload + "." + encoding().EncodeToString(tag(payload, secret))
}

// Verify recomputes the tag over the payload and compares in constant time.
// It fails closed: any missing part, tag mismatch or malformed encoding
// yields ("", false), never an error.
func Verify(credential, secret string) (string, bool) {
	payload, sig, ok := strings.Cut(credential, ".")
	if !ok || payload == "" || sig == "" {
		return "", false
	}

	presented, err := encoding().DecodeString(sig)
	if err != nil {
		return "", false
	}

	if !hmac.Equal(presented, tag(payload, secret)) {
		return "", false
	}

	email, err := encoding().DecodeString(payload)
	if err != nil {
		return "", false
	}
	return string(email), true
}

func tag(payload, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
