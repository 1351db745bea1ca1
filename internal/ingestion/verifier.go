package ingestion

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"lyftr/pkg/errors"
)

// Verifier checks the HMAC-SHA256 signature a webhook sender computes over
// the request body. Verification always runs against the exact bytes as
// received: re-serializing a parsed payload would break senders whose JSON
// formatting differs byte-for-byte from the signed form.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return errors.ErrUnauthorized
	}

	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return errors.ErrUnauthorized.WithCause(err)
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := mac.Sum(nil)

	if subtle.ConstantTimeCompare(supplied, expected) != 1 {
		return errors.ErrUnauthorized
	}
	return nil
}
