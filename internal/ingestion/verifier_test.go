package ingestion

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"lyftr/pkg/errors"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifier_Verify(t *testing.T) {
	secret := "testsecret"
	body := []byte(`{"message_id":"m1"}`)

	tests := []struct {
		name      string
		signature string
		wantError bool
	}{
		{
			name:      "valid signature",
			signature: sign(secret, body),
			wantError: false,
		},
		{
			name:      "valid signature with surrounding whitespace",
			signature: " " + sign(secret, body) + "\n",
			wantError: false,
		},
		{
			name:      "missing signature",
			signature: "",
			wantError: true,
		},
		{
			name:      "not hex",
			signature: "not-a-hex-string",
			wantError: true,
		},
		{
			name:      "wrong secret",
			signature: sign("othersecret", body),
			wantError: true,
		},
		{
			name:      "truncated signature",
			signature: sign(secret, body)[:16],
			wantError: true,
		},
	}

	verifier := NewVerifier(secret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.Verify(body, tt.signature)
			if tt.wantError {
				assert.Error(t, err)
				assert.True(t, errors.IsUnauthorized(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerifier_Verify_BodyTamper(t *testing.T) {
	secret := "testsecret"
	body := []byte(`{"message_id":"m1","from":"+111","to":"+222","ts":"2025-01-01T00:00:00Z"}`)
	signature := sign(secret, body)

	verifier := NewVerifier(secret)
	assert.NoError(t, verifier.Verify(body, signature))

	tampered := make([]byte, len(body))
	copy(tampered, body)
	tampered[len(tampered)-2] ^= 0x01

	err := verifier.Verify(tampered, signature)
	assert.True(t, errors.IsUnauthorized(err))
}
