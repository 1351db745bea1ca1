package ingestion

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyftr/pkg/errors"
)

func validBody(messageID string) []byte {
	return []byte(fmt.Sprintf(
		`{"message_id":%q,"from":"+491234567890","to":"+4987654321","ts":"2025-01-15T10:00:00Z","text":"hello"}`,
		messageID,
	))
}

func TestParsePayload_Valid(t *testing.T) {
	msg, err := ParsePayload(validBody("m1"))
	require.NoError(t, err)

	assert.Equal(t, "m1", msg.MessageID)
	assert.Equal(t, "+491234567890", msg.FromMSISDN)
	assert.Equal(t, "+4987654321", msg.ToMSISDN)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), msg.Timestamp.UTC())
	require.NotNil(t, msg.Text)
	assert.Equal(t, "hello", *msg.Text)
}

func TestParsePayload_NullText(t *testing.T) {
	msg, err := ParsePayload([]byte(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z","text":null}`))
	require.NoError(t, err)
	assert.Nil(t, msg.Text)
}

func TestParsePayload_OffsetTimestamp(t *testing.T) {
	msg, err := ParsePayload([]byte(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T12:00:00+02:00"}`))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), msg.Timestamp.UTC())
}

func TestParsePayload_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "not json",
			body: `{"message_id": `,
		},
		{
			name: "empty message_id",
			body: `{"message_id":"","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z"}`,
		},
		{
			name: "missing message_id",
			body: `{"from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z"}`,
		},
		{
			name: "from without plus",
			body: `{"message_id":"m1","from":"491234","to":"+2","ts":"2025-01-15T10:00:00Z"}`,
		},
		{
			name: "from with letters",
			body: `{"message_id":"m1","from":"+49abc","to":"+2","ts":"2025-01-15T10:00:00Z"}`,
		},
		{
			name: "to empty",
			body: `{"message_id":"m1","from":"+1","to":"","ts":"2025-01-15T10:00:00Z"}`,
		},
		{
			name: "naive timestamp",
			body: `{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00"}`,
		},
		{
			name: "garbage timestamp",
			body: `{"message_id":"m1","from":"+1","to":"+2","ts":"yesterday"}`,
		},
		{
			name: "missing timestamp",
			body: `{"message_id":"m1","from":"+1","to":"+2"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := ParsePayload([]byte(tt.body))
			assert.Nil(t, msg)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestParsePayload_TextLength(t *testing.T) {
	// Multibyte runes count as one character each.
	atLimit := strings.Repeat("ä", 4096)
	body := fmt.Sprintf(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z","text":%q}`, atLimit)
	_, err := ParsePayload([]byte(body))
	assert.NoError(t, err)

	tooLong := strings.Repeat("ä", 4097)
	body = fmt.Sprintf(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z","text":%q}`, tooLong)
	_, err = ParsePayload([]byte(body))
	assert.True(t, errors.IsValidation(err))
}

func TestParsePayload_CollectsAllViolations(t *testing.T) {
	_, err := ParsePayload([]byte(`{"message_id":"","from":"nope","to":"nope","ts":"nope"}`))
	require.True(t, errors.IsValidation(err))

	var appErr *errors.Error
	require.ErrorAs(t, err, &appErr)
	violations, ok := appErr.Details["violations"].([]string)
	require.True(t, ok)
	assert.Len(t, violations, 4)
}
