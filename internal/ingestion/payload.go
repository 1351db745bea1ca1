package ingestion

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"lyftr/internal/constants"
	"lyftr/internal/storage"
	"lyftr/pkg/errors"
)

var msisdnPattern = regexp.MustCompile(`^\+\d+$`)

type payload struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	TS        string  `json:"ts"`
	Text      *string `json:"text"`
}

// ParsePayload decodes and validates a webhook body. All field violations
// are collected into a single validation error rather than stopping at the
// first one, so a sender can fix an entire bad payload in one pass.
func ParsePayload(body []byte) (*storage.Message, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errors.ErrValidation.WithCause(err).
			WithDetail("violations", []string{"body is not valid JSON"})
	}

	var violations []string
	if p.MessageID == "" {
		violations = append(violations, "message_id: must not be empty")
	}
	if !msisdnPattern.MatchString(p.From) {
		violations = append(violations, "from: must match ^\\+\\d+$")
	}
	if !msisdnPattern.MatchString(p.To) {
		violations = append(violations, "to: must match ^\\+\\d+$")
	}

	var ts time.Time
	if p.TS == "" {
		violations = append(violations, "ts: must not be empty")
	} else {
		// RFC 3339 requires an explicit offset, which rejects naive
		// timestamps that would otherwise be stored ambiguously.
		parsed, err := time.Parse(time.RFC3339, p.TS)
		if err != nil {
			violations = append(violations, "ts: must be an ISO-8601 timestamp with timezone")
		} else {
			ts = parsed
		}
	}

	if p.Text != nil && utf8.RuneCountInString(*p.Text) > constants.MaxTextLength {
		violations = append(violations,
			fmt.Sprintf("text: must be at most %d characters", constants.MaxTextLength))
	}

	if len(violations) > 0 {
		return nil, errors.ErrValidation.WithDetail("violations", violations)
	}

	return &storage.Message{
		MessageID:  p.MessageID,
		FromMSISDN: p.From,
		ToMSISDN:   p.To,
		Timestamp:  ts,
		Text:       p.Text,
	}, nil
}
