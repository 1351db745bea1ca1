package query

import (
	"time"

	"lyftr/internal/storage"
)

type MessageResponse struct {
	MessageID string  `json:"message_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	TS        string  `json:"ts"`
	Text      *string `json:"text"`
}

type ListResponse struct {
	Data   []MessageResponse `json:"data"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type SenderCount struct {
	From  string `json:"from"`
	Count int64  `json:"count"`
}

type StatsResponse struct {
	TotalMessages     int64         `json:"total_messages"`
	SendersCount      int64         `json:"senders_count"`
	MessagesPerSender []SenderCount `json:"messages_per_sender"`
	FirstMessageTS    *string       `json:"first_message_ts"`
	LastMessageTS     *string       `json:"last_message_ts"`
}

func toMessageResponse(msg storage.Message) MessageResponse {
	return MessageResponse{
		MessageID: msg.MessageID,
		From:      msg.FromMSISDN,
		To:        msg.ToMSISDN,
		TS:        formatTimestamp(msg.Timestamp),
		Text:      msg.Text,
	}
}

// formatTimestamp renders timestamps in UTC with a trailing Z so clients
// see one canonical form regardless of the offset the sender used.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}
