package integration

import (
	"time"

	"lyftr/internal/logger"
	"lyftr/internal/storage"
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func createTestMessage(messageID, from, to string, ts time.Time, text string) *storage.Message {
	return &storage.Message{
		MessageID:  messageID,
		FromMSISDN: from,
		ToMSISDN:   to,
		Timestamp:  ts,
		Text:       &text,
	}
}
