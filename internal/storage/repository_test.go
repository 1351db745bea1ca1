package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	since := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    Filter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "no filters",
			filter:    Filter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "sender only",
			filter:    Filter{FromMSISDN: "+111"},
			wantWhere: "WHERE from_msisdn = $1",
			wantArgs:  []interface{}{"+111"},
		},
		{
			name:      "since only",
			filter:    Filter{Since: &since},
			wantWhere: "WHERE ts >= $1",
			wantArgs:  []interface{}{since},
		},
		{
			name:      "text only",
			filter:    Filter{Text: "hello"},
			wantWhere: "WHERE text ILIKE $1",
			wantArgs:  []interface{}{"%hello%"},
		},
		{
			name:      "all filters keep placeholder order",
			filter:    Filter{FromMSISDN: "+111", Since: &since, Text: "hello"},
			wantWhere: "WHERE from_msisdn = $1 AND ts >= $2 AND text ILIKE $3",
			wantArgs:  []interface{}{"+111", since, "%hello%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestNullableText(t *testing.T) {
	assert.False(t, nullableText(nil).Valid)

	text := "hi"
	v := nullableText(&text)
	assert.True(t, v.Valid)
	assert.Equal(t, "hi", v.String)

	empty := ""
	v = nullableText(&empty)
	assert.True(t, v.Valid)
	assert.Equal(t, "", v.String)
}

func TestInsertOutcome_String(t *testing.T) {
	assert.Equal(t, "created", OutcomeCreated.String())
	assert.Equal(t, "duplicate", OutcomeDuplicate.String())
}

func TestMemoryRepository_InsertIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	text := "first"
	msg := &Message{
		MessageID:  "m1",
		FromMSISDN: "+111",
		ToMSISDN:   "+222",
		Timestamp:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		Text:       &text,
	}

	outcome, err := repo.Insert(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.False(t, msg.ReceivedAt.IsZero())

	// Same key with different content still reports duplicate and keeps
	// the first write.
	other := "second"
	outcome, err = repo.Insert(ctx, &Message{
		MessageID:  "m1",
		FromMSISDN: "+333",
		ToMSISDN:   "+444",
		Timestamp:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		Text:       &other,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	messages, err := repo.List(ctx, Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "+111", messages[0].FromMSISDN)
	require.NotNil(t, messages[0].Text)
	assert.Equal(t, "first", *messages[0].Text)
}

func TestMemoryRepository_Fail(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.Fail(assert.AnError)

	_, err := repo.Insert(ctx, &Message{MessageID: "m1"})
	assert.Error(t, err)
	_, err = repo.Count(ctx, Filter{})
	assert.Error(t, err)
	assert.Error(t, repo.Ping(ctx))

	repo.Fail(nil)
	assert.NoError(t, repo.Ping(ctx))
}
