package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used by unit tests and local
// development. It mirrors the postgres semantics: idempotent insert keyed on
// MessageID, canonical (ts, message_id) ordering, case-insensitive text match.
type MemoryRepository struct {
	mu       sync.Mutex
	messages map[string]Message
	failErr  error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		messages: make(map[string]Message),
	}
}

// Fail makes every subsequent operation (including Ping) return err.
// Passing nil restores normal behavior.
func (r *MemoryRepository) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

func (r *MemoryRepository) Insert(ctx context.Context, msg *Message) (InsertOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failErr != nil {
		return OutcomeDuplicate, r.failErr
	}

	if _, exists := r.messages[msg.MessageID]; exists {
		return OutcomeDuplicate, nil
	}

	msg.ReceivedAt = time.Now().UTC()
	r.messages[msg.MessageID] = *msg
	return OutcomeCreated, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failErr != nil {
		return nil, r.failErr
	}

	matches := r.match(filter)
	if offset >= len(matches) {
		return nil, nil
	}
	matches = matches[offset:]
	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *MemoryRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failErr != nil {
		return 0, r.failErr
	}
	return int64(len(r.match(filter))), nil
}

func (r *MemoryRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failErr != nil {
		return nil, r.failErr
	}

	stats := &Stats{TopSenders: make([]SenderCount, 0)}
	senders := make(map[string]int64)

	for _, msg := range r.messages {
		stats.TotalMessages++
		senders[msg.FromMSISDN]++

		ts := msg.Timestamp
		if stats.FirstMessage == nil || ts.Before(*stats.FirstMessage) {
			first := ts
			stats.FirstMessage = &first
		}
		if stats.LastMessage == nil || ts.After(*stats.LastMessage) {
			last := ts
			stats.LastMessage = &last
		}
	}

	stats.SendersCount = int64(len(senders))
	for from, count := range senders {
		stats.TopSenders = append(stats.TopSenders, SenderCount{From: from, Count: count})
	}
	sort.Slice(stats.TopSenders, func(i, j int) bool {
		if stats.TopSenders[i].Count != stats.TopSenders[j].Count {
			return stats.TopSenders[i].Count > stats.TopSenders[j].Count
		}
		return stats.TopSenders[i].From < stats.TopSenders[j].From
	})
	if len(stats.TopSenders) > 10 {
		stats.TopSenders = stats.TopSenders[:10]
	}

	return stats, nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failErr
}

func (r *MemoryRepository) match(filter Filter) []Message {
	var matches []Message
	for _, msg := range r.messages {
		if filter.FromMSISDN != "" && msg.FromMSISDN != filter.FromMSISDN {
			continue
		}
		if filter.Since != nil && msg.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.Text != "" {
			if msg.Text == nil || !strings.Contains(strings.ToLower(*msg.Text), strings.ToLower(filter.Text)) {
				continue
			}
		}
		matches = append(matches, msg)
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].Timestamp.Equal(matches[j].Timestamp) {
			return matches[i].Timestamp.Before(matches[j].Timestamp)
		}
		return matches[i].MessageID < matches[j].MessageID
	})
	return matches
}
