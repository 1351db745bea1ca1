package storage

import "time"

// Message is the unit of persistence. MessageID is the idempotency key.
// ReceivedAt is assigned by the server at insert time; ordering and
// uniqueness contracts never depend on it.
type Message struct {
	MessageID  string
	FromMSISDN string
	ToMSISDN   string
	Timestamp  time.Time
	Text       *string
	ReceivedAt time.Time
}

// InsertOutcome is the tagged result of an insert-if-absent. A duplicate is
// a successful, idempotent outcome, not an error.
type InsertOutcome int

const (
	OutcomeCreated InsertOutcome = iota
	OutcomeDuplicate
)

func (o InsertOutcome) String() string {
	if o == OutcomeDuplicate {
		return "duplicate"
	}
	return "created"
}

// Filter narrows a scan. Zero values mean "no constraint".
type Filter struct {
	FromMSISDN string
	Since      *time.Time
	Text       string
}

type SenderCount struct {
	From  string
	Count int64
}

type Stats struct {
	TotalMessages int64
	SendersCount  int64
	TopSenders    []SenderCount
	FirstMessage  *time.Time
	LastMessage   *time.Time
}
