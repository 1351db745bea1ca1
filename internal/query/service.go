package query

import (
	"context"
	"fmt"
	"time"

	"lyftr/internal/constants"
	"lyftr/internal/logger"
	"lyftr/internal/storage"
)

// ListParams carries already-parsed listing parameters. Limit and Offset
// are normalized by the service; filters are passed through untouched.
type ListParams struct {
	Limit      int
	Offset     int
	FromMSISDN string
	Since      *time.Time
	Text       string
}

type Service struct {
	repo   storage.Repository
	logger logger.Logger
}

func NewService(repo storage.Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// List returns one page of messages plus the total match count for the same
// filters, so clients can paginate without scanning to the end.
func (s *Service) List(ctx context.Context, params ListParams) (*ListResponse, error) {
	if params.Limit > constants.MaxListLimit {
		params.Limit = constants.MaxListLimit
	}

	filter := storage.Filter{
		FromMSISDN: params.FromMSISDN,
		Since:      params.Since,
		Text:       params.Text,
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	messages, err := s.repo.List(ctx, filter, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	data := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		data = append(data, toMessageResponse(msg))
	}

	return &ListResponse{
		Data:   data,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	perSender := make([]SenderCount, 0, len(stats.TopSenders))
	for _, sc := range stats.TopSenders {
		perSender = append(perSender, SenderCount{From: sc.From, Count: sc.Count})
	}

	return &StatsResponse{
		TotalMessages:     stats.TotalMessages,
		SendersCount:      stats.SendersCount,
		MessagesPerSender: perSender,
		FirstMessageTS:    formatTimestampPtr(stats.FirstMessage),
		LastMessageTS:     formatTimestampPtr(stats.LastMessage),
	}, nil
}
