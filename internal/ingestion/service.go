package ingestion

import (
	"context"
	"fmt"

	"lyftr/internal/logger"
	"lyftr/internal/storage"
	"lyftr/pkg/logging"
	"lyftr/pkg/metrics"
	"lyftr/pkg/tracing"
)

// Outcome is the terminal classification of a webhook request. Exactly one
// outcome is recorded per request.
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeValidationError  Outcome = "validation_error"
)

type Result struct {
	Outcome   Outcome
	MessageID string
	Duplicate bool
}

// Service runs the webhook pipeline: signature check, payload validation,
// then an insert-if-absent into the store.
type Service struct {
	verifier *Verifier
	repo     storage.Repository
	metrics  *metrics.Metrics
	logger   logger.Logger
}

func NewService(verifier *Verifier, repo storage.Repository, m *metrics.Metrics, log logger.Logger) *Service {
	return &Service{
		verifier: verifier,
		repo:     repo,
		metrics:  m,
		logger:   log,
	}
}

// Ingest processes one webhook delivery. The signature is verified over the
// raw body before the body is parsed, so unauthenticated input never reaches
// the validator or the store. A Result is returned alongside the error for
// classified rejections; a nil Result means the pipeline itself failed.
func (s *Service) Ingest(ctx context.Context, body []byte, signature string) (*Result, error) {
	ctx, span := tracing.GetTracer("webhook-service").Start(ctx, "ingestion.process")
	defer span.End()

	if err := s.verifier.Verify(body, signature); err != nil {
		s.metrics.IncWebhookResult(string(OutcomeInvalidSignature))
		s.logger.WarnwCtx(ctx, "Rejected webhook with invalid signature")
		return &Result{Outcome: OutcomeInvalidSignature}, err
	}

	msg, err := ParsePayload(body)
	if err != nil {
		s.metrics.IncWebhookResult(string(OutcomeValidationError))
		s.logger.WarnwCtx(ctx, "Rejected webhook with invalid payload", "error", err)
		return &Result{Outcome: OutcomeValidationError}, err
	}

	ctx = logging.WithMessageID(ctx, msg.MessageID)

	outcome, err := s.repo.Insert(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to store message %s: %w", msg.MessageID, err)
	}

	result := &Result{MessageID: msg.MessageID}
	switch outcome {
	case storage.OutcomeDuplicate:
		result.Outcome = OutcomeDuplicate
		result.Duplicate = true
	default:
		result.Outcome = OutcomeCreated
	}

	s.metrics.IncWebhookResult(string(result.Outcome))
	s.logger.InfowCtx(ctx, "Processed webhook message",
		"result", string(result.Outcome),
		"from", msg.FromMSISDN,
		"to", msg.ToMSISDN,
	)
	return result, nil
}
