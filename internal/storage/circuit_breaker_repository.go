package storage

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"lyftr/internal/config"
	"lyftr/pkg/circuitbreaker"
)

// CircuitBreakerRepository shields the database from sustained failure:
// once the breaker opens, calls fail fast instead of piling onto a sick
// connection pool. Ping is deliberately not wrapped so readiness keeps
// reporting the true state of the store.
type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerRepository(repo Repository, cfg config.CircuitBreakerConfig, cbCfg circuitbreaker.Config) *CircuitBreakerRepository {
	if !cfg.Enabled {
		return &CircuitBreakerRepository{repo: repo}
	}

	if cfg.MaxRequests > 0 {
		cbCfg.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbCfg.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbCfg.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbCfg.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		}
	}

	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(cbCfg),
	}
}

func (r *CircuitBreakerRepository) Insert(ctx context.Context, msg *Message) (InsertOutcome, error) {
	if r.cb == nil {
		return r.repo.Insert(ctx, msg)
	}

	result, err := r.execute(ctx, func() (interface{}, error) {
		return r.repo.Insert(ctx, msg)
	})
	if err != nil {
		return OutcomeDuplicate, err
	}

	outcome, ok := result.(InsertOutcome)
	if !ok {
		return OutcomeDuplicate, fmt.Errorf("repository returned invalid result type")
	}
	return outcome, nil
}

func (r *CircuitBreakerRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]Message, error) {
	if r.cb == nil {
		return r.repo.List(ctx, filter, limit, offset)
	}

	result, err := r.execute(ctx, func() (interface{}, error) {
		return r.repo.List(ctx, filter, limit, offset)
	})
	if err != nil {
		return nil, err
	}

	messages, ok := result.([]Message)
	if !ok && result != nil {
		return nil, fmt.Errorf("repository returned invalid result type")
	}
	return messages, nil
}

func (r *CircuitBreakerRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	if r.cb == nil {
		return r.repo.Count(ctx, filter)
	}

	result, err := r.execute(ctx, func() (interface{}, error) {
		return r.repo.Count(ctx, filter)
	})
	if err != nil {
		return 0, err
	}

	total, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("repository returned invalid result type")
	}
	return total, nil
}

func (r *CircuitBreakerRepository) Stats(ctx context.Context) (*Stats, error) {
	if r.cb == nil {
		return r.repo.Stats(ctx)
	}

	result, err := r.execute(ctx, func() (interface{}, error) {
		return r.repo.Stats(ctx)
	})
	if err != nil {
		return nil, err
	}

	stats, ok := result.(*Stats)
	if !ok {
		return nil, fmt.Errorf("repository returned invalid result type")
	}
	return stats, nil
}

func (r *CircuitBreakerRepository) Ping(ctx context.Context) error {
	return r.repo.Ping(ctx)
}

func (r *CircuitBreakerRepository) execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	result, err := r.cb.ExecuteWithContext(ctx, fn)

	r.cb.RecordRequest(err == nil)

	if err != nil {
		if r.cb.IsOpen() {
			return nil, fmt.Errorf("circuit breaker is open for %s: %w", r.cb.Name(), err)
		}
		return nil, err
	}
	return result, nil
}
