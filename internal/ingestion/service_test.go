package ingestion

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyftr/internal/logger"
	"lyftr/internal/storage"
	"lyftr/pkg/errors"
	"lyftr/pkg/metrics"
)

const testSecret = "testsecret"

func newTestService(repo storage.Repository) *Service {
	return NewService(NewVerifier(testSecret), repo, nil, logger.NopLogger())
}

func TestService_Ingest_Created(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := newTestService(repo)

	body := validBody("m1")
	result, err := svc.Ingest(context.Background(), body, sign(testSecret, body))
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, result.Outcome)
	assert.Equal(t, "m1", result.MessageID)
	assert.False(t, result.Duplicate)

	total, err := repo.Count(context.Background(), storage.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestService_Ingest_Duplicate(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := newTestService(repo)

	body := validBody("m1")
	signature := sign(testSecret, body)

	result, err := svc.Ingest(context.Background(), body, signature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, result.Outcome)

	result, err = svc.Ingest(context.Background(), body, signature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
	assert.True(t, result.Duplicate)

	total, err := repo.Count(context.Background(), storage.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestService_Ingest_InvalidSignature(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := newTestService(repo)

	body := validBody("m1")
	result, err := svc.Ingest(context.Background(), body, sign("wrongsecret", body))

	assert.True(t, errors.IsUnauthorized(err))
	require.NotNil(t, result)
	assert.Equal(t, OutcomeInvalidSignature, result.Outcome)

	total, countErr := repo.Count(context.Background(), storage.Filter{})
	require.NoError(t, countErr)
	assert.Equal(t, int64(0), total)
}

func TestService_Ingest_ValidationError(t *testing.T) {
	repo := storage.NewMemoryRepository()
	svc := newTestService(repo)

	// Correctly signed but invalid payload: signature check passes first,
	// validation rejects, nothing is stored.
	body := []byte(`{"message_id":"","from":"x","to":"y","ts":"nope"}`)
	result, err := svc.Ingest(context.Background(), body, sign(testSecret, body))

	assert.True(t, errors.IsValidation(err))
	require.NotNil(t, result)
	assert.Equal(t, OutcomeValidationError, result.Outcome)

	total, countErr := repo.Count(context.Background(), storage.Filter{})
	require.NoError(t, countErr)
	assert.Equal(t, int64(0), total)
}

func TestService_Ingest_SignatureCheckedBeforeValidation(t *testing.T) {
	svc := newTestService(storage.NewMemoryRepository())

	// Unsigned garbage must be rejected as unauthorized, not as invalid.
	result, err := svc.Ingest(context.Background(), []byte(`not json at all`), "")
	assert.True(t, errors.IsUnauthorized(err))
	assert.Equal(t, OutcomeInvalidSignature, result.Outcome)
}

func TestService_Ingest_StoreFailure(t *testing.T) {
	repo := storage.NewMemoryRepository()
	repo.Fail(fmt.Errorf("connection refused"))
	svc := newTestService(repo)

	body := validBody("m1")
	result, err := svc.Ingest(context.Background(), body, sign(testSecret, body))

	require.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, errors.IsUnauthorized(err))
	assert.False(t, errors.IsValidation(err))
}

func TestService_Ingest_WebhookMetrics(t *testing.T) {
	repo := storage.NewMemoryRepository()
	m := metrics.New()
	svc := NewService(NewVerifier(testSecret), repo, m, logger.NopLogger())

	body := validBody("m1")
	signature := sign(testSecret, body)

	_, err := svc.Ingest(context.Background(), body, signature)
	require.NoError(t, err)
	_, err = svc.Ingest(context.Background(), body, signature)
	require.NoError(t, err)
	_, _ = svc.Ingest(context.Background(), body, "deadbeef")

	assert.Equal(t, float64(1), counterValue(t, m.WebhookRequestsTotal, "created"))
	assert.Equal(t, float64(1), counterValue(t, m.WebhookRequestsTotal, "duplicate"))
	assert.Equal(t, float64(1), counterValue(t, m.WebhookRequestsTotal, "invalid_signature"))
	assert.Equal(t, float64(0), counterValue(t, m.WebhookRequestsTotal, "validation_error"))
}

func counterValue(t *testing.T, vec *prometheus.CounterVec, label string) float64 {
	t.Helper()
	return testutil.ToFloat64(vec.WithLabelValues(label))
}
