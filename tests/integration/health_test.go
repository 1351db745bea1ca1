package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyftr/pkg/health"
)

func TestReadiness_FlipsWhenPoolCloses(t *testing.T) {
	infra := SetupTestInfra(t)
	ctx := context.Background()

	registry := health.NewCheckerRegistry()
	registry.Register(health.NewPostgreSQLChecker(infra.PostgresDB))

	h := registry.Check(ctx)
	assert.Equal(t, health.StatusHealthy, h.Status)

	require.NoError(t, infra.PostgresDB.Close())

	h = registry.Check(ctx)
	assert.Equal(t, health.StatusUnhealthy, h.Status)
	assert.Equal(t, health.StatusUnhealthy, h.Checks["postgresql"].Status)
}
