package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeChecker struct {
	name string
	err  error
}

func (c *fakeChecker) Name() string                    { return c.name }
func (c *fakeChecker) Check(ctx context.Context) error { return c.err }

func TestCheckerRegistry_AllHealthy(t *testing.T) {
	registry := NewCheckerRegistry()
	registry.Register(&fakeChecker{name: "a"})
	registry.Register(&fakeChecker{name: "b"})

	h := registry.Check(context.Background())

	assert.Equal(t, StatusHealthy, h.Status)
	assert.Len(t, h.Checks, 2)
	assert.Equal(t, StatusHealthy, h.Checks["a"].Status)
}

func TestCheckerRegistry_OneUnhealthy(t *testing.T) {
	registry := NewCheckerRegistry()
	registry.Register(&fakeChecker{name: "db", err: fmt.Errorf("connection refused")})
	registry.Register(&fakeChecker{name: "ok"})

	h := registry.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, StatusUnhealthy, h.Checks["db"].Status)
	assert.Contains(t, h.Checks["db"].Message, "connection refused")
	assert.Equal(t, StatusHealthy, h.Checks["ok"].Status)
}

func TestCheckerRegistry_Empty(t *testing.T) {
	registry := NewCheckerRegistry()
	h := registry.Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
}
