package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/testutil"
)

// addRunningEvent caches one retained event for the given tool account.
func addRunningEvent(t *testing.T, c *cache.Cache, account string) {
	t.Helper()
	pod := testutil.MakePod(testutil.PodParams{
		Account:   account,
		Emails:    "all",
		Phase:     corev1.PodRunning,
		Container: testutil.ContainerRunning,
	})
	require.NoError(t, c.AddEvent(pod))
}

func TestComposeOnceOneEmailPerTenant(t *testing.T) {
	c := cache.New()
	addRunningEvent(t, c, "tool1")
	addRunningEvent(t, c, "tool2")

	q := NewQueue()
	composer := NewComposer(zap.NewNop(), pipelineTestStore(), c, q)

	composer.composeOnce()

	require.Equal(t, 2, q.Len())

	// Queue order follows cache insertion order.
	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "toolsbeta.tool1@toolsbeta.wmflabs.org", first.To)
	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "toolsbeta.tool2@toolsbeta.wmflabs.org", second.To)

	// The producing cycle flushed the cache.
	tenants, workloads, events := c.Stats()
	assert.Zero(t, tenants)
	assert.Zero(t, workloads)
	assert.Zero(t, events)
}

func TestComposeOnceEmptyCacheProducesNothing(t *testing.T) {
	q := NewQueue()
	composer := NewComposer(zap.NewNop(), pipelineTestStore(), cache.New(), q)

	composer.composeOnce()

	assert.Equal(t, 0, q.Len())
}

func TestComposeIdleCycleIsIdempotent(t *testing.T) {
	c := cache.New()
	addRunningEvent(t, c, "tool1")

	q := NewQueue()
	composer := NewComposer(zap.NewNop(), pipelineTestStore(), c, q)

	composer.composeOnce()
	require.Equal(t, 1, q.Len())

	// A cycle over the untouched cache produces nothing and flushes
	// nothing.
	composer.composeOnce()
	assert.Equal(t, 1, q.Len())
	tenants, _, _ := c.Stats()
	assert.Zero(t, tenants)
}

func TestComposeIdleCyclePreservesLaterAdditions(t *testing.T) {
	c := cache.New()
	q := NewQueue()
	composer := NewComposer(zap.NewNop(), pipelineTestStore(), c, q)

	// Nothing produced, so nothing may be flushed.
	composer.composeOnce()

	addRunningEvent(t, c, "tool1")
	tenants, _, _ := c.Stats()
	require.Equal(t, 1, tenants)

	composer.composeOnce()
	assert.Equal(t, 1, q.Len())
}

func TestComposeOrderAcrossCycles(t *testing.T) {
	c := cache.New()
	q := NewQueue()
	composer := NewComposer(zap.NewNop(), pipelineTestStore(), c, q)

	addRunningEvent(t, c, "tool1")
	composer.composeOnce()
	addRunningEvent(t, c, "tool2")
	composer.composeOnce()

	first, _ := q.Pop()
	second, _ := q.Pop()
	assert.Contains(t, first.To, "tool1")
	assert.Contains(t, second.To, "tool2")
}

func TestComposeStartStopsOnCancel(t *testing.T) {
	composer := NewComposer(zap.NewNop(), pipelineTestStore(), cache.New(), NewQueue())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- composer.Start(ctx)
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("composer did not return after context cancellation")
	}
}
