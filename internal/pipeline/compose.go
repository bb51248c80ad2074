package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/mailer"
)

// Composer is the pipeline stage draining the aggregation cache into the
// outbound queue, one email per tenant.
type Composer struct {
	logger *zap.Logger
	store  *config.Store
	cache  *cache.Cache
	queue  *Queue
}

// NewComposer creates a Composer between the given cache and queue.
func NewComposer(logger *zap.Logger, store *config.Store, c *cache.Cache, q *Queue) *Composer {
	return &Composer{
		logger: logger.Named("composer"),
		store:  store,
		cache:  c,
		queue:  q,
	}
}

// Start blocks, running one compose cycle per interval until the context
// is cancelled.
func (c *Composer) Start(ctx context.Context) error {
	c.logger.Info("starting compose loop",
		zap.Duration("interval", c.store.Snapshot().ComposeInterval))

	timer := time.NewTimer(c.store.Snapshot().ComposeInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("compose loop stopping")
			return ctx.Err()
		case <-timer.C:
			c.composeOnce()
			timer.Reset(c.store.Snapshot().ComposeInterval)
		}
	}
}

// composeOnce drains the cache into the queue. The cache is flushed only
// when this cycle produced output: an idle cycle must not destroy events
// the watch stage added while it ran.
func (c *Composer) composeOnce() {
	c.logger.Debug("compose cycle")
	cfg := c.store.Snapshot()

	before := c.queue.Len()
	tenants := c.cache.Snapshot()
	for _, tenant := range tenants {
		c.queue.Push(mailer.Compose(tenant, cfg))
		composedTotal.Inc()
	}

	if len(tenants) == 0 {
		return
	}

	c.cache.Flush()
	updateCacheGauges(c.cache)

	after := c.queue.Len()
	c.logger.Info("new pending emails in the queue",
		zap.Int("new", after-before),
		zap.Int("queue_size", after))
}
