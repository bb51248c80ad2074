package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/mailer"
)

// Dispatcher is the pipeline stage popping composed emails off the queue
// and handing them to the transport.
type Dispatcher struct {
	logger *zap.Logger
	store  *config.Store
	queue  *Queue
	sender mailer.Sender
}

// NewDispatcher creates a Dispatcher draining the given queue into sender.
func NewDispatcher(logger *zap.Logger, store *config.Store, q *Queue, sender mailer.Sender) *Dispatcher {
	return &Dispatcher{
		logger: logger.Named("dispatcher"),
		store:  store,
		queue:  q,
		sender: sender,
	}
}

// Start blocks, running one dispatch cycle per interval until the context
// is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("starting dispatch loop",
		zap.Duration("interval", d.store.Snapshot().DispatchInterval),
		zap.Int("max_per_cycle", d.store.Snapshot().DispatchMax),
		zap.String("sender", d.sender.Name()))

	timer := time.NewTimer(d.store.Snapshot().DispatchInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatch loop stopping")
			return ctx.Err()
		case <-timer.C:
			d.dispatchOnce(ctx)
			timer.Reset(d.store.Snapshot().DispatchInterval)
		}
	}
}

// dispatchOnce drains up to the configured maximum of emails, strictly in
// queue order. Each send is isolated: a transport failure drops that one
// email and the cycle continues. Failed attempts still count against the
// cycle budget.
func (d *Dispatcher) dispatchOnce(ctx context.Context) {
	d.logger.Debug("dispatch cycle")
	budget := d.store.Snapshot().DispatchMax

	sent := 0
	for sent < budget {
		if ctx.Err() != nil {
			return
		}
		email, ok := d.queue.Pop()
		if !ok {
			if sent == 0 {
				d.logger.Debug("no emails to send")
			}
			return
		}

		if err := d.sender.Send(ctx, email); err != nil {
			d.logger.Error("could not send email, dropping it",
				zap.String("email_id", email.ID),
				zap.String("to", email.To),
				zap.String("sender", d.sender.Name()),
				zap.Error(err))
		}
		sent++
	}

	if remaining := d.queue.Len(); remaining > 0 {
		d.logger.Warn("sent max emails this cycle, waiting before sending more",
			zap.Int("sent", sent),
			zap.Int("still_queued", remaining))
	}
}
