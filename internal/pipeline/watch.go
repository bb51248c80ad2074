package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/events"
)

// reopenBackoff is the pause before reopening a watch that failed with an
// error. Normal expiry of the bounded watch reopens without delay.
const reopenBackoff = 5 * time.Second

// Watcher is the pipeline stage feeding the aggregation cache from the
// cluster-wide pod watch.
type Watcher struct {
	logger *zap.Logger
	client kubernetes.Interface
	store  *config.Store
	cache  *cache.Cache

	// cursor is the last delivered ResourceVersion. It advances on every
	// record, admitted or not, so a reopened watch never replays records
	// this process already saw.
	cursor string
}

// NewWatcher creates a Watcher feeding the given cache.
func NewWatcher(logger *zap.Logger, client kubernetes.Interface, store *config.Store, c *cache.Cache) *Watcher {
	return &Watcher{
		logger: logger.Named("watcher"),
		client: client,
		store:  store,
		cache:  c,
	}
}

// Start blocks, opening time-bounded pod watch subscriptions in a loop
// until the context is cancelled. Failing to seed the initial cursor is
// fatal; everything after that point reopens and retries forever.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.seedCursor(ctx); err != nil {
		return fmt.Errorf("seeding watch cursor: %w", err)
	}
	w.logger.Info("starting pod watch", zap.String("resource_version", w.cursor))

	for {
		err := w.watchPods(ctx)
		if ctx.Err() != nil {
			w.logger.Info("pod watch stopping")
			return ctx.Err()
		}
		if err != nil {
			w.logger.Error("pod watch failed, reopening", zap.Error(err))
			time.Sleep(reopenBackoff)
		}
		watchReopensTotal.Inc()
	}
}

// seedCursor lists a single pod to learn the current ResourceVersion, so
// the first subscription does not replay the cluster's event history.
func (w *Watcher) seedCursor(ctx context.Context) error {
	list, err := w.client.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{Limit: 1})
	if err != nil {
		return err
	}
	w.cursor = list.ResourceVersion
	return nil
}

// watchPods runs one bounded watch subscription. It returns nil when the
// subscription expires (the caller reopens immediately) and an error when
// the subscription could not be opened or the context was cancelled.
func (w *Watcher) watchPods(ctx context.Context) error {
	timeout := int64(w.store.Snapshot().WatchTimeout.Seconds())
	watcher, err := w.client.CoreV1().Pods(metav1.NamespaceAll).Watch(ctx, metav1.ListOptions{
		ResourceVersion: w.cursor,
		TimeoutSeconds:  &timeout,
	})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case record, ok := <-watcher.ResultChan():
			if !ok {
				return nil
			}
			w.handleRecord(record)
		}
	}
}

// handleRecord routes one delivered record through admission,
// classification and the cache. Rejections and structural errors are
// logged and swallowed so a bad record can never kill the stage.
func (w *Watcher) handleRecord(record watch.Event) {
	pod, ok := record.Object.(*corev1.Pod)
	if !ok {
		// The API server reports watch-level problems (an expired cursor,
		// for one) as Status objects on the same channel.
		w.logger.Warn("unexpected object on pod watch",
			zap.String("change_type", string(record.Type)),
			zap.Any("object", record.Object))
		podEventsTotal.WithLabelValues("unexpected").Inc()
		return
	}

	w.cursor = pod.ResourceVersion

	name := pod.Namespace + "/" + pod.Name
	if err := events.Admit(pod, record.Type); err != nil {
		w.logger.Debug("ignoring event", zap.String("pod", name), zap.Error(err))
		podEventsTotal.WithLabelValues("filtered").Inc()
		return
	}

	if err := w.cache.AddEvent(pod); err != nil {
		switch {
		case events.IsRejection(err):
			w.logger.Debug("event not retained", zap.String("pod", name), zap.Error(err))
			podEventsTotal.WithLabelValues("rejected").Inc()
		case events.IsStructural(err):
			w.logger.Error("malformed pod record",
				zap.String("pod", name),
				zap.Any("raw", pod),
				zap.Error(err))
			podEventsTotal.WithLabelValues("malformed").Inc()
		default:
			w.logger.Error("could not cache event", zap.String("pod", name), zap.Error(err))
			podEventsTotal.WithLabelValues("error").Inc()
		}
		return
	}

	w.logger.Info("cached event",
		zap.String("tenant", events.TenantOf(pod)),
		zap.String("job", events.JobNameOf(pod)),
		zap.String("pod", name))
	podEventsTotal.WithLabelValues("cached").Inc()
	updateCacheGauges(w.cache)
}
