package config

import (
	"context"
	"time"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Poller keeps a Store in sync with the jobs-emailer ConfigMap.
type Poller struct {
	logger *zap.Logger
	client kubernetes.Interface
	store  *Store

	// lastVersion is the ResourceVersion of the last applied ConfigMap,
	// so unchanged reads are not re-applied.
	lastVersion string
}

// NewPoller creates a Poller feeding the given store.
func NewPoller(logger *zap.Logger, client kubernetes.Interface, store *Store) *Poller {
	return &Poller{
		logger: logger.Named("config"),
		client: client,
		store:  store,
	}
}

// Start blocks, re-reading the ConfigMap on every poll interval until the
// context is cancelled. The first read happens immediately so the process
// does not run a full interval on defaults.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("starting configmap poller",
		zap.String("namespace", ConfigMapNamespace),
		zap.String("configmap", ConfigMapName))

	p.sync(ctx)

	timer := time.NewTimer(p.store.Snapshot().PollInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("configmap poller stopping")
			return ctx.Err()
		case <-timer.C:
			p.sync(ctx)
			// The interval itself is a tunable, so re-read it each cycle.
			timer.Reset(p.store.Snapshot().PollInterval)
		}
	}
}

// sync fetches the ConfigMap and applies it. On fetch failure the previous
// settings stay in effect.
func (p *Poller) sync(ctx context.Context) {
	cm, err := p.client.CoreV1().ConfigMaps(ConfigMapNamespace).Get(ctx, ConfigMapName, metav1.GetOptions{})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("could not read configmap, keeping current settings", zap.Error(err))
		reloadsTotal.WithLabelValues("error").Inc()
		return
	}

	if cm.ResourceVersion == p.lastVersion {
		reloadsTotal.WithLabelValues("unchanged").Inc()
		return
	}

	p.store.Apply(cm.Data)
	p.lastVersion = cm.ResourceVersion
	reloadsTotal.WithLabelValues("applied").Inc()
}
