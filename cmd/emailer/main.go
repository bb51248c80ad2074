package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/mailer"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/pipeline"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/web"
)

// runConfig holds parsed configuration for the emailer.
type runConfig struct {
	Kubeconfig string
	ListenAddr string
	Debug      bool
}

func main() {
	cfg := runConfig{}
	flag.StringVar(&cfg.Kubeconfig, "kubeconfig", "", "Path to a kubeconfig file (in-cluster config when empty)")
	flag.StringVar(&cfg.ListenAddr, "listen-address", ":8080", "The address the health and metrics endpoints bind to")
	flag.BoolVar(&cfg.Debug, "debug", true, "Log at debug verbosity until the ConfigMap overrides it")
	flag.Parse()

	// The shared level follows the "debug" tunable once the ConfigMap is
	// read; the flag only decides where it starts.
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	logConfig := zap.NewProductionConfig()
	logConfig.Level = level
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, level); err != nil {
		logger.Fatal("Emailer halted", zap.Error(err))
	}
}

// run contains the main application logic, separated from main() for
// testability.
func run(cfg runConfig, logger *zap.Logger, level zap.AtomicLevel) error {
	logger.Info("Starting jobs emailer",
		zap.String("listen_address", cfg.ListenAddr),
		zap.String("kubeconfig", cfg.Kubeconfig),
		zap.Bool("debug", cfg.Debug),
	)

	restConfig, err := buildRESTConfig(cfg.Kubeconfig)
	if err != nil {
		return fmt.Errorf("loading kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return fmt.Errorf("creating kubernetes client: %w", err)
	}

	return startPipeline(cfg, clientset, logger, level)
}

// buildRESTConfig prefers an explicit kubeconfig path, then the default
// loading rules, so the binary runs both in-cluster and on a laptop.
func buildRESTConfig(kubeconfig string) (*rest.Config, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = kubeconfig
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules,
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
}

// startPipeline wires the stages together and blocks until a shutdown
// signal or the first stage failure. Extracted from run() to allow testing
// with a fake clientset.
func startPipeline(cfg runConfig, clientset kubernetes.Interface, logger *zap.Logger, level zap.AtomicLevel) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	store := config.NewStore(logger, level)
	eventCache := cache.New()
	queue := pipeline.NewQueue()

	// The operational HTTP server rides alongside the pipeline: either one
	// going down takes the other with it. Wait cancels groupCtx on return,
	// which also releases the sender worker.
	group, groupCtx := errgroup.WithContext(ctx)

	sender := mailer.NewSMTPSender(logger, store)
	sender.Start(groupCtx)
	defer sender.Close()

	watcher := pipeline.NewWatcher(logger, clientset, store, eventCache)
	composer := pipeline.NewComposer(logger, store, eventCache, queue)
	dispatcher := pipeline.NewDispatcher(logger, store, queue, sender)
	poller := config.NewPoller(logger, clientset, store)

	supervisor := pipeline.NewSupervisor(logger)
	supervisor.Add("watch", watcher.Start)
	supervisor.Add("compose", composer.Start)
	supervisor.Add("dispatch", dispatcher.Start)
	supervisor.Add("config", poller.Start)

	group.Go(func() error {
		return supervisor.Run(groupCtx)
	})
	group.Go(func() error {
		status := web.NewStatusHandler(logger, store, eventCache, queue)
		return web.NewServer(cfg.ListenAddr, logger, status).Start(groupCtx)
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("jobs emailer stopped")
	return nil
}
