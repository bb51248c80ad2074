package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// supervisorCheckInterval is how often stages are polled for termination.
const supervisorCheckInterval = 5 * time.Second

// RunFunc is one stage's blocking entry point.
type RunFunc func(ctx context.Context) error

// stageState tracks one running stage.
type stageState struct {
	name string
	run  RunFunc
	done chan struct{}
	err  error
}

// Supervisor runs all registered pipeline stages and enforces the
// fail-fast policy: the first stage to exit, for any reason, brings every
// other stage down with it.
type Supervisor struct {
	logger        *zap.Logger
	stages        []*stageState
	checkInterval time.Duration
}

// NewSupervisor creates an empty Supervisor.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	return &Supervisor{
		logger:        logger.Named("supervisor"),
		checkInterval: supervisorCheckInterval,
	}
}

// Add registers a stage under a name used in logs. Call before Run.
func (s *Supervisor) Add(name string, run RunFunc) {
	s.stages = append(s.stages, &stageState{
		name: name,
		run:  run,
		done: make(chan struct{}),
	})
}

// Run launches every registered stage and blocks until one terminates or
// the parent context is cancelled. Either way it cancels the remaining
// stages, waits for all of them, and returns: nil after an orderly
// parent-driven shutdown, an error naming the first dead stage otherwise.
func (s *Supervisor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, stage := range s.stages {
		s.logger.Info("starting stage", zap.String("stage", stage.name))
		go func() {
			stage.err = stage.run(runCtx)
			close(stage.done)
		}()
	}

	first := s.waitForTermination(ctx)
	cancel()
	s.waitAll()

	if first == nil {
		s.logger.Info("pipeline shut down")
		return nil
	}

	s.logger.Error("pipeline stage terminated, halting",
		zap.String("stage", first.name),
		zap.Error(first.err))
	if first.err != nil {
		return fmt.Errorf("stage %s terminated: %w", first.name, first.err)
	}
	return fmt.Errorf("stage %s terminated", first.name)
}

// waitForTermination polls the stages until one has exited or the parent
// context is cancelled. Returns the first terminated stage found, or nil
// on parent cancellation.
func (s *Supervisor) waitForTermination(ctx context.Context) *stageState {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, stage := range s.stages {
				select {
				case <-stage.done:
					// A stage dying while shutdown is already underway is
					// not a failure.
					if ctx.Err() != nil {
						return nil
					}
					return stage
				default:
				}
			}
		}
	}
}

// waitAll blocks until every stage goroutine has returned.
func (s *Supervisor) waitAll() {
	for _, stage := range s.stages {
		<-stage.done
	}
}
