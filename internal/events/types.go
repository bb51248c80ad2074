package events

import (
	"time"

	corev1 "k8s.io/api/core/v1"
)

// JobKind categorizes the workload behind a pod, derived from the component
// label the jobs framework sets at creation time.
type JobKind string

const (
	KindUnknown    JobKind = "unknown"
	KindNormal     JobKind = "normal"     // one-off job
	KindCronjob    JobKind = "cronjob"    // scheduled job
	KindContinuous JobKind = "continuous" // always-on deployment
)

// EmailsPolicy is the notification level a tool account requested for a job.
type EmailsPolicy string

const (
	PolicyNone      EmailsPolicy = "none"
	PolicyOnFailure EmailsPolicy = "onfailure"
	PolicyOnFinish  EmailsPolicy = "onfinish"
	PolicyAll       EmailsPolicy = "all"
)

// RunState is the container runtime state carried by a pod status. The three
// kubernetes sub-states are mutually exclusive here; Unknown covers pods that
// report no container status yet.
type RunState string

const (
	StateUnknown    RunState = "unknown"
	StateRunning    RunState = "running"
	StateTerminated RunState = "terminated"
	StateWaiting    RunState = "waiting"
)

// Event is the normalized, immutable snapshot of one pod state transition.
// Start/stop timestamps, reason and message are informational only and do
// not participate in deduplication.
type Event struct {
	PodName  string
	Phase    corev1.PodPhase
	State    RunState
	ExitCode int32 // meaningful only when State == StateTerminated
	Restarts int32

	StartedAt  time.Time
	FinishedAt time.Time
	Reason     string
	Message    string

	// Raw is the source record, kept for diagnostics only.
	Raw *corev1.Pod
}

// Identity ties an event to the aggregates it belongs to. Kind and Policy
// are part of the workload identity: a job observed with a different kind
// or policy label is tracked as a distinct workload.
type Identity struct {
	Tenant   string
	Workload string
	Kind     JobKind
	Policy   EmailsPolicy
}

// Classified is the full output of the classifier: the event plus where it
// belongs.
type Classified struct {
	Identity
	Event Event
}

// Equivalent reports whether two events describe the same logical pod state.
// Only pod name, phase, run state and exit code participate; repeated watch
// deliveries of one state may differ in timestamps, reason and message.
func (e Event) Equivalent(other Event) bool {
	return e.PodName == other.PodName &&
		e.Phase == other.Phase &&
		e.State == other.State &&
		e.ExitCode == other.ExitCode
}
