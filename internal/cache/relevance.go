package cache

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/events"
)

// relevant decides whether a workload retains a newly classified event.
// nil means retain; otherwise the returned *events.Rejection carries the
// reason for debug logging. The checks run in fixed order and the first
// match wins: duplicate and no-information checks come before the policy
// checks so that a policy change never resurrects already-seen noise.
func relevant(w *Workload, event events.Event) error {
	if w.Policy == events.PolicyNone {
		return events.Rejectf("job emails policy is %q", w.Policy)
	}

	for _, cached := range w.Events {
		if cached.Equivalent(event) {
			return events.Rejectf("duplicate delivery of an already cached event for pod %q", event.PodName)
		}
	}

	// A pending pod that reports no container state yet says nothing a
	// tool author would want to read about.
	if event.State == events.StateUnknown && event.Phase == corev1.PodPending {
		return events.Rejectf("pending pod without container state carries no information")
	}

	switch w.Policy {
	case events.PolicyAll:
		return nil
	case events.PolicyOnFinish:
		if event.State == events.StateTerminated {
			return nil
		}
	case events.PolicyOnFailure:
		if event.State == events.StateTerminated && event.ExitCode != 0 {
			return nil
		}
	}

	return events.Rejectf("state %q (exit code %d) not notifiable under policy %q",
		event.State, event.ExitCode, w.Policy)
}
