package events

import (
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"
)

// relevantPhases is the fixed set of lifecycle phases worth looking at.
var relevantPhases = map[corev1.PodPhase]bool{
	corev1.PodPending:   true,
	corev1.PodRunning:   true,
	corev1.PodSucceeded: true,
	corev1.PodFailed:    true,
}

// Admit is the cheap, label-only admission check run on every delivered
// watch record before anything is classified. It returns nil when the
// record deserves classification and a *Rejection otherwise. The checks
// run in fixed order; the first failure wins.
func Admit(pod *corev1.Pod, changeType watch.EventType) error {
	if !strings.HasPrefix(pod.Namespace, NamespacePrefix) {
		return Rejectf("namespace %q is not a tool namespace", pod.Namespace)
	}

	if label(pod, LabelToolforge) != ToolforgeTool {
		return Rejectf("pod does not belong to a toolforge tool")
	}

	if label(pod, LabelManagedBy) != ManagedByFramework {
		return Rejectf("pod not managed by %s", ManagedByFramework)
	}

	if component := label(pod, LabelComponent); KindForComponent(component) == KindUnknown {
		return Rejectf("component %q is not a job component", component)
	}

	// Only in-place status transitions matter. ADDED records replay state
	// we have not missed and DELETED records describe teardown.
	if changeType != watch.Modified {
		return Rejectf("change type %s is not a modification", changeType)
	}

	if pod.DeletionTimestamp != nil {
		return Rejectf("pod is being deleted")
	}

	if phase := pod.Status.Phase; !relevantPhases[phase] {
		return Rejectf("pod phase %q is not relevant", phase)
	}

	if emails := label(pod, LabelEmails); emails == "" || emails == string(PolicyNone) {
		return Rejectf("notifications disabled for this job (emails label %q)", emails)
	}

	return nil
}
