// Package testutil provides shared test helpers for the jobs emailer.
// Import this in test files to avoid duplicating pod fixtures and builders.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/events"
)

// Container status shapes for PodParams.Container.
const (
	ContainerWaiting    = "waiting"
	ContainerRunning    = "running"
	ContainerTerminated = "terminated"
	// ContainerNone builds a pod with an empty container status list,
	// the shape a just-created pod reports.
	ContainerNone = "none"
)

// Fixed timestamps so event rendering is deterministic in tests.
var (
	StartTime  = time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
	FinishTime = time.Date(2024, 5, 14, 9, 31, 10, 0, time.UTC)
)

// PodParams configures MakePod. Zero values fall back to the shape of a
// healthy one-off job pod with notifications disabled.
type PodParams struct {
	Namespace string // default "tool-" + Account
	Account   string // default "mytool"
	PodName   string // default "myjob-pod-1"
	JobName   string // default "myjob"
	Component string // default "jobs"
	Emails    string // default "none"

	Phase     corev1.PodPhase // default Pending
	Container string          // default ContainerWaiting
	ExitCode  int32
	Restarts  int32
	Reason    string // default "unknown reason"
	Message   string // default "unknown message"

	Deleted bool // set a deletion timestamp
}

// MakePod builds a pod shaped like one the jobs framework creates.
func MakePod(p PodParams) *corev1.Pod {
	if p.Account == "" {
		p.Account = "mytool"
	}
	if p.Namespace == "" {
		p.Namespace = events.NamespacePrefix + p.Account
	}
	if p.PodName == "" {
		p.PodName = "myjob-pod-1"
	}
	if p.JobName == "" {
		p.JobName = "myjob"
	}
	if p.Component == "" {
		p.Component = "jobs"
	}
	if p.Emails == "" {
		p.Emails = "none"
	}
	if p.Phase == "" {
		p.Phase = corev1.PodPending
	}
	if p.Container == "" {
		p.Container = ContainerWaiting
	}
	if p.Reason == "" {
		p.Reason = "unknown reason"
	}
	if p.Message == "" {
		p.Message = "unknown message"
	}

	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      p.PodName,
			Namespace: p.Namespace,
			Labels: map[string]string{
				events.LabelToolforge: events.ToolforgeTool,
				events.LabelManagedBy: events.ManagedByFramework,
				events.LabelCreatedBy: p.Account,
				events.LabelJobName:   p.JobName,
				events.LabelComponent: p.Component,
				events.LabelEmails:    p.Emails,
			},
		},
		Status: corev1.PodStatus{
			Phase: p.Phase,
		},
	}

	if p.Deleted {
		now := metav1.Now()
		pod.DeletionTimestamp = &now
	}

	if p.Container == ContainerNone {
		return pod
	}

	status := corev1.ContainerStatus{
		Name:         p.JobName,
		RestartCount: p.Restarts,
	}
	switch p.Container {
	case ContainerWaiting:
		status.State.Waiting = &corev1.ContainerStateWaiting{
			Reason:  p.Reason,
			Message: p.Message,
		}
	case ContainerRunning:
		status.State.Running = &corev1.ContainerStateRunning{
			StartedAt: metav1.NewTime(StartTime),
		}
	case ContainerTerminated:
		status.State.Terminated = &corev1.ContainerStateTerminated{
			ExitCode:   p.ExitCode,
			Reason:     p.Reason,
			Message:    p.Message,
			StartedAt:  metav1.NewTime(StartTime),
			FinishedAt: metav1.NewTime(FinishTime),
		}
	}
	pod.Status.ContainerStatuses = []corev1.ContainerStatus{status}
	return pod
}

// OKSequence returns the three records of a clean pod run: waiting while
// Pending, then running, then terminated with exit code zero. Identity
// fields of p are honored; state fields are overwritten.
func OKSequence(p PodParams) []*corev1.Pod {
	pending := p
	pending.Phase = corev1.PodPending
	pending.Container = ContainerWaiting

	running := p
	running.Phase = corev1.PodRunning
	running.Container = ContainerRunning

	finished := p
	finished.Phase = corev1.PodSucceeded
	finished.Container = ContainerTerminated
	finished.ExitCode = 0

	return []*corev1.Pod{MakePod(pending), MakePod(running), MakePod(finished)}
}

// FailedSequence is OKSequence with a nonzero terminal exit code and a
// Failed final phase.
func FailedSequence(p PodParams) []*corev1.Pod {
	seq := OKSequence(p)

	failed := p
	failed.Phase = corev1.PodFailed
	failed.Container = ContainerTerminated
	failed.ExitCode = 99
	failed.Reason = "Error"
	failed.Message = "job process exited with an error"
	seq[2] = MakePod(failed)

	return seq
}

// LoadPodFixture reads a YAML pod manifest and returns it as a typed Pod.
// Fails the test immediately if the file can't be read or parsed.
func LoadPodFixture(t *testing.T, path string) *corev1.Pod {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read fixture %s", path)
	pod := &corev1.Pod{}
	require.NoError(t, yaml.Unmarshal(data, pod), "failed to parse fixture %s", path)
	return pod
}
