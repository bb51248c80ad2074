package events

import (
	corev1 "k8s.io/api/core/v1"
)

// Classify normalizes an admitted pod record into a Classified value. It
// never rejects: admission decisions belong to Admit and the relevance
// engine. It fails only structurally, when a label the jobs framework
// always sets is missing from the record.
func Classify(pod *corev1.Pod) (Classified, error) {
	tenant := TenantOf(pod)
	if tenant == "" {
		return Classified{}, &StructuralError{
			Field:  LabelCreatedBy,
			Detail: "pod carries no tool account label",
		}
	}

	workload := JobNameOf(pod)
	if workload == "" {
		return Classified{}, &StructuralError{
			Field:  LabelJobName,
			Detail: "pod carries no job name label",
		}
	}

	event := Event{
		PodName: pod.Name,
		Phase:   pod.Status.Phase,
		State:   StateUnknown,
		Raw:     pod,
	}

	// One container per job pod. A pod that reports no container status
	// yet stays in StateUnknown with no further fields.
	if statuses := pod.Status.ContainerStatuses; len(statuses) > 0 {
		applyContainerStatus(&event, &statuses[0])
	}

	return Classified{
		Identity: Identity{
			Tenant:   tenant,
			Workload: workload,
			Kind:     KindOf(pod),
			Policy:   PolicyOf(pod),
		},
		Event: event,
	}, nil
}

// applyContainerStatus fills the event from the first container status.
// The three sub-states are mutually exclusive on a well-formed record; if
// more than one is present, running wins, then terminated, then waiting.
func applyContainerStatus(event *Event, status *corev1.ContainerStatus) {
	event.Restarts = status.RestartCount

	switch state := status.State; {
	case state.Running != nil:
		event.State = StateRunning
		event.StartedAt = state.Running.StartedAt.Time

	case state.Terminated != nil:
		event.State = StateTerminated
		event.ExitCode = state.Terminated.ExitCode
		event.StartedAt = state.Terminated.StartedAt.Time
		event.FinishedAt = state.Terminated.FinishedAt.Time
		event.Reason = state.Terminated.Reason
		event.Message = state.Terminated.Message

	case state.Waiting != nil:
		event.State = StateWaiting
		event.Reason = state.Waiting.Reason
		event.Message = state.Waiting.Message
	}
}
