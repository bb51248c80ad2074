package events

import (
	corev1 "k8s.io/api/core/v1"
)

// Label keys and values set by the Toolforge jobs framework on every pod it
// creates. These are the wire contract with the framework and must not drift.
const (
	// NamespacePrefix is the prefix of every per-tool namespace.
	// A tool named "mytool" runs in namespace "tool-mytool".
	NamespacePrefix = "tool-"

	// LabelToolforge marks objects belonging to a tool account.
	// Value: "tool"
	LabelToolforge = "toolforge"
	ToolforgeTool  = "tool"

	// LabelManagedBy identifies the component that created the pod.
	// Value: "toolforge-jobs-framework"
	LabelManagedBy     = "app.kubernetes.io/managed-by"
	ManagedByFramework = "toolforge-jobs-framework"

	// LabelCreatedBy is the tool account the job runs on behalf of.
	// This is the notification recipient identity.
	LabelCreatedBy = "app.kubernetes.io/created-by"

	// LabelJobName is the user-chosen job name.
	LabelJobName = "app.kubernetes.io/name"

	// LabelComponent is the kubernetes object category backing the job.
	// Value: "jobs", "cronjobs" or "deployments"
	LabelComponent = "app.kubernetes.io/component"

	// LabelEmails is the notification policy the tool requested at job
	// creation time.
	// Value: "none", "onfailure", "onfinish" or "all"
	LabelEmails = "jobs.toolforge.org/emails"
)

// componentKinds maps the component label to a JobKind. Values outside this
// table classify as KindUnknown.
var componentKinds = map[string]JobKind{
	"jobs":        KindNormal,
	"cronjobs":    KindCronjob,
	"deployments": KindContinuous,
}

// emailsPolicies maps the emails label to an EmailsPolicy. Values outside
// this table (and an absent label) classify as PolicyNone.
var emailsPolicies = map[string]EmailsPolicy{
	"none":      PolicyNone,
	"onfailure": PolicyOnFailure,
	"onfinish":  PolicyOnFinish,
	"all":       PolicyAll,
}

// KindForComponent translates a component label value to a JobKind.
func KindForComponent(component string) JobKind {
	if kind, ok := componentKinds[component]; ok {
		return kind
	}
	return KindUnknown
}

// PolicyForLabel translates an emails label value to an EmailsPolicy.
func PolicyForLabel(value string) EmailsPolicy {
	if policy, ok := emailsPolicies[value]; ok {
		return policy
	}
	return PolicyNone
}

// label returns the pod label value for key, tolerating a nil label map.
func label(pod *corev1.Pod, key string) string {
	if pod.Labels == nil {
		return ""
	}
	return pod.Labels[key]
}

// TenantOf returns the tool account that owns the pod, or "".
func TenantOf(pod *corev1.Pod) string {
	return label(pod, LabelCreatedBy)
}

// JobNameOf returns the job name the pod runs under, or "".
func JobNameOf(pod *corev1.Pod) string {
	return label(pod, LabelJobName)
}

// KindOf returns the JobKind derived from the pod's component label.
func KindOf(pod *corev1.Pod) JobKind {
	return KindForComponent(label(pod, LabelComponent))
}

// PolicyOf returns the EmailsPolicy derived from the pod's emails label.
func PolicyOf(pod *corev1.Pod) EmailsPolicy {
	return PolicyForLabel(label(pod, LabelEmails))
}
