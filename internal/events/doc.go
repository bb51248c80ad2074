// Package events normalizes raw pod watch records into typed job events.
//
// # Contract
//
// The package owns the first two steps of the notification pipeline: the
// early admission filter and the classifier.
//
//	Admit(pod, changeType) error
//	  - Label-only admission check, run before any typed construction.
//	  - Returns nil when the record is worth classifying, or a *Rejection
//	    whose Reason explains the short-circuit. Rejections are expected
//	    and frequent; callers log them at debug level and move on.
//
//	Classify(pod) (Classified, error)
//	  - Builds the immutable Event value plus the tenant/workload identity
//	    (tenant name, workload name, kind, notification policy) from the
//	    pod's labels and first container status.
//	  - Returns a *StructuralError when an admitted record is missing a
//	    field the jobs framework always sets. Structural errors are logged
//	    with the full raw payload and the record is dropped; they must
//	    never take down the watch loop.
//
// # Deduplication
//
// Event.Equivalent implements the cache's deduplication rule: two events
// are the same logical state iff pod name, phase, run state and exit code
// all match. Timestamps, reason and message vary across repeated watch
// deliveries of one state and are excluded on purpose.
//
// One container per job pod is assumed throughout; only the first container
// status is consulted.
package events
