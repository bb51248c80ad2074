// Package cache holds classified job events between watch delivery and
// email composition.
//
// # Contract
//
// The Cache is a three-level structure: tenants (tool accounts) own
// workloads (jobs), workloads own the ordered list of events retained for
// them. All three levels keep insertion order, which fixes the order of
// tenants in composed emails and of event lines within a job block.
//
// Workload identity is the triple (name, kind, policy): a job observed
// again with a different component or emails label is tracked as a new
// aggregate rather than silently merged into the old one.
//
// Thread safety: all methods are safe for concurrent use via sync.RWMutex.
//
// # Methods
//
//	AddEvent(pod *corev1.Pod) error
//	  - Classifies the pod and offers the event to the retention policy.
//	  - nil: event appended; tenant and workload aggregates are created
//	    on first acceptance, never earlier. A rejected event for an unseen
//	    tenant leaves no empty placeholder behind.
//	  - *events.Rejection: uninteresting event, nothing mutated.
//	  - *events.StructuralError: broken record, nothing mutated.
//
//	Snapshot() []*Tenant
//	  - Returns a deep copy of the current aggregates in insertion order.
//	    Later cache mutations do not leak into the copy.
//
//	Delete(tenant string)
//	  - Removes one tenant's aggregate. No-op if not present.
//
//	Flush()
//	  - Clears everything. The composer calls this after producing output;
//	    events added between its Snapshot and the Flush are dropped with
//	    the rest, matching the batch-consume semantics of delivery.
//
//	Stats() (tenants, workloads, cached int)
//	  - Current aggregate counts, for gauges and periodic logging.
package cache
