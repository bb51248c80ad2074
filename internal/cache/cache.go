package cache

import (
	"sync"

	corev1 "k8s.io/api/core/v1"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/events"
)

// Workload aggregates the retained events of one job, under one observed
// (kind, policy) combination.
type Workload struct {
	Name   string
	Kind   events.JobKind
	Policy events.EmailsPolicy
	Events []events.Event
}

// Tenant aggregates the workloads of one tool account, in insertion order.
type Tenant struct {
	Name      string
	Workloads []*Workload
}

// workloadKey is the cache lookup identity of a Workload.
type workloadKey struct {
	name   string
	kind   events.JobKind
	policy events.EmailsPolicy
}

// Cache is the process-wide store of events awaiting composition. It is
// built empty at startup and never persisted; a restart loses whatever was
// pending.
type Cache struct {
	mu      sync.RWMutex
	tenants []*Tenant
	byName  map[string]*Tenant
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		byName: make(map[string]*Tenant),
	}
}

// AddEvent classifies the pod and retains the event if the workload's
// notification policy wants it. See the package contract for the error
// taxonomy. No mutation happens on any non-nil return.
func (c *Cache) AddEvent(pod *corev1.Pod) error {
	classified, err := events.Classify(pod)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tenant := c.byName[classified.Tenant]
	key := workloadKey{
		name:   classified.Workload,
		kind:   classified.Kind,
		policy: classified.Policy,
	}

	var workload *Workload
	if tenant != nil {
		workload = tenant.find(key)
	}

	// The relevance decision runs against the existing aggregate when
	// there is one, or a detached candidate otherwise. The candidate is
	// only linked into the cache once the event is accepted.
	candidate := workload
	if candidate == nil {
		candidate = &Workload{
			Name:   classified.Workload,
			Kind:   classified.Kind,
			Policy: classified.Policy,
		}
	}

	if err := relevant(candidate, classified.Event); err != nil {
		return err
	}

	if tenant == nil {
		tenant = &Tenant{Name: classified.Tenant}
		c.tenants = append(c.tenants, tenant)
		c.byName[tenant.Name] = tenant
	}
	if workload == nil {
		tenant.Workloads = append(tenant.Workloads, candidate)
	}
	candidate.Events = append(candidate.Events, classified.Event)
	return nil
}

// find returns the workload with the given identity, or nil.
func (t *Tenant) find(key workloadKey) *Workload {
	for _, w := range t.Workloads {
		if w.Name == key.name && w.Kind == key.kind && w.Policy == key.policy {
			return w
		}
	}
	return nil
}

// Snapshot returns a deep copy of the current aggregates in insertion
// order. The copy is safe to iterate while the watch stage keeps adding.
func (c *Cache) Snapshot() []*Tenant {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Tenant, 0, len(c.tenants))
	for _, tenant := range c.tenants {
		copied := &Tenant{
			Name:      tenant.Name,
			Workloads: make([]*Workload, 0, len(tenant.Workloads)),
		}
		for _, workload := range tenant.Workloads {
			copied.Workloads = append(copied.Workloads, &Workload{
				Name:   workload.Name,
				Kind:   workload.Kind,
				Policy: workload.Policy,
				Events: append([]events.Event(nil), workload.Events...),
			})
		}
		out = append(out, copied)
	}
	return out
}

// Delete removes one tenant's aggregate. No-op if not present.
func (c *Cache) Delete(tenant string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byName[tenant]; !ok {
		return
	}
	delete(c.byName, tenant)
	for i, t := range c.tenants {
		if t.Name == tenant {
			c.tenants = append(c.tenants[:i], c.tenants[i+1:]...)
			return
		}
	}
}

// Flush clears the whole cache, including events added after the caller's
// last Snapshot.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tenants = nil
	c.byName = make(map[string]*Tenant)
}

// Stats returns the number of tenants, workloads and events currently held.
func (c *Cache) Stats() (tenants, workloads, cached int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tenants = len(c.tenants)
	for _, tenant := range c.tenants {
		workloads += len(tenant.Workloads)
		for _, workload := range tenant.Workloads {
			cached += len(workload.Events)
		}
	}
	return tenants, workloads, cached
}
