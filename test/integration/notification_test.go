//go:build integration
// +build integration

package integration

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/testutil"
)

// TestNotificationFlowsEndToEnd pushes a complete clean job run through the
// watch stage and expects a single aggregated email out of the transport.
func (s *EmailerSuite) TestNotificationFlowsEndToEnd() {
	run := testutil.OKSequence(testutil.PodParams{
		Account: "tf-test",
		JobName: "dailyjob",
		Emails:  "all",
	})
	for _, pod := range run {
		s.fakeWatcher.Modify(pod)
	}

	s.waitFor("the notification to reach the transport", func() bool {
		return len(s.sender.snapshot()) >= 1
	})

	emails := s.sender.snapshot()
	require.Len(s.T(), emails, 1)

	email := emails[0]
	assert.Equal(s.T(), "toolsbeta.tf-test@toolsbeta.wmflabs.org", email.To)
	assert.Equal(s.T(), "root@toolforge.org", email.From)
	assert.Equal(s.T(), "[Toolforge] notification about 1 job events", email.Subject)
	assert.Contains(s.T(), email.Body, "* Job 'dailyjob' (normal) (emails: all) had 3 events:")
	assert.Contains(s.T(), email.Body, "is waiting to start")
	assert.Contains(s.T(), email.Body, "has been running since")
	assert.Contains(s.T(), email.Body, "with exit code 0")

	// Composing flushed the cache and dispatching drained the queue.
	s.waitFor("the queue to drain", func() bool {
		return s.queue.Len() == 0
	})
	tenants, workloads, cached := s.eventCache.Stats()
	assert.Equal(s.T(), 0, tenants)
	assert.Equal(s.T(), 0, workloads)
	assert.Equal(s.T(), 0, cached)
}

// TestOnFailurePolicySuppressesCleanRuns runs one clean job and one failed
// job, both under the onfailure policy. Only the failure is notified.
func (s *EmailerSuite) TestOnFailurePolicySuppressesCleanRuns() {
	clean := testutil.OKSequence(testutil.PodParams{
		Account: "tf-quiet",
		JobName: "quietjob",
		PodName: "quietjob-pod-1",
		Emails:  "onfailure",
	})
	broken := testutil.FailedSequence(testutil.PodParams{
		Account: "tf-broken",
		JobName: "brokenjob",
		PodName: "brokenjob-pod-1",
		Emails:  "onfailure",
	})
	for _, pod := range clean {
		s.fakeWatcher.Modify(pod)
	}
	for _, pod := range broken {
		s.fakeWatcher.Modify(pod)
	}

	s.waitFor("the failure notification to reach the transport", func() bool {
		return len(s.sender.snapshot()) >= 1
	})

	emails := s.sender.snapshot()
	require.Len(s.T(), emails, 1)

	email := emails[0]
	assert.Equal(s.T(), "toolsbeta.tf-broken@toolsbeta.wmflabs.org", email.To)
	assert.Contains(s.T(), email.Body, "* Job 'brokenjob' (normal) (emails: onfailure) had 1 events:")
	assert.Contains(s.T(), email.Body, "with exit code 99")
	assert.Contains(s.T(), email.Body, "The reason was 'Error' with message 'job process exited with an error'")
	assert.NotContains(s.T(), email.Body, "quietjob")
}
