//go:build integration
// +build integration

package integration

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/testutil"
)

// TestReconfigurationTakesEffect edits the ConfigMap while the pipeline
// runs and expects the next notification to use the new address settings.
func (s *EmailerSuite) TestReconfigurationTakesEffect() {
	data := fastSettings()
	data["email_to_prefix"] = "tools"
	data["email_to_domain"] = "tools.wmflabs.org"

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:            config.ConfigMapName,
			Namespace:       config.ConfigMapNamespace,
			ResourceVersion: "2",
		},
		Data: data,
	}
	_, err := s.client.CoreV1().ConfigMaps(config.ConfigMapNamespace).Update(s.ctx, cm, metav1.UpdateOptions{})
	require.NoError(s.T(), err)

	s.waitFor("the new address settings to apply", func() bool {
		return s.store.Snapshot().ToPrefix == "tools"
	})

	s.fakeWatcher.Modify(testutil.MakePod(testutil.PodParams{
		Account:   "tf-test",
		Emails:    "all",
		Phase:     corev1.PodRunning,
		Container: testutil.ContainerRunning,
	}))

	s.waitFor("the notification to reach the transport", func() bool {
		return len(s.sender.snapshot()) >= 1
	})

	emails := s.sender.snapshot()
	require.Len(s.T(), emails, 1)
	assert.Equal(s.T(), "tools.tf-test@tools.wmflabs.org", emails[0].To)
}
