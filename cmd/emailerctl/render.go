package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/events"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/mailer"
)

var (
	renderTool     string
	renderJob      string
	renderKind     string
	renderPolicy   string
	renderExitCode int32
	renderRestarts int32
	renderToDomain string
	renderToPrefix string
)

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Compose a sample notification and print it",
		Long: `Compose the email the emailer would send for a job run and print
it to stdout, without touching the cluster or any relay.

Examples:
  # A clean one-off job run
  emailerctl render --tool mytool --job myjob

  # A failed cronjob run
  emailerctl render --tool mytool --job linkcheck --kind cronjob --exit-code 99`,
		RunE: runRender,
	}

	cmd.Flags().StringVar(&renderTool, "tool", "mytool", "Tool account the notification is addressed to")
	cmd.Flags().StringVar(&renderJob, "job", "myjob", "Job name the events belong to")
	cmd.Flags().StringVar(&renderKind, "kind", "normal", "Job kind: normal, cronjob or continuous")
	cmd.Flags().StringVar(&renderPolicy, "emails", "all", "Notification policy shown in the email: all, onfinish or onfailure")
	cmd.Flags().Int32Var(&renderExitCode, "exit-code", 0, "Exit code of the sample run")
	cmd.Flags().Int32Var(&renderRestarts, "restarts", 0, "Restart count of the sample run")
	cmd.Flags().StringVar(&renderToDomain, "to-domain", config.Defaults().ToDomain, "Destination address domain")
	cmd.Flags().StringVar(&renderToPrefix, "to-prefix", config.Defaults().ToPrefix, "Destination address local-part prefix")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	kind := events.JobKind(renderKind)
	switch kind {
	case events.KindNormal, events.KindCronjob, events.KindContinuous:
	default:
		return fmt.Errorf("unknown job kind %q", renderKind)
	}

	policy := events.EmailsPolicy(renderPolicy)
	switch policy {
	case events.PolicyAll, events.PolicyOnFinish, events.PolicyOnFailure:
	default:
		return fmt.Errorf("unknown notification policy %q", renderPolicy)
	}

	cfg := config.Defaults()
	cfg.ToDomain = renderToDomain
	cfg.ToPrefix = renderToPrefix

	email := mailer.Compose(sampleTenant(kind, policy), cfg)
	fmt.Fprintf(cmd.OutOrStdout(), "To: %s\nFrom: %s\nSubject: %s\n\n%s",
		email.To, email.From, email.Subject, email.Body)
	return nil
}

// sampleTenant builds a one-job aggregate shaped like what the cache holds
// after a complete run: one running event and one terminated event.
func sampleTenant(kind events.JobKind, policy events.EmailsPolicy) *cache.Tenant {
	podName := renderJob + "-pod-1"
	started := time.Now().Add(-5 * time.Minute)
	finished := time.Now()

	phase := corev1.PodSucceeded
	reason := "Completed"
	message := ""
	if renderExitCode != 0 {
		phase = corev1.PodFailed
		reason = "Error"
		message = "job process exited with an error"
	}

	return &cache.Tenant{
		Name: renderTool,
		Workloads: []*cache.Workload{{
			Name:   renderJob,
			Kind:   kind,
			Policy: policy,
			Events: []events.Event{
				{
					PodName:   podName,
					Phase:     corev1.PodRunning,
					State:     events.StateRunning,
					Restarts:  renderRestarts,
					StartedAt: started,
				},
				{
					PodName:    podName,
					Phase:      phase,
					State:      events.StateTerminated,
					ExitCode:   renderExitCode,
					Restarts:   renderRestarts,
					StartedAt:  started,
					FinishedAt: finished,
					Reason:     reason,
					Message:    message,
				},
			},
		}},
	}
}
