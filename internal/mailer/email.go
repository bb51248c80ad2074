package mailer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/cache"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/config"
	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/events"
)

// timeLayout renders event timestamps in email bodies.
const timeLayout = "2006-01-02 15:04:05 MST"

const bodyIntro = "We wanted to notify you about the activity of some jobs in Toolforge.\n"

const bodyFooter = "\n\n" +
	"If you requested 'filelog' for any of the jobs mentioned above, you may find " +
	"additional information about what happened in the associated log files. " +
	"Check them from Toolforge bastions as usual.\n" +
	"\n" +
	"You are receiving this email because:\n" +
	" 1) when the job was created, it was requested to send email notifications\n" +
	" 2) you are listed as tool maintainer for this tool\n" +
	"\n" +
	"Find help and more information in wikitech: https://wikitech.wikimedia.org/\n" +
	"\n" +
	"Thanks for your contributions to the Wikimedia movement.\n"

// Email is one outbound notification, ready for delivery.
type Email struct {
	// ID correlates log lines about this email across compose and send.
	ID      string
	To      string
	From    string
	Subject string
	Body    string
}

// Compose builds the single notification email for one tenant aggregate.
// The subject counts workloads; the body lists every retained event.
func Compose(tenant *cache.Tenant, cfg config.Settings) Email {
	var b strings.Builder
	b.WriteString(bodyIntro)
	for _, w := range tenant.Workloads {
		fmt.Fprintf(&b, "\n* Job '%s' (%s) (emails: %s) had %d events:\n",
			w.Name, w.Kind, w.Policy, len(w.Events))
		for _, e := range w.Events {
			fmt.Fprintf(&b, "  -- %s\n", renderEvent(e))
		}
	}
	b.WriteString(bodyFooter)

	return Email{
		ID:      uuid.NewString(),
		To:      fmt.Sprintf("%s.%s@%s", cfg.ToPrefix, tenant.Name, cfg.ToDomain),
		From:    cfg.FromAddr,
		Subject: fmt.Sprintf("[Toolforge] notification about %d job events", len(tenant.Workloads)),
		Body:    b.String(),
	}
}

// renderEvent phrases one event line by the container run state it captured.
func renderEvent(e events.Event) string {
	switch e.State {
	case events.StateTerminated:
		return fmt.Sprintf("A pod named '%s' was created at %s. It was restarted %d times. "+
			"It finished at %s with exit code %d. The reason was '%s' with message '%s'.",
			e.PodName, stamp(e.StartedAt), e.Restarts, stamp(e.FinishedAt), e.ExitCode,
			e.Reason, e.Message)
	case events.StateRunning:
		return fmt.Sprintf("A pod named '%s' has been running since %s. It was restarted %d times.",
			e.PodName, stamp(e.StartedAt), e.Restarts)
	case events.StateWaiting:
		return fmt.Sprintf("A pod named '%s' is waiting to start. The reason was '%s' with message '%s'.",
			e.PodName, e.Reason, e.Message)
	default:
		return fmt.Sprintf("A pod named '%s' reported phase '%s' with no container state.",
			e.PodName, e.Phase)
	}
}

func stamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
