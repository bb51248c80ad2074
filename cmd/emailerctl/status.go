package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/web"
)

var (
	statusURL    string
	statusOutput string
)

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what a running emailer holds cached and queued",
		Long: `Query the status API of a running emailer and print its cache and
queue counters along with the effective configuration.

Examples:
  # An emailer on this host
  emailerctl status

  # A port-forwarded in-cluster emailer, raw JSON
  emailerctl status --url http://127.0.0.1:8081 -o json`,
		RunE: runStatus,
	}

	cmd.Flags().StringVar(&statusURL, "url", "http://127.0.0.1:8080", "Base URL of the emailer's HTTP endpoints")
	cmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format: text or json")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusOutput != "text" && statusOutput != "json" {
		return fmt.Errorf("unknown output format %q", statusOutput)
	}

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, statusURL+"/api/v1/status", nil)
	if err != nil {
		return fmt.Errorf("building status request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("querying emailer at %s: %w", statusURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("emailer returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var status web.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding status response: %w", err)
	}

	if statusOutput == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	printStatus(cmd.OutOrStdout(), status)
	return nil
}

func printStatus(out io.Writer, status web.StatusResponse) {
	fmt.Fprintf(out, "Cached:\n")
	fmt.Fprintf(out, "  tools:      %d\n", status.Tenants)
	fmt.Fprintf(out, "  jobs:       %d\n", status.Workloads)
	fmt.Fprintf(out, "  events:     %d\n", status.Events)
	fmt.Fprintf(out, "Queued emails: %d\n", status.QueueDepth)
	fmt.Fprintf(out, "Settings:\n")
	fmt.Fprintf(out, "  compose interval:  %s\n", status.Settings.ComposeInterval)
	fmt.Fprintf(out, "  dispatch interval: %s\n", status.Settings.DispatchInterval)
	fmt.Fprintf(out, "  dispatch max:      %d\n", status.Settings.DispatchMax)
	fmt.Fprintf(out, "  to address:        %s.<tool>@%s\n", status.Settings.ToPrefix, status.Settings.ToDomain)
	fmt.Fprintf(out, "  smtp relay:        %s:%d\n", status.Settings.SMTPHost, status.Settings.SMTPPort)
	fmt.Fprintf(out, "  send for real:     %t\n", status.Settings.SendForReal)
}
