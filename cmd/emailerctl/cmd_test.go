package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/web"
)

func TestRenderCmd(t *testing.T) {
	cmd := renderCmd()

	assert.Equal(t, "render", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.RunE)

	for _, name := range []string{"tool", "job", "kind", "emails", "exit-code", "restarts", "to-domain", "to-prefix"} {
		require.NotNil(t, cmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestSendCmd(t *testing.T) {
	cmd := sendCmd()

	assert.Equal(t, "send", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.RunE)

	for _, name := range []string{"to", "smtp-host", "smtp-port", "from", "for-real"} {
		require.NotNil(t, cmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestRenderCleanRun(t *testing.T) {
	var out bytes.Buffer
	cmd := renderCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--tool", "tf-test", "--job", "dailyjob", "--kind", "cronjob"})

	require.NoError(t, cmd.Execute())

	rendered := out.String()
	assert.Contains(t, rendered, "To: toolsbeta.tf-test@toolsbeta.wmflabs.org")
	assert.Contains(t, rendered, "From: root@toolforge.org")
	assert.Contains(t, rendered, "Subject: [Toolforge] notification about 1 job events")
	assert.Contains(t, rendered, "* Job 'dailyjob' (cronjob) (emails: all) had 2 events:")
	assert.Contains(t, rendered, "has been running since")
	assert.Contains(t, rendered, "with exit code 0")
	assert.Contains(t, rendered, "The reason was 'Completed'")
}

func TestRenderFailedRun(t *testing.T) {
	var out bytes.Buffer
	cmd := renderCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--tool", "tf-test", "--job", "brokenjob", "--exit-code", "99", "--emails", "onfailure"})

	require.NoError(t, cmd.Execute())

	rendered := out.String()
	assert.Contains(t, rendered, "* Job 'brokenjob' (normal) (emails: onfailure) had 2 events:")
	assert.Contains(t, rendered, "with exit code 99")
	assert.Contains(t, rendered, "The reason was 'Error' with message 'job process exited with an error'")
}

func TestRenderCustomAddress(t *testing.T) {
	var out bytes.Buffer
	cmd := renderCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--tool", "tf-test", "--to-prefix", "tools", "--to-domain", "tools.wmflabs.org"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "To: tools.tf-test@tools.wmflabs.org")
}

func TestRenderRejectsUnknownKind(t *testing.T) {
	cmd := renderCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--kind", "sidecar"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown job kind "sidecar"`)
}

func TestRenderRejectsUnknownPolicy(t *testing.T) {
	cmd := renderCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--kind", "normal", "--emails", "sometimes"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown notification policy "sometimes"`)
}

func TestSendRequiresTo(t *testing.T) {
	cmd := sendCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "to" not set`)
}

func TestSendSimulated(t *testing.T) {
	var out bytes.Buffer
	cmd := sendCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--to", "someone@example.org"})

	// Simulate mode never dials the relay, so this is safe offline.
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "simulated test email")
	assert.Contains(t, out.String(), "someone@example.org")
}

func TestStatusCmd(t *testing.T) {
	cmd := statusCmd()

	assert.Equal(t, "status", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.RunE)

	for _, name := range []string{"url", "output"} {
		require.NotNil(t, cmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

// statusServer serves a fixed status document the way a running emailer does.
func statusServer(t *testing.T, status web.StatusResponse) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(status))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestStatusTextOutput(t *testing.T) {
	ts := statusServer(t, web.StatusResponse{
		Tenants:    2,
		Workloads:  3,
		Events:     7,
		QueueDepth: 1,
		Settings: web.StatusSettings{
			ComposeInterval:  "5m0s",
			DispatchInterval: "1m0s",
			DispatchMax:      10,
			ToDomain:         "toolsbeta.wmflabs.org",
			ToPrefix:         "toolsbeta",
			SMTPHost:         "mail.example.org",
			SMTPPort:         25,
		},
	})

	var out bytes.Buffer
	cmd := statusCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--url", ts.URL})

	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "tools:      2")
	assert.Contains(t, text, "jobs:       3")
	assert.Contains(t, text, "events:     7")
	assert.Contains(t, text, "Queued emails: 1")
	assert.Contains(t, text, "compose interval:  5m0s")
	assert.Contains(t, text, "to address:        toolsbeta.<tool>@toolsbeta.wmflabs.org")
	assert.Contains(t, text, "smtp relay:        mail.example.org:25")
	assert.Contains(t, text, "send for real:     false")
}

func TestStatusJSONOutput(t *testing.T) {
	want := web.StatusResponse{
		Tenants:    1,
		Workloads:  1,
		Events:     2,
		QueueDepth: 0,
		Settings: web.StatusSettings{
			ComposeInterval:  "10m0s",
			DispatchInterval: "2m0s",
			DispatchMax:      5,
			ToDomain:         "tools.wmflabs.org",
			ToPrefix:         "tools",
			SMTPHost:         "smtp.example.org",
			SMTPPort:         587,
			SendForReal:      true,
		},
	}
	ts := statusServer(t, want)

	var out bytes.Buffer
	cmd := statusCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--url", ts.URL, "-o", "json"})

	require.NoError(t, cmd.Execute())

	var got web.StatusResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, want, got)
}

func TestStatusRejectsUnknownFormat(t *testing.T) {
	cmd := statusCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"-o", "yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "yaml"`)
}

func TestStatusServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "status api disabled", http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	cmd := statusCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--url", ts.URL})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emailer returned HTTP 404")
	assert.Contains(t, err.Error(), "status api disabled")
}

func TestStatusUnreachableEmailer(t *testing.T) {
	cmd := statusCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	// Port 1 is never listening.
	cmd.SetArgs([]string{"--url", "http://127.0.0.1:1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying emailer")
}
