package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logmerge/pkg/output"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

// execute runs cmd with args and returns stdout. Logs go to a separate
// buffer so they never mix with the report.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&logs)
	if args == nil {
		// cobra falls back to os.Args for a nil slice
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func twoNodeRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "node1/app.log", "**** BEGIN LOGGING 2013\nJan 5 10:00:02 world\n")
	writeFile(t, root, "node2/app.log", "**** BEGIN LOGGING 2013\nJan 5 10:00:01 hello\n")
	return root
}

func TestNewMergeCommand(t *testing.T) {
	cmd := NewMergeCommand()

	if cmd.Use != "logmerge <log-root>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}

	flags := []string{
		"config", "output-dir", "suffix", "workers", "stream", "default-year",
		"lenient-months", "log-level", "metrics-file", "format", "verbose", "quiet",
		"webhook-url", "webhook-token", "webhook-trigger",
	}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	if cmd.Use != "validate <config-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
	if !strings.Contains(cmd.Long, "Validate") {
		t.Error("Missing description in Long")
	}
}

func TestNewVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand())
	if err != nil {
		t.Fatal(err)
	}
	if out != "logmerge dev\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestRunMerge_Defaults(t *testing.T) {
	root := twoNodeRoot(t)

	out, err := execute(t, NewMergeCommand(), root)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", ExitCode)
	}

	data, err := os.ReadFile(filepath.Join(root, "merged-logs", "app.log"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Jan 5 10:00:01 hello\nJan 5 10:00:02 world\n" {
		t.Errorf("merged app.log = %q", data)
	}
	if !strings.Contains(out, "megabytes of logs merged in") {
		t.Errorf("Output missing totals line:\n%s", out)
	}
}

func TestRunMerge_Flags(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/app.txt", "Jan 5 10:00:02 b\n")
	writeFile(t, root, "b/app.txt", "Jan 5 10:00:01 a\n")
	writeFile(t, root, "b/ignored.log", "x\n")
	metricsPath := filepath.Join(t.TempDir(), "logmerge.prom")

	_, err := execute(t, NewMergeCommand(),
		"--suffix", ".txt",
		"--output-dir", "combined",
		"--workers", "2",
		"--stream",
		"--quiet",
		"--metrics-file", metricsPath,
		root)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "combined", "app.txt")); err != nil {
		t.Errorf("expected combined/app.txt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "combined", "ignored.log")); !os.IsNotExist(err) {
		t.Error("files without the suffix must not be merged")
	}

	metrics, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(metrics), "logmerge_lines_merged_total 2") {
		t.Errorf("metrics file missing merged lines:\n%s", metrics)
	}
}

func TestRunMerge_ConfigFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/app.log", "## START 2020\nFeb 29 10:00:00 leap\n")
	writeFile(t, root, "b/app.log", "Mar 1 10:00:00 next\n")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, filepath.Dir(configPath), "config.yaml", "parser:\n  marker_prefix: \"## START\"\n  default_year: 2020\n")

	out, err := execute(t, NewMergeCommand(), "--config", configPath, "--format", "json", root)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	var report output.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, out)
	}
	if report.Summary.LinesMerged != 2 || report.Summary.LinesMalformed != 0 {
		t.Errorf("Summary = %+v", report.Summary)
	}
	if report.Metadata.ConfigFile != configPath {
		t.Errorf("ConfigFile = %q", report.Metadata.ConfigFile)
	}
}

func TestRunMerge_PartialFailureSetsExitCode(t *testing.T) {
	root := twoNodeRoot(t)
	writeFile(t, root, "node1/bad.log", "Jan 5 10:00:01 x\n")
	writeFile(t, root, "node2/bad.log", "Jan 5 10:00:02 y\n")
	writeFile(t, root, "merged-logs/bad.log/blocker", "")

	out, err := execute(t, NewMergeCommand(), root)
	if err != nil {
		t.Fatalf("partial failure must not be fatal: %v", err)
	}
	if ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", ExitCode)
	}
	if !strings.Contains(out, "[FAILED] bad.log") {
		t.Errorf("Output missing failed group:\n%s", out)
	}
}

func TestRunMerge_Webhook(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	root := twoNodeRoot(t)
	_, err := execute(t, NewMergeCommand(),
		"--webhook-url", server.URL,
		"--webhook-trigger", "always",
		root)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	var report output.Report
	if err := json.Unmarshal(received, &report); err != nil {
		t.Fatalf("webhook payload is not a report: %v", err)
	}
	if report.Summary.Groups != 1 {
		t.Errorf("Groups = %d, want 1", report.Summary.Groups)
	}
}

func TestRunMerge_WebhookTokenExpandedOnce(t *testing.T) {
	// The expanded token itself looks like a variable reference and must
	// be sent as is.
	t.Setenv("LOGMERGE_TEST_TOKEN", "$LOGMERGE_OTHER_VAR")
	t.Setenv("LOGMERGE_OTHER_VAR", "leaked")

	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	root := twoNodeRoot(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "webhooks:\n  - url: " + server.URL + "\n    token: \"${LOGMERGE_TEST_TOKEN}\"\n    trigger: always\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, NewMergeCommand(), "--config", configPath, root); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if auth != "Bearer $LOGMERGE_OTHER_VAR" {
		t.Errorf("Authorization = %q, want Bearer $LOGMERGE_OTHER_VAR", auth)
	}
}

func TestRunMerge_Errors(t *testing.T) {
	root := twoNodeRoot(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing root", []string{filepath.Join(root, "missing")}, "invalid log root"},
		{"no args", nil, "accepts 1 arg"},
		{"bad format", []string{"--format", "xml", root}, "unknown output format"},
		{"bad workers", []string{"--workers", "0", root}, "workers"},
		{"bad year", []string{"--default-year", "99", root}, "default_year"},
		{"bad log level", []string{"--log-level", "loud", root}, "log_level"},
		{"bad trigger", []string{"--webhook-url", "http://example.com", "--webhook-trigger", "sometimes", root}, "trigger"},
		{"missing config", []string{"--config", "/nonexistent/config.yaml", root}, "loading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewMergeCommand(), tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunInspect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/app.log", "**** BEGIN LOGGING 2013\nJan 5 10:00:03 c\nJan 5 10:00:01 a\n")
	writeFile(t, root, "b/app.log", "Jan 5 10:77:00 broken\n2024-01-15T10:30:00Z iso\n")
	writeFile(t, root, "b/solo.log", "anything\n")

	out, err := execute(t, NewInspectCommand(), root)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	checks := []string{
		"[MERGE] app.log (2 files)",
		"[COPY]  solo.log",
		"years: 2013",
		"out of order: 1 records",
		`malformed: "Jan 5 10:77:00 broken"`,
		"undated ISO 8601 lines: 1 (e.g. 2024-01-15T10:30:00Z)",
		"2 groups, 3 files, 1 out of order",
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	if _, err := os.Stat(filepath.Join(root, "merged-logs")); !os.IsNotExist(err) {
		t.Error("inspect must not write output")
	}
}

func TestRunInspect_InvalidRoot(t *testing.T) {
	_, err := execute(t, NewInspectCommand(), "/nonexistent/logs")
	if err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestRunValidate_Success(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `output_dir: combined
workers: 3
mode: streaming
webhooks:
  - name: ops
    url: https://hooks.example.com/logmerge
    trigger: always
`)

	out, err := execute(t, NewValidateCommand(), filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	checks := []string{"Configuration valid!", "combined", "streaming", "1. ops [always, timeout 10s]"}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "invalid.yaml", "workers: 0\n")

	_, err := execute(t, NewValidateCommand(), filepath.Join(dir, "invalid.yaml"))
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("error = %v, want validation failure", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := execute(t, NewValidateCommand(), "/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}
