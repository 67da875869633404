package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/drowselabs/drowse/internal/daemon"
	"github.com/drowselabs/drowse/internal/sleep"
)

func TestMain(m *testing.M) {
	// Force deterministic plain rendering regardless of the test
	// terminal.
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// run executes the CLI against a data directory and returns its output.
func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dataDir, "--plain"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// mustRun is run for steps that are setup rather than the assertion.
func mustRun(t *testing.T, dataDir string, args ...string) string {
	t.Helper()

	out, err := run(t, dataDir, args...)
	if err != nil {
		t.Fatalf("drowse %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "drowse" {
		t.Errorf("Use = %q, want drowse", cmd.Use)
	}

	subcommands := []string{
		"start", "stop", "rate", "log", "stats", "clear",
		"export", "import", "daemon", "insights", "version",
	}
	for _, name := range subcommands {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("command %q not registered (err %v)", name, err)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"data-dir", "config", "plain"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag %q not registered", name)
		}
	}
}

func TestStartStopRateFlow(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "start", "--at", "2026-08-24 23:00")
	if !strings.Contains(out, "Sleep session started") {
		t.Errorf("start output = %q, want confirmation", out)
	}

	// Starting again is a notice, not an error.
	out = mustRun(t, dir, "start")
	if !strings.Contains(out, "Already tracking") {
		t.Errorf("second start output = %q, want already-tracking notice", out)
	}

	out = mustRun(t, dir, "stop", "--at", "2026-08-25 06:30")
	if !strings.Contains(out, "Slept 7h30m") {
		t.Errorf("stop output = %q, want duration", out)
	}
	if !strings.Contains(out, "drowse rate") {
		t.Errorf("stop output = %q, want rating hint", out)
	}

	out = mustRun(t, dir, "stop")
	if !strings.Contains(out, "No open session") {
		t.Errorf("second stop output = %q, want notice", out)
	}

	out = mustRun(t, dir, "rate", "4")
	if !strings.Contains(out, "rated") {
		t.Errorf("rate output = %q, want confirmation", out)
	}

	out = mustRun(t, dir, "log", "--json")
	var sessions []*sleep.Session
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("log --json produced invalid JSON: %v\n%s", err, out)
	}
	if len(sessions) != 1 {
		t.Fatalf("log --json returned %d sessions, want 1", len(sessions))
	}
	if sessions[0].Quality != 4 {
		t.Errorf("session quality = %d, want 4", sessions[0].Quality)
	}
	if got := sessions[0].Duration(); got.String() != "7h30m0s" {
		t.Errorf("session duration = %v, want 7h30m0s", got)
	}
}

func TestRateValidation(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "start", "--at", "2026-08-24 23:00")
	mustRun(t, dir, "stop", "--at", "2026-08-25 07:00")

	if _, err := run(t, dir, "rate", "9"); err == nil {
		t.Error("rate 9 should fail")
	}
	if _, err := run(t, dir, "rate", "four"); err == nil {
		t.Error("rate four should fail")
	}

	// Without a score and without a terminal there is nothing to ask.
	if _, err := run(t, dir, "rate"); err == nil {
		t.Error("rate with no score should fail off-terminal")
	}
}

func TestRateNothingFinished(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "rate", "3")
	if !strings.Contains(out, "No finished session") {
		t.Errorf("rate output = %q, want nothing-to-rate notice", out)
	}

	if _, err := run(t, dir, "rate", "--session", "99", "3"); err == nil {
		t.Error("rating a nonexistent session id should fail")
	}
}

func TestLogAndStats(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "log")
	if !strings.Contains(out, "No sessions recorded") {
		t.Errorf("empty log output = %q", out)
	}

	mustRun(t, dir, "start", "--at", "2026-08-23 23:15")
	mustRun(t, dir, "stop", "--at", "2026-08-24 06:45")
	mustRun(t, dir, "rate", "5")
	mustRun(t, dir, "start", "--at", "2026-08-24 23:00")
	mustRun(t, dir, "stop", "--at", "2026-08-25 07:00")

	out = mustRun(t, dir, "log")
	if !strings.Contains(out, "BEDTIME") {
		t.Errorf("log output = %q, want table header", out)
	}
	if !strings.Contains(out, "Aug 23 23:15") {
		t.Errorf("log output = %q, want first bedtime", out)
	}

	out = mustRun(t, dir, "log", "--limit", "1", "--json")
	var sessions []*sleep.Session
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("log --json produced invalid JSON: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("log --limit 1 returned %d sessions", len(sessions))
	}

	out = mustRun(t, dir, "stats")
	if !strings.Contains(out, "Sleep Stats") || !strings.Contains(out, "Nights:") {
		t.Errorf("stats output = %q, want summary", out)
	}
}

func TestClearRequiresForce(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "start", "--at", "2026-08-24 23:00")
	mustRun(t, dir, "stop", "--at", "2026-08-25 07:00")

	if _, err := run(t, dir, "clear"); err == nil {
		t.Fatal("clear without --force should fail")
	}

	out := mustRun(t, dir, "clear", "--force")
	if !strings.Contains(out, "deleted") {
		t.Errorf("clear output = %q", out)
	}

	out = mustRun(t, dir, "log")
	if !strings.Contains(out, "No sessions recorded") {
		t.Errorf("log after clear = %q, want empty", out)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "start", "--at", "2026-08-24 23:00")
	mustRun(t, dir, "stop", "--at", "2026-08-25 07:00")
	mustRun(t, dir, "rate", "3")

	file := filepath.Join(t.TempDir(), "sessions.jsonl")
	out := mustRun(t, dir, "export", "-o", file)
	if !strings.Contains(out, "Exported 1 sessions") {
		t.Errorf("export output = %q", out)
	}

	mustRun(t, dir, "clear", "--force")

	out = mustRun(t, dir, "import", file)
	if !strings.Contains(out, "Imported 1 sessions") {
		t.Errorf("import output = %q", out)
	}

	out = mustRun(t, dir, "log", "--json")
	var sessions []*sleep.Session
	if err := json.Unmarshal([]byte(out), &sessions); err != nil {
		t.Fatalf("log --json produced invalid JSON: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Quality != 3 {
		t.Errorf("imported sessions = %+v, want one with quality 3", sessions)
	}
}

func TestExportStdout(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "start", "--at", "2026-08-24 23:00")
	mustRun(t, dir, "stop", "--at", "2026-08-25 07:00")

	out := mustRun(t, dir, "export", "--format", "csv")
	if !strings.Contains(out, "id,start,end,quality") {
		t.Errorf("csv export = %q, want header row", out)
	}

	if _, err := run(t, dir, "export", "--format", "nope"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestImportMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "import", filepath.Join(dir, "nope.jsonl")); err == nil {
		t.Error("importing a missing file should fail")
	}
}

func TestInsightsNeedsAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	dir := t.TempDir()
	_, err := run(t, dir, "insights")
	if err == nil {
		t.Fatal("insights without an API key should fail")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("error = %v, want API key hint", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out := mustRun(t, t.TempDir(), "version")
	if !strings.Contains(out, "drowse v") {
		t.Errorf("version output = %q", out)
	}
}

func TestDaemonCommand(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--data-dir", dir, "--plain", "daemon", "--addr", "127.0.0.1:0"})

	errCh := make(chan error, 1)
	go func() { errCh <- cmd.ExecuteContext(ctx) }()

	deadline := time.Now().Add(10 * time.Second)
	var status *daemon.Status
	for time.Now().Before(deadline) {
		s, err := daemon.ReadStatus(dir)
		if err != nil {
			t.Fatalf("ReadStatus() error = %v", err)
		}
		if s != nil {
			status = s
			break
		}
		time.Sleep(25 * time.Millisecond)
	}
	if status == nil {
		t.Fatalf("daemon never came up; output so far:\n%s", out.String())
	}
	if status.PID != os.Getpid() {
		t.Errorf("status PID = %d, want %d", status.PID, os.Getpid())
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("daemon command returned %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon command did not stop within 10s")
	}

	if !strings.Contains(out.String(), "Starting drowse daemon") {
		t.Errorf("daemon output = %q, want startup banner", out.String())
	}
}
