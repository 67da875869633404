package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/drowselabs/drowse/internal/sleep"
)

func TestMain(m *testing.M) {
	// Strip colors so assertions see bare text.
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{45 * time.Minute, "45m"},
		{time.Hour, "1h00m"},
		{7*time.Hour + 35*time.Minute, "7h35m"},
		{7*time.Hour + 35*time.Minute + 29*time.Second, "7h35m"},
		{7*time.Hour + 35*time.Minute + 31*time.Second, "7h36m"},
		{-time.Hour, "0m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestQualityStars(t *testing.T) {
	tests := []struct {
		q    int
		want string
	}{
		{5, "★★★★★"},
		{3, "★★★☆☆"},
		{0, "☆☆☆☆☆"},
		{sleep.Unrated, "-"},
		{9, "-"},
	}
	for _, tt := range tests {
		if got := QualityStars(tt.q); got != tt.want {
			t.Errorf("QualityStars(%d) = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestHistory(t *testing.T) {
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	start := time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)

	sessions := []*sleep.Session{
		{ID: 2, Start: now.Add(-time.Hour), End: now.Add(-time.Hour), Quality: sleep.Unrated},
		{ID: 1, Start: start, End: start.Add(7*time.Hour + 30*time.Minute), Quality: 4},
	}

	out := History(sessions, now)

	if !strings.Contains(out, "BEDTIME") {
		t.Error("history output is missing the header")
	}
	if !strings.Contains(out, "(asleep)") {
		t.Error("history output does not mark the open session")
	}
	if !strings.Contains(out, "7h30m") {
		t.Errorf("history output is missing the duration:\n%s", out)
	}
	if !strings.Contains(out, "★★★★☆") {
		t.Errorf("history output is missing the quality stars:\n%s", out)
	}
}

func TestHistory_Empty(t *testing.T) {
	out := History(nil, time.Now())
	if !strings.Contains(out, "No sleep sessions") {
		t.Errorf("empty history output = %q", out)
	}
}

func TestStatsView(t *testing.T) {
	start := time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)
	sessions := []*sleep.Session{
		{ID: 1, Start: start, End: start.Add(8 * time.Hour), Quality: 4},
		{ID: 2, Start: start.AddDate(0, 0, 1), End: start.AddDate(0, 0, 1).Add(6 * time.Hour), Quality: 2},
	}
	st := sleep.Compute(sessions)

	out := StatsView(st)
	for _, want := range []string{"Nights:", "2", "Avg sleep:", "7h00m", "Quality distribution:"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output is missing %q:\n%s", want, out)
		}
	}
}

func TestLoadTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.toml")
	if err := os.WriteFile(path, []byte("accent = \"#ff0000\"\n"), 0644); err != nil {
		t.Fatalf("failed to write theme: %v", err)
	}

	th, err := LoadTheme(path)
	if err != nil {
		t.Fatalf("LoadTheme failed: %v", err)
	}
	if th.Accent != "#ff0000" {
		t.Errorf("Accent = %q, want #ff0000", th.Accent)
	}
	// Unset keys keep defaults.
	if th.Muted != DefaultTheme().Muted {
		t.Errorf("Muted = %q, want default", th.Muted)
	}
}

func TestLoadTheme_Missing(t *testing.T) {
	if _, err := LoadTheme(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("LoadTheme succeeded on a missing file")
	}
}
