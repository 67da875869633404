// Package insights generates natural language summaries of sleep
// history using the Anthropic API.
package insights

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/drowselabs/drowse/internal/sleep"
)

// completer abstracts the model call so tests can fake it.
type completer interface {
	complete(ctx context.Context, model, prompt string) (string, error)
}

// Options configures a Generator.
type Options struct {
	// APIKey authenticates against the Anthropic API. Required.
	APIKey string

	// Model names the model to use (default: claude-sonnet-4-5).
	Model string

	// MaxNights caps how many recent sessions feed the prompt
	// (default: 30).
	MaxNights int

	// Logger for request activity (default: stderr logger).
	Logger *log.Logger
}

// Generator produces sleep insights from session history.
type Generator struct {
	llm       completer
	model     string
	maxNights int
	logger    *log.Logger
}

// New creates a Generator backed by the Anthropic API.
func New(opts Options) (*Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required (set ANTHROPIC_API_KEY)")
	}
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-5"
	}
	if opts.MaxNights <= 0 {
		opts.MaxNights = 30
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[insights] ", log.LstdFlags)
	}

	return &Generator{
		llm:       newAnthropicCompleter(opts.APIKey),
		model:     opts.Model,
		maxNights: opts.MaxNights,
		logger:    opts.Logger,
	}, nil
}

// Generate summarizes the given history. Sessions are expected newest
// first; open sessions are skipped.
func (g *Generator) Generate(ctx context.Context, sessions []*sleep.Session) (string, error) {
	nights := recentClosed(sessions, g.maxNights)
	if len(nights) == 0 {
		return "", fmt.Errorf("no completed sessions to analyze")
	}

	prompt := buildPrompt(nights)

	g.logger.Printf("Requesting insights for %d nights from %s", len(nights), g.model)
	start := time.Now()

	text, err := g.llm.complete(ctx, g.model, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate insights: %w", err)
	}

	g.logger.Printf("Insights generated in %v", time.Since(start).Round(time.Millisecond))
	return strings.TrimSpace(text), nil
}

// recentClosed picks up to max closed sessions, preserving newest-first
// order.
func recentClosed(sessions []*sleep.Session, max int) []*sleep.Session {
	var nights []*sleep.Session
	for _, s := range sessions {
		if s.Open() {
			continue
		}
		nights = append(nights, s)
		if len(nights) == max {
			break
		}
	}
	return nights
}

func buildPrompt(nights []*sleep.Session) string {
	st := sleep.Compute(nights)

	var sb strings.Builder
	sb.WriteString("You are a sleep coach. Below is my recent sleep log, newest night first.\n")
	sb.WriteString("Durations are hours of sleep; quality is my own 0-5 rating, blank when I did not rate.\n\n")

	sb.WriteString(fmt.Sprintf("Summary: %d nights, average %.1fh", st.Nights, st.AvgSleep.Hours()))
	if st.Rated > 0 {
		sb.WriteString(fmt.Sprintf(", average quality %.1f/5 over %d rated nights", st.AvgQuality, st.Rated))
	}
	sb.WriteString(fmt.Sprintf(", longest %.1fh, shortest %.1fh.\n\n", st.Longest.Hours(), st.Shortest.Hours()))

	sb.WriteString("date | bedtime | wake | hours | quality\n")
	for _, s := range nights {
		quality := ""
		if s.Rated() {
			quality = fmt.Sprintf("%d", s.Quality)
		}
		sb.WriteString(fmt.Sprintf("%s | %s | %s | %.1f | %s\n",
			s.Start.Format("2006-01-02"),
			s.Start.Format("15:04"),
			s.End.Format("15:04"),
			s.Duration().Hours(),
			quality))
	}

	sb.WriteString("\nIn at most 150 words: point out the clearest pattern in this data, ")
	sb.WriteString("how bedtime consistency relates to my quality ratings, and one concrete change to try this week. ")
	sb.WriteString("Plain text only, no markdown.")
	return sb.String()
}
