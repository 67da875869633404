package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/drowselabs/drowse/internal/sleep"
	"github.com/drowselabs/drowse/internal/tracker"
	"github.com/drowselabs/drowse/internal/ui"
)

// RateOptions holds flags for the rate command.
type RateOptions struct {
	*RootOptions
	Session int64
}

// NewRateCommand creates the rate command.
func NewRateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rate [score]",
		Short: "Rate a finished sleep session",
		Long: `Rate a finished sleep session on the 0-5 quality scale.

Without a score, an interactive picker opens on a terminal. The most
recently finished session is rated unless --session picks another one.

Example:
  drowse rate 4
  drowse rate --session 12 2`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRate(cmd, opts, args)
		},
	}

	cmd.Flags().Int64Var(&opts.Session, "session", 0, "session id to rate (defaults to the latest finished one)")

	return cmd
}

func runRate(cmd *cobra.Command, opts *RateOptions, args []string) error {
	score := -1
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("score must be a number between %d and %d", sleep.QualityMin, sleep.QualityMax)
		}
		if !sleep.ValidQuality(parsed) {
			return fmt.Errorf("quality score out of range: %d is not in %d..%d",
				parsed, sleep.QualityMin, sleep.QualityMax)
		}
		score = parsed
	}

	e, err := openTrackerEnv(cmd, opts.RootOptions, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	target, err := resolveTarget(cmd, opts, e)
	if err != nil || target == nil {
		return err
	}

	if len(args) == 0 {
		score, err = promptScore(target)
		if err != nil {
			return err
		}
	}

	rater := tracker.NewRater(e.store, target.ID, tracker.WithRaterLogger(quietLogger()))
	defer rater.Close()

	if err := rater.Rate(cmd.Context(), score); err != nil {
		return err
	}
	// The rating screen would dismiss itself on this signal; the one-shot
	// command just acknowledges it.
	rater.DoneNavigating()

	fmt.Fprintf(cmd.OutOrStdout(), "%s Session %d rated %s %s\n",
		ui.RenderPass("✓"), target.ID,
		ui.QualityStars(score), ui.RenderMuted("("+sleep.QualityLabel(score)+")"))
	return nil
}

// resolveTarget picks the session to rate. A nil session with nil error
// means there is nothing to rate and a notice was already printed.
func resolveTarget(cmd *cobra.Command, opts *RateOptions, e *env) (*sleep.Session, error) {
	if opts.Session != 0 {
		sess, err := e.store.Get(cmd.Context(), opts.Session)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, fmt.Errorf("no session with id %d", opts.Session)
		}
		return sess, nil
	}

	for _, sess := range e.tracker.History() {
		if !sess.Open() {
			return sess, nil
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s No finished session to rate\n", ui.RenderWarn("⚠"))
	return nil, nil
}

// promptScore opens the interactive quality picker.
func promptScore(target *sleep.Session) (int, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return 0, fmt.Errorf("no score given and stdin is not a terminal")
	}

	options := make([]huh.Option[int], 0, sleep.QualityMax-sleep.QualityMin+1)
	for q := sleep.QualityMax; q >= sleep.QualityMin; q-- {
		label := fmt.Sprintf("%s %s", ui.QualityStars(q), sleep.QualityLabel(q))
		options = append(options, huh.NewOption(label, q))
	}

	score := sleep.QualityMax
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title(fmt.Sprintf("How was the night of %s?", ui.FormatTime(target.Start))).
			Description(fmt.Sprintf("Slept %s", ui.FormatDuration(target.Duration()))).
			Options(options...).
			Value(&score),
	))
	if err := form.Run(); err != nil {
		return 0, err
	}
	return score, nil
}
