package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/insights"
	"github.com/drowselabs/drowse/internal/ui"
)

// InsightsOptions holds flags for the insights command.
type InsightsOptions struct {
	*RootOptions
	Nights int
}

// NewInsightsCommand creates the insights command.
func NewInsightsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsightsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Summarize recent sleep with Claude",
		Long: `Summarize recent sleep with Claude.

Reads up to the configured number of finished sessions and asks the
model for patterns and suggestions. Requires ANTHROPIC_API_KEY.

Example:
  drowse insights
  drowse insights --nights 7`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsights(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Nights, "nights", 0, "analyze at most this many nights (overrides config)")

	return cmd
}

func runInsights(cmd *cobra.Command, opts *InsightsOptions) error {
	e, err := openEnv(opts.RootOptions, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	maxNights := e.config.Insights.MaxNights
	if opts.Nights > 0 {
		maxNights = opts.Nights
	}

	gen, err := insights.New(insights.Options{
		APIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		Model:     e.config.Insights.Model,
		MaxNights: maxNights,
		Logger:    quietLogger(),
	})
	if err != nil {
		return err
	}

	sessions, err := e.store.List(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Analyzing your recent sleep...\n\n", ui.RenderAccent("✨"))

	text, err := gen.Generate(cmd.Context(), sessions)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
