package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/drowselabs/drowse/internal/export"
	"github.com/drowselabs/drowse/internal/ui"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Format string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load sessions from an export file",
		Long: `Load sessions from a jsonl or json export file.

Imported sessions keep their timestamps and ratings but are assigned
fresh ids.

Example:
  drowse import sessions.jsonl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "input format: jsonl or json (defaults to the file extension)")

	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, path string) error {
	format := export.DetectFormat(path)
	if opts.Format != "" {
		parsed, err := export.ParseFormat(opts.Format)
		if err != nil {
			return err
		}
		format = parsed
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sessions, err := export.Import(f, format)
	if err != nil {
		return err
	}

	e, err := openEnv(opts.RootOptions, quietLogger())
	if err != nil {
		return err
	}
	defer e.close()

	for _, sess := range sessions {
		if _, err := e.store.Insert(cmd.Context(), sess); err != nil {
			return fmt.Errorf("failed to insert session starting %s: %w",
				ui.FormatTime(sess.Start), err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d sessions from %s\n",
		ui.RenderPass("✓"), len(sessions), path)
	return nil
}
