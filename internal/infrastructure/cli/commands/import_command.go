package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/benchhist/internal/app"
	"github.com/doeshing/benchhist/internal/infrastructure/codec"
	"github.com/doeshing/benchhist/internal/ports"
)

// NewImportCommand creates the import command
func NewImportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Merge JSON or data.js history documents",
		Long: `Merge one or more history documents into the store.

Files may be plain JSON or the data.js script written by the benchmark
action. Runs of a commit already stored replace it when they are at least as
recent; older duplicates are skipped. Nothing is written if any file fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Ready(); err != nil {
				return err
			}
			sources := make([]ports.DocumentSource, len(args))
			for i, path := range args {
				sources[i] = codec.FileSource{Path: path}
			}
			result, err := container.HistoryService.Import(cmd.Context(), sources...)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d files: %d added, %d replaced, %d skipped\n",
				len(result.Sources), result.Added, result.Replaced, result.Skipped)
			return nil
		},
	}
}
