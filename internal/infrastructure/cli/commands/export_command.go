package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/doeshing/benchhist/internal/app"
	"github.com/doeshing/benchhist/internal/domain"
	"github.com/doeshing/benchhist/internal/infrastructure/codec"
)

// NewExportCommand creates the export command
func NewExportCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write the whole history as JSON, or data.js when path ends in .js",
		Long: `Write the whole history document. Use - to print JSON to stdout.
A .js target gets the window.BENCHMARK_DATA assignment the chart page loads.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Ready(); err != nil {
				return err
			}
			path := args[0]
			data, err := codec.Encode(container.HistoryService.Document(), codec.IsScript(path))
			if err != nil {
				return err
			}
			if path == StdinPath {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
				return err
			}
			if err := os.WriteFile(path, data, domain.FilePermissions); err != nil {
				return fmt.Errorf("failed to export history to %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported history to %s\n", path)
			return nil
		},
	}
}
