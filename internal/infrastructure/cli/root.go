package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/benchhist/internal/app"
	"github.com/doeshing/benchhist/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The container is built once flags
// are parsed so that --config is honoured, and closed after the command ran.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container := &app.Container{}
	var configPath string

	root := &cobra.Command{
		Use:   "benchhist",
		Short: "benchhist - benchmark history store",
		Long:  "benchhist records CI benchmark runs per commit, deduplicates them and renders them as chart series.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configOnly(cmd) {
				*container = *app.ConfigOnly(configPath, opts.Verbose)
				return nil
			}
			built, err := app.BuildContainer(cmd.Context(), app.Options{ConfigPath: configPath, Verbose: opts.Verbose})
			if err != nil {
				return err
			}
			*container = *built
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return container.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetContext(ctx)
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.benchhist/config.yaml, or $BENCHHIST_CONFIG)")

	root.AddCommand(
		commands.NewAddCommand(container),
		commands.NewImportCommand(container),
		commands.NewQueryCommand(container),
		commands.NewLatestCommand(container),
		commands.NewTrimCommand(container),
		commands.NewRenderCommand(container),
		commands.NewCompareCommand(container),
		commands.NewExportCommand(container),
		commands.NewServeCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewVersionCommand(),
	)
	return root, nil
}

func configOnly(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[commands.AnnotationConfigOnly] == "true" {
			return true
		}
	}
	return false
}
