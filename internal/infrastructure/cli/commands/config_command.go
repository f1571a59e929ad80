package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/benchhist/internal/app"
	configapp "github.com/doeshing/benchhist/internal/application/config"
	"github.com/doeshing/benchhist/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/benchhist/internal/infrastructure/config"
)

const envKeyEditor = "EDITOR"

// NewConfigCommand creates the config command with all subcommands
func NewConfigCommand(container *app.Container) *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect and change benchhist configuration",
		Annotations: map[string]string{AnnotationConfigOnly: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show full configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			RunE: func(cmd *cobra.Command, args []string) error {
				loader, err := helpers.GetConfigLoader(container)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), loader.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List the configuration keys get and set accept",
			RunE: func(cmd *cobra.Command, args []string) error {
				return listKeys(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return getConfigurationValue(cmd.Context(), cmd.OutOrStdout(), container, args[0])
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one configuration value",
			Long: `Change one configuration value. The whole configuration is validated
before it is written and the previous file is kept as a timestamped backup.`,
			Example: `  benchhist config set history.max_items 200
  benchhist config set alert.threshold 1.5`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return setConfigurationValue(cmd.Context(), cmd.OutOrStdout(), container, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit configuration in $EDITOR, then validate it",
			RunE: func(cmd *cobra.Command, args []string) error {
				return editConfigurationInEditor(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate configuration file",
			RunE: func(cmd *cobra.Command, args []string) error {
				return validateConfiguration(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Back up the configuration and restore the defaults",
			RunE: func(cmd *cobra.Command, args []string) error {
				return resetConfigurationToDefaults(cmd.OutOrStdout(), container)
			},
		},
		&cobra.Command{
			Use:   "diff",
			Short: "Show the keys that differ from the defaults",
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfigurationDiff(cmd.Context(), cmd.OutOrStdout(), container)
			},
		},
	)

	return configCmd
}

// showConfiguration displays the full configuration in YAML format
func showConfiguration(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Fprint(out, string(data))
	return nil
}

func listKeys(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCONCERN\tVALUES")
	for _, k := range configapp.Keys() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", k.Path, k.Concern, k.Usage)
	}
	return w.Flush()
}

func getConfigurationValue(ctx context.Context, out io.Writer, container *app.Container, path string) error {
	key, err := configapp.Lookup(path)
	if err != nil {
		return err
	}
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	fmt.Fprintln(out, key.Get(cfg))
	return nil
}

// setConfigurationValue applies one typed change, validates, backs up and saves
func setConfigurationValue(ctx context.Context, out io.Writer, container *app.Container, path, value string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	updated, change, err := configapp.Update(cfg, path, value)
	if err != nil {
		return err
	}
	backup, err := helpers.SaveConfigWithValidation(container, updated)
	if err != nil {
		return err
	}
	if container.Logger != nil {
		container.Logger.Info("configuration updated", map[string]interface{}{
			"key": path, "from": change.From, "to": change.To, "backup": backup,
		})
	}
	fmt.Fprintf(out, "%s: %v -> %v\n", path, change.From, change.To)
	if note := concernNote(change.Key.Concern); note != "" {
		fmt.Fprintln(out, note)
	}
	return nil
}

// editConfigurationInEditor opens the file and rejects the result if invalid
func editConfigurationInEditor(ctx context.Context, out io.Writer, container *app.Container) error {
	loader, err := helpers.GetConfigLoader(container)
	if err != nil {
		return err
	}

	editorCommand := getEditorCommand()
	cmd := exec.CommandContext(ctx, editorCommand, loader.Path())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor %s: %w", editorCommand, err)
	}
	return validateConfiguration(ctx, out, container)
}

// validateConfiguration validates the file and summarises retention and alerting
func validateConfiguration(ctx context.Context, out io.Writer, container *app.Container) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := configapp.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	maxAge, _ := configapp.MaxAge(cfg.History)

	fmt.Fprintln(out, MsgConfigurationValid)
	fmt.Fprintf(out, "  storage:   %s at %s\n", cfg.Storage.Backend, cfg.Storage.Path)
	fmt.Fprintf(out, "  retention: %s\n", retentionSummary(cfg.History.MaxItems, maxAge.String()))
	fmt.Fprintf(out, "  alerting:  ratio > x%.2f, fail on alert %t\n", cfg.Alert.Threshold, cfg.Alert.FailOnAlert)
	return nil
}

func resetConfigurationToDefaults(out io.Writer, container *app.Container) error {
	loader, err := helpers.GetConfigLoader(container)
	if err != nil {
		return err
	}
	backup, err := helpers.BackupConfig(loader)
	if err != nil {
		return err
	}
	defaults, err := loader.Reset()
	if err != nil {
		return fmt.Errorf("failed to reset configuration: %w", err)
	}

	fmt.Fprintf(out, "Configuration reset at %s\n", loader.Path())
	if backup != "" {
		fmt.Fprintf(out, "Previous configuration saved to %s\n", backup)
	}
	data, err := yaml.Marshal(defaults)
	if err != nil {
		return err
	}
	fmt.Fprint(out, string(data))
	return nil
}

// showConfigurationDiff lists changed keys grouped by what they influence
func showConfigurationDiff(ctx context.Context, out io.Writer, container *app.Container) error {
	current, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load current configuration: %w", err)
	}
	defaults, err := configinfra.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to parse default configuration: %w", err)
	}

	changes := configapp.Diff(defaults, current)
	if len(changes) == 0 {
		fmt.Fprintln(out, MsgNoDifferencesFromDefault)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCONCERN\tDEFAULT\tCURRENT")
	concerns := map[string]bool{}
	for _, c := range changes {
		fmt.Fprintf(w, "%s\t%s\t%v\t%v\n", c.Key.Path, c.Key.Concern, c.From, c.To)
		concerns[c.Key.Concern] = true
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, concern := range []string{configapp.ConcernRetention, configapp.ConcernAlerting} {
		if concerns[concern] {
			fmt.Fprintln(out, concernNote(concern))
		}
	}
	return nil
}

func concernNote(concern string) string {
	switch concern {
	case configapp.ConcernRetention:
		return "Retention changes apply on the next ingest; run `benchhist trim` to apply them now."
	case configapp.ConcernAlerting:
		return "Alerting changes apply to the next add or compare."
	case configapp.ConcernStorage:
		return "Storage changes take effect on the next command; existing history is not moved."
	}
	return ""
}

func retentionSummary(maxItems int, maxAge string) string {
	var parts []string
	if maxItems > 0 {
		parts = append(parts, fmt.Sprintf("keep %d runs per group", maxItems))
	}
	if maxAge != "0s" {
		parts = append(parts, "drop runs older than "+maxAge)
	}
	if len(parts) == 0 {
		return "keep everything"
	}
	return strings.Join(parts, ", ")
}

func getEditorCommand() string {
	if editor := os.Getenv(envKeyEditor); editor != "" {
		return editor
	}
	return DefaultEditorCommand
}
