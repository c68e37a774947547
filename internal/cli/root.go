package cli

import (
	"context"

	"talentmatch/internal/common"
	"talentmatch/internal/config"
	"talentmatch/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "talentmatch",
	Short: "Rank job candidates with hybrid retrieval and LLM evaluation",
	Long: `Talentmatch ingests resumes, stores candidate profiles with summary
embeddings, and screens candidates for a job posting: hybrid vector and
keyword retrieval, a per-candidate LLM evaluation over five weighted
criteria, and a stable ranking of applied and potential candidates.`,
	SilenceUsage: true,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// withApp builds the application for one command run and closes it after.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, getConfigFromContext(ctx), getLoggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, cfg *common.CommandConfig) {
	cmd.Flags().StringVarP(&cfg.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cfg.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return getConfigFromContext(cmd.Context()).App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveFormat is a PreRunE that applies the configured default format
func resolveFormat(cfg *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		appCfg := getConfigFromContext(cmd.Context()).App
		return cfg.ResolveOutputFormat(appCfg.DefaultFormat, appCfg.SupportedFormats)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(versionCmd)
}
