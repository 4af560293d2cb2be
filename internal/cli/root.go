package cli

import (
	"context"
	"fmt"

	"resumegrade/internal/config"
	"resumegrade/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumegrade",
	Short: "AI recruiter review for PDF and DOCX resumes",
	Long: `Resumegrade reviews a resume the way a recruiter would. It extracts the
text from a PDF or DOCX file, asks an AI model for category scores, strengths,
weaknesses and rewritten bullet points, and shows the result in the browser
(serve) or in the terminal (review).`,
	SilenceUsage: true,
}

// Execute runs the root command with cfg and logger available to all subcommands
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	setContext(rootCmd, ctx)
	return rootCmd.Execute()
}

// setContext replaces the context on every command. Cobra only hands the
// root context to a subcommand that has none, so a second Execute in the
// same process would otherwise see the first config.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}

func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

// fromContext returns both the config and the logger
func fromContext(ctx context.Context) (*config.Config, *errors.Logger, error) {
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(credentialCmd)
	rootCmd.AddCommand(versionCmd)
}
