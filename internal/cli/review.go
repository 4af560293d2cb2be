package cli

import (
	"fmt"

	"resumegrade/internal/common"
	"resumegrade/internal/errors"
	"resumegrade/internal/formatters"
	"resumegrade/internal/presentation"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review [resume-file]",
	Short: "Review a PDF or DOCX resume in the terminal",
	Long: `Review a resume from disk. The text is extracted locally, sent to the
configured AI provider with the recruiter prompt, and the scores are shown
with the same count-up animation as the browser view.

Output formats:
- text: scores, strengths, weaknesses and rewritten bullets
- markdown: the same review as a Markdown document
- json: the raw review`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if reviewConfig.OutputFormat == "" {
			reviewConfig.OutputFormat = cfg.App.DefaultFormat
		}
		format, err := common.NormalizeOutputFormat(reviewConfig.OutputFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		reviewConfig.OutputFormat = format
		return nil
	},
	RunE: runReview,
}

var (
	reviewConfig common.CommandConfig
	noAnimate    bool
)

func init() {
	reviewCmd.Flags().StringVarP(&reviewConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	reviewCmd.Flags().StringVar(&reviewConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	reviewCmd.Flags().BoolVar(&noAnimate, "no-animate", false, "Print the final scores without the count-up animation")

	_ = reviewCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if cfg, err := getConfigFromContext(cmd.Context()); err == nil && len(cfg.App.SupportedFormats) > 0 {
			return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
		}
		return formatters.GlobalRegistry.GetSupportedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd.Context())
	if err != nil {
		return err
	}

	upload, err := common.NewFileProcessor(logger).LoadUpload(args[0], cfg.App.MaxFileSize)
	if err != nil {
		return err
	}

	parts, err := buildComponents(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer parts.Close(logger)

	stderr := cmd.ErrOrStderr()
	terminal := presentation.NewTerminalRenderer(stderr, !noAnimate)
	parts.view.OnChange(func(v presentation.ViewState) {
		if v.Kind == presentation.ViewLoading {
			terminal.RenderLoading(v.Message)
		}
	})

	logger.Info("Starting resume review",
		"file", upload.Name,
		"mime_type", upload.MIMEType,
		"output_format", reviewConfig.OutputFormat)

	result, err := parts.controller.HandleFile(cmd.Context(), upload)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeCredentialMissing) {
			fmt.Fprintln(stderr, "Run 'resumegrade credential set <key>' or set credential.defaultKey in the config.")
		}
		return fmt.Errorf("review failed: %s", errors.UserMessage(err))
	}

	if reviewConfig.OutputFile != "" || reviewConfig.OutputFormat == "text" {
		if err := terminal.RenderScores(cmd.Context(), result); err != nil {
			return err
		}
	}

	handler := common.NewOutputHandler(logger, cmd.OutOrStdout())
	if err := handler.HandleOutput(result, reviewConfig); err != nil {
		return err
	}

	logger.Info("Resume review completed", "score_overall", result.ScoreOverall)
	return nil
}
