package cli

import (
	"context"
	"fmt"

	"resufit/internal/common"
	"resufit/internal/parse"
	"resufit/internal/rating"
	"resufit/internal/types"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [job-description-file] [resume-file...]",
	Short: "Rate multiple resumes against one job description",
	Long: `Rate several resumes against a single job description and produce a
ranked batch report. The first argument is the job description file; every
remaining argument is a resume file (PDF, DOCX or plain text). Job description
skills are extracted once and shared across all resumes.`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if batchConfig.OutputFormat == "" {
			batchConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(batchConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runBatch,
}

var (
	batchConfig   common.CommandConfig
	batchAudio    bool
	batchFeedback bool
)

// batchInput pairs the shared job description with the parsed resumes.
type batchInput struct {
	JobDescription string
	Resumes        []types.RateInput
}

func init() {
	batchCmd.Flags().StringVarP(&batchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	batchCmd.Flags().StringVar(&batchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	batchCmd.Flags().BoolVar(&batchAudio, "audio", false, "Generate spoken audio assessments (overrides config)")
	batchCmd.Flags().BoolVar(&batchFeedback, "feedback", false, "Generate PDF feedback letters for weak candidates (overrides config)")

	// Add completion for format flag
	_ = batchCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	ratingService, err := rating.NewService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create rating service: %w", err)
	}
	defer func() {
		if err := ratingService.Close(); err != nil {
			logger.Warn("Failed to close rating service", "error", err)
		}
	}()

	opts := rating.DefaultOptions(cfg)
	if cmd.Flags().Changed("audio") {
		opts.IncludeAudio = batchAudio
	}
	if cmd.Flags().Changed("feedback") {
		opts.IncludeFeedback = batchFeedback
	}

	buildInput := func(jobDescription string, resumes []parse.Document) (batchInput, error) {
		input := batchInput{JobDescription: jobDescription}
		for _, doc := range resumes {
			input.Resumes = append(input.Resumes, types.RateInput{
				ResumeText: doc.Text,
				Filename:   doc.Filename,
			})
		}
		return input, nil
	}

	logDetails := func(input batchInput, cfg common.CommandConfig) {
		logger.Info("Starting batch rating",
			"resume_count", len(input.Resumes),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	batchOperation := func(ctx context.Context, input batchInput) (*types.BatchResult, error) {
		return ratingService.RateBatch(ctx, input.JobDescription, input.Resumes, opts), nil
	}

	err = common.RunRatingCommand(
		cmd.Context(),
		logger,
		batchConfig,
		args[0],
		args[1:],
		buildInput,
		batchOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to rate resumes: %w", err)
	}
	logger.Info("Batch rating completed successfully")
	return nil
}
