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

var rateCmd = &cobra.Command{
	Use:   "rate [resume-file] [job-description-file]",
	Short: "Rate a resume against a job description",
	Long: `Rate a resume against a job description and produce a scored assessment.
The command takes two arguments: the path to the resume file (PDF, DOCX or
plain text) and the path to the job description file. The result includes a
0-10 score, the component breakdown, matched and missing skills and a hiring
recommendation.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if rateConfig.OutputFormat == "" {
			rateConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(rateConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runRate,
}

var (
	rateConfig   common.CommandConfig
	rateAudio    bool
	rateFeedback bool
)

func init() {
	rateCmd.Flags().StringVarP(&rateConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	rateCmd.Flags().StringVar(&rateConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	rateCmd.Flags().BoolVar(&rateAudio, "audio", false, "Generate a spoken audio assessment (overrides config)")
	rateCmd.Flags().BoolVar(&rateFeedback, "feedback", false, "Generate a PDF feedback letter for weak candidates (overrides config)")

	// Add completion for format flag
	_ = rateCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runRate(cmd *cobra.Command, args []string) error {
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
		opts.IncludeAudio = rateAudio
	}
	if cmd.Flags().Changed("feedback") {
		opts.IncludeFeedback = rateFeedback
	}

	buildInput := func(jobDescription string, resumes []parse.Document) (types.RateInput, error) {
		if len(resumes) != 1 {
			return types.RateInput{}, fmt.Errorf("expected 1 resume, got %d", len(resumes))
		}
		return types.RateInput{
			JobDescription: jobDescription,
			ResumeText:     resumes[0].Text,
			Filename:       resumes[0].Filename,
		}, nil
	}

	logDetails := func(input types.RateInput, cfg common.CommandConfig) {
		logger.Info("Starting resume rating",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	rateOperation := func(ctx context.Context, input types.RateInput) (*types.RateResult, error) {
		return ratingService.Rate(ctx, input, opts)
	}

	err = common.RunRatingCommand(
		cmd.Context(),
		logger,
		rateConfig,
		args[1],
		args[:1],
		buildInput,
		rateOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to rate resume: %w", err)
	}
	logger.Info("Resume rating completed successfully")
	return nil
}
