package common

import (
	"context"
	"fmt"

	"resufit/internal/errors"
	"resufit/internal/parse"
)

// BuildInputFunc defines how to create the specific rating input from the job
// description text and the parsed resume documents.
type BuildInputFunc[Input any] func(jobDescription string, resumes []parse.Document) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// RatingOperationFunc is a generic function signature for any rating operation.
type RatingOperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunRatingCommand encapsulates the common logic for file-based CLI commands:
// read the job description, parse the resume files, run the operation and
// write the formatted result.
func RunRatingCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	jobDescriptionPath string,
	resumePaths []string,
	buildInput BuildInputFunc[Input],
	operation RatingOperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	// Pass the logger when creating helpers
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(jobDescriptionPath)
	if err != nil {
		return err
	}
	jobDescription := contents[0]

	resumes := make([]parse.Document, len(resumePaths))
	for i, path := range resumePaths {
		doc, err := fileProcessor.ReadDocument(path)
		if err != nil {
			return err
		}
		resumes[i] = doc
	}

	input, err := buildInput(jobDescription, resumes)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	logDetails(input, cmdConfig)

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
