package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resufit/internal/errors"
	"resufit/internal/parse"
	"resufit/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// warnFormat reports a suspicious-looking input file, to the logger when one
// is configured and to stderr otherwise
func (fp *FileProcessor) warnFormat(filename, reason string) {
	if fp.logger != nil {
		fp.logger.Warn("File "+reason, "filename", filename)
		return
	}
	fmt.Fprintf(os.Stderr, "Warning: %s %s\n", filename, reason)
}

// wrapOpenError maps an open/read failure to the matching IO error code
func wrapOpenError(filename string, err error) error {
	if os.IsNotExist(err) {
		return errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	}
	return errors.NewIOError(errors.ErrCodeFileNotReadable,
		fmt.Sprintf("Cannot read file: %s", filename), err)
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return "", wrapOpenError(filename, err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return string(content), nil
}

// ReadDocument reads a resume file and extracts its text, handling PDF and
// DOCX as well as plain text.
func (fp *FileProcessor) ReadDocument(filename string) (parse.Document, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return parse.Document{}, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	// Unsupported extensions still get a plain-text parse attempt
	if !utils.IsResumeFile(filename) {
		fp.warnFormat(filename, "may not be a supported resume format")
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return parse.Document{}, wrapOpenError(filename, err)
	}

	doc, err := parse.Parse(data, filepath.Base(filename))
	if err != nil {
		return parse.Document{}, err
	}

	if fp.logger != nil {
		fp.logger.Debug("Parsed resume file",
			"filename", filename,
			"size", utils.FormatFileSize(int64(len(data))),
			"text_length", len(doc.Text))
	}
	return doc, nil
}

// WriteFile writes content to a file, creating parent directories as needed
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// ValidateAndReadFiles validates and reads multiple input files
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))
	for i, filename := range filenames {
		if err := utils.ValidateInputFile(filename); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if !utils.IsTextFile(filename) {
			fp.warnFormat(filename, "may not be a text file")
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}
	return contents, nil
}

// ValidateOutputFile validates an output file path; empty means stdout
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
