package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"talentmatch/internal/errors"
	"talentmatch/internal/formatters"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler renders command results to stdout or a file.
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	out           io.Writer
	logger        *errors.Logger
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger),
		registry:      formatters.NewFormatterRegistry(),
		out:           os.Stdout,
		logger:        logger,
	}
}

// HandleOutput renders data in config.OutputFormat. Output goes to
// config.OutputFile when set, otherwise to stdout with a trailing newline.
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err).
			WithContext("result_type", fmt.Sprintf("%T", data)).
			WithContext("supported_formats", oh.registry.GetSupportedFormats())
	}

	if config.OutputFile == "" {
		if !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		_, err := io.WriteString(oh.out, output)
		return err
	}

	if err := oh.fileProcessor.WriteFile(config.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written",
		"file", config.OutputFile,
		"format", config.OutputFormat,
		"bytes", len(output))
	return nil
}
