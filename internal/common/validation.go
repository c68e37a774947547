package common

import (
	"fmt"
	"slices"

	"talentmatch/internal/errors"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}

// ResolveOutputFormat applies the configured default to an unset format
// and validates the result.
func (c *CommandConfig) ResolveOutputFormat(defaultFormat string, supportedFormats []string) error {
	if c.OutputFormat == "" {
		c.OutputFormat = defaultFormat
	}
	return ValidateOutputFormat(c.OutputFormat, supportedFormats)
}
