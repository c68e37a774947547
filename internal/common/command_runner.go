package common

import (
	"context"

	"talentmatch/internal/errors"
)

// OperationFunc produces the result a command prints.
type OperationFunc[Output any] func(context.Context) (Output, error)

// LogDetailsFunc logs the start of an operation.
type LogDetailsFunc func(cfg CommandConfig)

// RunCommand validates the output target, runs operation and writes its
// result through the formatter registry.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	operation OperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	outputHandler := NewOutputHandler(logger)
	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(cmdConfig)
	}

	result, err := operation(ctx)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
