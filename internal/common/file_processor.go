package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"talentmatch/internal/errors"
)

const (
	outputDirMode  = 0o750
	outputFileMode = 0o600
)

// FileProcessor opens command inputs and writes command outputs,
// translating filesystem failures into AppErrors.
type FileProcessor struct {
	logger *errors.Logger
}

func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile returns the whole content of a regular file.
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	f, err := fp.OpenInputFile(filename)
	if err != nil {
		return "", err
	}
	defer fp.closeFile(f)

	content, err := io.ReadAll(f)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read %s", filename), err)
	}
	return string(content), nil
}

// OpenInputFile opens a regular file for reading. The caller closes it.
func (fp *FileProcessor) OpenInputFile(filename string) (*os.File, error) {
	if filename == "" {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE", "filename cannot be empty", nil)
	}

	f, err := os.Open(filename)
	switch {
	case os.IsNotExist(err):
		return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
			fmt.Sprintf("File not found: %s", filename), err)
	case err != nil:
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot open %s", filename), err)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		fp.closeFile(f)
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Not a regular file: %s", filename), err)
	}
	return f, nil
}

// OpenInputFiles opens every file or none. The returned func closes them.
func (fp *FileProcessor) OpenInputFiles(filenames ...string) ([]*os.File, func(), error) {
	files := make([]*os.File, 0, len(filenames))
	closeAll := func() {
		for _, f := range files {
			fp.closeFile(f)
		}
	}

	for _, filename := range filenames {
		f, err := fp.OpenInputFile(filename)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, f)
	}
	return files, closeAll, nil
}

func (fp *FileProcessor) closeFile(f *os.File) {
	if err := f.Close(); err != nil && fp.logger != nil {
		fp.logger.Warn("Failed to close file", "filename", f.Name(), "error", err)
	}
}

// WriteFile replaces filename with content through a temp file in the
// same directory, creating parent directories as needed.
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, outputDirMode); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create directory: %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*")
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write %s", filename), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, content); err != nil {
		tmp.Close()
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write %s", filename), err)
	}
	if err := tmp.Chmod(outputFileMode); err != nil {
		tmp.Close()
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write %s", filename), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write %s", filename), err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot replace %s", filename), err)
	}
	return nil
}

// ValidateOutputFile checks an output path before the command runs.
// An empty path means stdout.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s is a directory", filename), nil)
	}
	if err := os.MkdirAll(filepath.Dir(filename), outputDirMode); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}
	return nil
}
