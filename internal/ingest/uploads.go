package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/types"
)

// Upload is one file to save.
type Upload struct {
	Name   string
	Reader io.Reader
}

// Uploads manages resume files under <root>/<job_id>/.
type Uploads struct {
	root    string
	kinds   []string
	maxSize int64
	logger  *errors.Logger
}

// NewUploads creates an upload store rooted at cfg.UploadRoot.
func NewUploads(cfg config.IngestConfig, logger *errors.Logger) *Uploads {
	kinds := make([]string, 0, len(cfg.AllowedKinds))
	for _, k := range cfg.AllowedKinds {
		kinds = append(kinds, strings.TrimPrefix(strings.ToLower(k), "."))
	}
	return &Uploads{
		root:    cfg.UploadRoot,
		kinds:   kinds,
		maxSize: cfg.MaxUploadSize,
		logger:  logger,
	}
}

// Root returns the upload root directory.
func (u *Uploads) Root() string { return u.root }

// Accepts reports whether name has an allowed document kind.
func (u *Uploads) Accepts(name string) bool {
	return slices.Contains(u.kinds, Kind(name))
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces name to a safe base file name.
func SanitizeName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "_" {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid file name %q", name), nil)
	}
	return base, nil
}

func (u *Uploads) jobDir(jobID string) (string, error) {
	if jobID == "" || jobID != filepath.Base(jobID) || strings.HasPrefix(jobID, ".") {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid job_id %q", jobID), nil)
	}
	return filepath.Join(u.root, jobID), nil
}

// Save writes one upload and returns its stored name. The file appears
// under its final name only once fully written.
func (u *Uploads) Save(jobID, name string, r io.Reader) (string, error) {
	dir, err := u.jobDir(jobID)
	if err != nil {
		return "", err
	}
	clean, err := SanitizeName(name)
	if err != nil {
		return "", err
	}
	if !u.Accepts(clean) {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("file kind %q is not accepted; allowed: %s", Kind(clean), strings.Join(u.kinds, ", ")), nil).
			WithContext("file", clean)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to create upload directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to create upload file", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	src := r
	if u.maxSize > 0 {
		src = io.LimitReader(r, u.maxSize+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to write upload", err).WithContext("file", clean)
	}
	if u.maxSize > 0 && n > u.maxSize {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("file exceeds the %d byte limit", u.maxSize), nil).WithContext("file", clean)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, clean)); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to store upload", err).WithContext("file", clean)
	}
	u.logger.Debug("Saved upload", "job_id", jobID, "file", clean, "size", n)
	return clean, nil
}

// SaveBatch saves each upload, collecting per-file failures.
func (u *Uploads) SaveBatch(jobID string, files []Upload) types.UploadResult {
	result := types.UploadResult{JobID: jobID, Filenames: []string{}, Errors: []string{}}
	for _, f := range files {
		name, err := u.Save(jobID, f.Name, f.Reader)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		result.Filenames = append(result.Filenames, name)
	}
	result.Saved = len(result.Filenames)
	u.logger.Info("Saved uploads", "job_id", jobID, "saved", result.Saved, "failed", len(result.Errors))
	return result
}

// List returns the stored uploads for a job sorted by name. A job with no
// upload directory has no uploads.
func (u *Uploads) List(jobID string) ([]types.UploadedFile, error) {
	dir, err := u.jobDir(jobID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.UploadedFile{}, nil
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to list uploads", err)
	}

	files := make([]types.UploadedFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, types.UploadedFile{Name: e.Name(), Size: info.Size(), ModifiedAt: info.ModTime().UTC()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Delete removes one upload.
func (u *Uploads) Delete(jobID, name string) error {
	dir, err := u.jobDir(jobID)
	if err != nil {
		return err
	}
	clean, err := SanitizeName(name)
	if err != nil {
		return err
	}
	if clean != name {
		return uploadNotFound(jobID, name)
	}

	if err := os.Remove(filepath.Join(dir, clean)); err != nil {
		if os.IsNotExist(err) {
			return uploadNotFound(jobID, name)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to delete upload", err)
	}
	u.logger.Info("Deleted upload", "job_id", jobID, "file", clean)
	return nil
}

// Documents reads every accepted upload for a job.
func (u *Uploads) Documents(_ context.Context, jobID string) ([]Document, error) {
	files, err := u.List(jobID)
	if err != nil {
		return nil, err
	}
	dir, _ := u.jobDir(jobID)

	docs := make([]Document, 0, len(files))
	for _, f := range files {
		if !u.Accepts(f.Name) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name))
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read upload", err).
				WithContext("file", f.Name)
		}
		docs = append(docs, Document{Name: f.Name, Data: data})
	}
	return docs, nil
}

func uploadNotFound(jobID, name string) error {
	return errors.NewNotFoundError(errors.ErrCodeUploadNotFound, "upload not found", nil).
		WithContext("job_id", jobID).
		WithContext("file", name)
}
