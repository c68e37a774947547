package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"talentmatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherJobForPath(t *testing.T) {
	u := newUploads(t, "pdf")
	w := NewWatcher(u, time.Second, func(string) {}, errors.Discard())
	root := u.Root()

	tests := []struct {
		path  string
		job   string
		match bool
	}{
		{path: filepath.Join(root, "ab12cd34", "cv.pdf"), job: "ab12cd34", match: true},
		{path: filepath.Join(root, "ab12cd34", "cv.txt")},
		{path: filepath.Join(root, "ab12cd34", ".upload-123")},
		{path: filepath.Join(root, "cv.pdf")},
		{path: filepath.Join(root, "a", "b", "cv.pdf")},
		{path: filepath.Join(filepath.Dir(root), "other", "cv.pdf")},
	}
	for _, tt := range tests {
		job, ok := w.jobForPath(tt.path)
		assert.Equal(t, tt.match, ok, tt.path)
		assert.Equal(t, tt.job, job, tt.path)
	}
}

func TestWatcherDebouncesPerJob(t *testing.T) {
	u := newUploads(t, "txt")
	jobDir := filepath.Join(u.Root(), "ab12cd34")
	require.NoError(t, os.MkdirAll(jobDir, 0750))

	processed := make(chan string, 10)
	w := NewWatcher(u, 100*time.Millisecond, func(jobID string) { processed <- jobID }, errors.Discard())
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start())

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(jobDir, name), []byte(name), 0600))
	}

	select {
	case jobID := <-processed:
		assert.Equal(t, "ab12cd34", jobID)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not process the job")
	}

	select {
	case jobID := <-processed:
		t.Fatalf("unexpected second run for %s", jobID)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherPicksUpNewJobDirectory(t *testing.T) {
	u := newUploads(t, "txt")
	processed := make(chan string, 10)
	w := NewWatcher(u, 50*time.Millisecond, func(jobID string) { processed <- jobID }, errors.Discard())
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	_, err := u.Save("ffff0000", "cv.txt", strings.NewReader("resume"))
	require.NoError(t, err)

	select {
	case jobID := <-processed:
		assert.Equal(t, "ffff0000", jobID)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not process the new job directory")
	}
}

func TestWatcherStop(t *testing.T) {
	u := newUploads(t, "txt")
	w := NewWatcher(u, time.Second, func(string) {}, errors.Discard())
	require.NoError(t, w.Stop())
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}
