package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"talentmatch/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches <root>/<job_id>/ directories and calls process for a
// job once its uploads have been quiet for the debounce delay.
type Watcher struct {
	mu sync.Mutex

	root  string
	kinds []string

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	timers        map[string]*time.Timer
	ready         map[string]bool

	stopChan  chan struct{}
	readyChan chan struct{}
	doneChan  chan struct{}

	process func(jobID string)
	logger  *errors.Logger

	running bool
}

// NewWatcher creates a watcher over the upload root.
func NewWatcher(uploads *Uploads, debounceDelay time.Duration, process func(jobID string), logger *errors.Logger) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = 2 * time.Second
	}
	return &Watcher{
		root:          uploads.root,
		kinds:         uploads.kinds,
		debounceDelay: debounceDelay,
		timers:        make(map[string]*time.Timer),
		ready:         make(map[string]bool),
		process:       process,
		logger:        logger,
	}
}

// Start begins watching. The upload root is created if missing.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("upload watcher is already running")
	}
	if err := os.MkdirAll(w.root, 0750); err != nil {
		return fmt.Errorf("failed to create upload root: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to read upload root: %w", err)
	}
	jobs := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := fsw.Add(filepath.Join(w.root, e.Name())); err != nil {
			w.logger.Warn("Failed to watch job upload directory", "job_id", e.Name(), "error", err)
			continue
		}
		jobs++
	}

	w.fsWatcher = fsw
	w.stopChan = make(chan struct{})
	w.readyChan = make(chan struct{}, 1)
	w.doneChan = make(chan struct{})
	w.running = true
	go w.watchLoop(fsw, w.stopChan, w.doneChan)

	w.logger.Info("Upload watcher started",
		"root", w.root,
		"job_directories", jobs,
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops watching and waits for an in-flight process call to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopChan)
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	done := w.doneChan
	err := w.fsWatcher.Close()
	w.running = false
	w.mu.Unlock()

	<-done
	if err != nil {
		w.logger.LogError(err, "Failed to close file system watcher")
		return err
	}
	w.logger.Info("Upload watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop(fsw *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "File watcher error")

		case <-w.readyChan:
			for _, jobID := range w.takeReady() {
				select {
				case <-stop:
					return
				default:
				}
				w.logger.Info("Uploads changed, processing job", "job_id", jobID)
				w.process(jobID)
			}

		case <-stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	// a new job directory: watch it and pick up files written before the watch
	if filepath.Dir(event.Name) == filepath.Clean(w.root) {
		info, err := os.Stat(event.Name)
		if err != nil || !info.IsDir() {
			return
		}
		if err := fsw.Add(event.Name); err != nil {
			w.logger.Warn("Failed to watch job upload directory", "path", event.Name, "error", err)
			return
		}
		if w.hasAcceptedFiles(event.Name) {
			w.schedule(filepath.Base(event.Name))
		}
		return
	}

	if jobID, ok := w.jobForPath(event.Name); ok {
		w.schedule(jobID)
	}
}

// jobForPath maps <root>/<job_id>/<file> with an accepted kind to job_id.
// Hidden files, such as in-progress uploads, are ignored.
func (w *Watcher) jobForPath(name string) (string, bool) {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[0] == ".." || strings.HasPrefix(parts[1], ".") {
		return "", false
	}
	if !slices.Contains(w.kinds, Kind(parts[1])) {
		return "", false
	}
	return parts[0], true
}

func (w *Watcher) hasAcceptedFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(entries, func(e os.DirEntry) bool {
		_, ok := w.jobForPath(filepath.Join(dir, e.Name()))
		return ok && !e.IsDir()
	})
}

// schedule (re)starts the debounce timer for a job
func (w *Watcher) schedule(jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	if t, ok := w.timers[jobID]; ok {
		t.Stop()
	}
	w.timers[jobID] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, jobID)
		w.ready[jobID] = true
		w.mu.Unlock()

		select {
		case w.readyChan <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) takeReady() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	jobs := make([]string, 0, len(w.ready))
	for id := range w.ready {
		jobs = append(jobs, id)
	}
	clear(w.ready)
	slices.Sort(jobs)
	return jobs
}
