// ============================================================================
// VoiceAgent - Automated Voice Survey Platform
// ============================================================================
//
// Package:     survey
// Description: YAML question set loader with hot-reload support
// Author:      Naeem Akhtar
// Created:     2026-08-14
// License:     MIT
// ============================================================================

package survey

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/naeemakhtar23/voiceagent/pkg/core/logging"
)

// Loader manages loading and hot-reloading of question sets from YAML
// files in a directory
type Loader struct {
	mu       sync.RWMutex
	sets     map[string]*QuestionSet // id -> set
	dir      string
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	onChange func(id string, set *QuestionSet)
	onDelete func(id string)
	stopCh   chan struct{}
	running  bool
}

// NewLoader creates a question set loader
func NewLoader(dir string) *Loader {
	return &Loader{
		sets:   make(map[string]*QuestionSet),
		dir:    dir,
		logger: logging.New("surveyloader"),
		stopCh: make(chan struct{}),
	}
}

// SetOnChange sets the callback for when a question set is loaded or updated
func (l *Loader) SetOnChange(fn func(id string, set *QuestionSet)) {
	l.onChange = fn
}

// SetOnDelete sets the callback for when a question set file is removed
func (l *Loader) SetOnDelete(fn func(id string)) {
	l.onDelete = fn
}

// LoadAll loads all question set YAML files from the directory
func (l *Loader) LoadAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create question set directory: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to list question set files: %w", err)
	}
	ymlFiles, _ := filepath.Glob(filepath.Join(l.dir, "*.yml"))
	files = append(files, ymlFiles...)

	if len(files) == 0 {
		l.logger.Info("No question set files found", "dir", l.dir)
		return nil
	}

	loadedCount := 0
	for _, file := range files {
		set, err := l.loadFile(file)
		if err != nil {
			l.logger.Warn("Failed to load question set file", "file", file, "error", err)
			continue
		}

		l.sets[set.ID] = set
		loadedCount++
		l.logger.Info("Question set loaded",
			"id", set.ID, "name", set.Name,
			"questions", len(set.Questions), "file", filepath.Base(file))
	}

	l.logger.Info("Question sets loaded", "count", loadedCount, "dir", l.dir)
	return nil
}

// loadFile loads a single YAML file
func (l *Loader) loadFile(path string) (*QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var set QuestionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	set.Defaults()
	if err := set.Validate(); err != nil {
		return nil, err
	}

	set.SourceFile = path
	set.LoadedAt = time.Now()
	return &set, nil
}

// Get returns a question set by ID
func (l *Loader) Get(id string) (*QuestionSet, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	set, ok := l.sets[id]
	return set, ok
}

// GetAll returns all loaded question sets, sorted by ID
func (l *Loader) GetAll() []*QuestionSet {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sets := make([]*QuestionSet, 0, len(l.sets))
	for _, set := range l.sets {
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].ID < sets[j].ID })
	return sets
}

// StartWatching starts the file watcher for hot-reload
func (l *Loader) StartWatching() error {
	if l.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	l.watcher = watcher

	if err := l.watcher.Add(l.dir); err != nil {
		l.watcher.Close()
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	l.running = true
	l.logger.Info("Watching for question set changes", "dir", l.dir)

	go l.watchLoop()
	return nil
}

// watchLoop handles file system events
func (l *Loader) watchLoop() {
	defer func() {
		l.running = false
		if l.watcher != nil {
			l.watcher.Close()
		}
	}()

	// debounce so editors writing in several steps trigger one reload
	debounce := make(map[string]time.Time)
	debounceDelay := 500 * time.Millisecond

	for {
		select {
		case <-l.stopCh:
			l.logger.Info("Stopping question set watcher")
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !isYAMLFile(event.Name) {
				continue
			}
			if lastTime, exists := debounce[event.Name]; exists {
				if time.Since(lastTime) < debounceDelay {
					continue
				}
			}
			debounce[event.Name] = time.Now()

			l.handleFileEvent(event)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFileEvent processes a single file event
func (l *Loader) handleFileEvent(event fsnotify.Event) {
	fileName := filepath.Base(event.Name)

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create || event.Op&fsnotify.Write == fsnotify.Write:
		l.logger.Info("Question set file changed, reloading", "file", fileName)

		set, err := l.loadFile(event.Name)
		if err != nil {
			l.logger.Error("Failed to reload question set", "file", fileName, "error", err)
			return
		}

		l.mu.Lock()
		l.sets[set.ID] = set
		l.mu.Unlock()

		l.logger.Info("Question set reloaded", "id", set.ID, "name", set.Name)

		if l.onChange != nil {
			l.onChange(set.ID, set)
		}

	case event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename:
		l.mu.Lock()
		var removedID string
		for id, set := range l.sets {
			if set.SourceFile == event.Name {
				removedID = id
				delete(l.sets, id)
				break
			}
		}
		l.mu.Unlock()

		if removedID != "" {
			l.logger.Info("Question set removed", "id", removedID, "file", fileName)
			if l.onDelete != nil {
				l.onDelete(removedID)
			}
		}
	}
}

// Stop stops the file watcher
func (l *Loader) Stop() {
	if l.running {
		close(l.stopCh)
	}
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
