package curriculum

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches a curriculum snapshot from a directory of YAML files.
// Every file may hold any of the snapshot sections; files are merged in
// lexical path order.
type Loader struct {
	rootDir  string
	snapshot Snapshot
	files    int
	mu       sync.RWMutex
}

// NewLoader creates a new curriculum loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{rootDir: rootDir}

	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the curriculum directory, replacing the cached snapshot.
func (l *Loader) Reload() error {
	var snap Snapshot
	files := 0

	err := filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		part, ok, err := loadFile(path)
		if err != nil {
			return err
		}
		if ok {
			snap.Merge(part)
			files++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading curriculum: %w", err)
	}

	l.mu.Lock()
	l.snapshot = snap
	l.files = files
	l.mu.Unlock()

	slog.Info("curriculum loaded",
		"files", files,
		"exams", len(snap.Exams),
		"subjects", len(snap.Subjects),
		"topics", len(snap.Topics),
		"materials", len(snap.Inputs)+len(snap.Outputs),
	)
	return nil
}

// Files returns how many curriculum files contributed to the snapshot.
func (l *Loader) Files() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.files
}

// Snapshot returns a copy of the loaded curriculum.
func (l *Loader) Snapshot(_ context.Context) (*Snapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot.Clone(), nil
}

func loadFile(path string) (Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, false, err
	}

	var part Snapshot
	if err := yaml.Unmarshal(data, &part); err != nil {
		slog.Warn("skipping invalid curriculum YAML", "path", path, "error", err)
		return Snapshot{}, false, nil
	}
	return part, true, nil
}
