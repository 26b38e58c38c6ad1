package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"apiguard/internal/config"
)

type FileWatcher struct {
	watcher     *fsnotify.Watcher
	files       config.FilesConfig
	roots       []string
	mu          sync.Mutex
	watchedDirs map[string]bool
	debouncer   *debouncer
}

type FileChangeEvent struct {
	Path      string
	Operation string
	Timestamp time.Time
}

// FileChangeHandler receives the changed Java files of one debounce window.
type FileChangeHandler func([]string) error

func NewFileWatcher(cfg *config.Config) (*FileWatcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &FileWatcher{
		watcher:     watcher,
		files:       cfg.Files,
		watchedDirs: make(map[string]bool),
		debouncer:   newDebouncer(500 * time.Millisecond),
	}, nil
}

func (fw *FileWatcher) Watch(paths []string, handler FileChangeHandler) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to watch path %s: %w", path, err)
		}
		root := path
		if !info.IsDir() {
			root = filepath.Dir(path)
		}
		fw.roots = append(fw.roots, root)
		if err := fw.addPath(root); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", path, err)
		}
	}
	go fw.eventLoop(handler)
	return nil
}

func (fw *FileWatcher) addPath(path string) error {
	return filepath.Walk(path, func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if walkPath != path && fw.shouldSkipDir(walkPath) {
			return filepath.SkipDir
		}

		fw.mu.Lock()
		defer fw.mu.Unlock()
		if !fw.watchedDirs[walkPath] {
			if err := fw.watcher.Add(walkPath); err != nil {
				return fmt.Errorf("failed to add directory %s to watcher: %w", walkPath, err)
			}
			fw.watchedDirs[walkPath] = true
			log.Debug().Str("dir", walkPath).Msg("Watching directory")
		}
		return nil
	})
}

func (fw *FileWatcher) eventLoop(handler FileChangeHandler) {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event, handler)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("File watcher error")
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event, handler FileChangeHandler) {
	// new directories need their own watch
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !fw.shouldSkipDir(event.Name) {
				if err := fw.addPath(event.Name); err != nil {
					log.Warn().Err(err).Str("dir", event.Name).Msg("Cannot watch new directory")
				}
			}
			return
		}
	}

	if !fw.isJavaFile(event.Name) || fw.shouldSkipFile(event.Name) {
		return
	}
	changeEvent := FileChangeEvent{
		Path:      event.Name,
		Operation: fw.eventOpToString(event.Op),
		Timestamp: time.Now(),
	}
	log.Trace().Str("file", changeEvent.Path).Str("op", changeEvent.Operation).Msg("File changed")
	fw.debouncer.add(changeEvent, handler)
}

func (fw *FileWatcher) isJavaFile(path string) bool {
	if !strings.HasSuffix(path, ".java") {
		return false
	}
	return fw.files.IsSource(fw.rel(path))
}

func (fw *FileWatcher) shouldSkipDir(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	return fw.files.ExcludesDir(fw.rel(path))
}

func (fw *FileWatcher) shouldSkipFile(path string) bool {
	filename := filepath.Base(path)
	return strings.HasSuffix(filename, ".tmp") ||
		strings.HasSuffix(filename, "~") ||
		strings.HasSuffix(filename, ".swp") ||
		strings.HasSuffix(filename, ".swo")
}

// rel makes path relative to the watched root containing it.
func (fw *FileWatcher) rel(path string) string {
	for _, root := range fw.roots {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return path
}

func (fw *FileWatcher) eventOpToString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return "CREATE"
	case op&fsnotify.Write == fsnotify.Write:
		return "WRITE"
	case op&fsnotify.Remove == fsnotify.Remove:
		return "REMOVE"
	case op&fsnotify.Rename == fsnotify.Rename:
		return "RENAME"
	case op&fsnotify.Chmod == fsnotify.Chmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

func (fw *FileWatcher) Close() error {
	fw.debouncer.stop()
	return fw.watcher.Close()
}

func (fw *FileWatcher) GetWatchedPaths() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return lo.Keys(fw.watchedDirs)
}
