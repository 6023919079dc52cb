package definition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyWatching is returned by a second Watch call.
	ErrAlreadyWatching = errors.New("definition: holder is already watching")
	// ErrHolderStopped is returned by Watch after Stop.
	ErrHolderStopped = errors.New("definition: holder is stopped")
)

// Holder provides concurrent access to a definition Store with reload on
// file changes.
type Holder struct {
	mu       sync.RWMutex
	store    *Store
	path     string
	isDir    bool
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Store)
	onError  []func(error)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path (a file or a directory) and returns a holder for it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("definition: absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("definition: stat %s: %w", absPath, err)
	}
	store, err := LoadPath(absPath)
	if err != nil {
		return nil, err
	}

	return &Holder{
		store:  store,
		path:   absPath,
		isDir:  info.IsDir(),
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// Store returns the current definitions.
func (h *Holder) Store() *Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store
}

// Reload reads the definitions again. On failure the previous store is kept.
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading form definitions")

	next, err := LoadPath(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("definition reload failed, keeping previous forms")
		err = fmt.Errorf("definition: reload: %w", err)
		h.mu.RLock()
		listeners := append([]func(error){}, h.onError...)
		h.mu.RUnlock()
		for _, fn := range listeners {
			fn(err)
		}
		return err
	}

	h.mu.Lock()
	prev := h.store
	h.store = next
	listeners := append([]func(*Store){}, h.onChange...)
	h.mu.Unlock()

	if prev.Len() != next.Len() {
		h.logger.Info().Int("old", prev.Len()).Int("new", next.Len()).Msg("form count changed")
	}
	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// OnChange registers fn to run after each successful reload.
func (h *Holder) OnChange(fn func(*Store)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnError registers fn to run after each failed reload.
func (h *Holder) OnError(fn func(error)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// Watch reloads when a definition file under the watched path is written or
// replaced. The containing directory is watched so atomic saves are seen.
// A holder watches at most once; Watch after Watch or Stop fails.
func (h *Holder) Watch() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.stopCh:
		return ErrHolderStopped
	default:
	}
	if h.watcher != nil {
		return ErrAlreadyWatching
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("definition: create watcher: %w", err)
	}

	dir := h.path
	if !h.isDir {
		dir = filepath.Dir(h.path)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("definition: watch %s: %w", dir, err)
	}
	h.watcher = watcher

	go h.watchLoop(watcher)

	h.logger.Info().Str("path", h.path).Msg("watching form definitions")
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		watcher := h.watcher
		close(h.stopCh)
		h.mu.Unlock()
		if watcher != nil {
			watcher.Close()
		}
	})
}

func (h *Holder) relevant(name string) bool {
	if h.isDir {
		return isDefinitionFile(name)
	}
	return filepath.Base(name) == filepath.Base(h.path)
}

func (h *Holder) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !h.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			h.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("definition file changed")
			if err := h.Reload(); err != nil {
				h.logger.Error().Err(err).Msg("definition watch reload failed")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("definition watcher error")

		case <-h.stopCh:
			return
		}
	}
}
