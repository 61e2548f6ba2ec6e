package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for events to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watch calls onChange with the migratable files created or written under
// root, batched until no event arrived for debounce. Files the callback
// rewrites produce one more event whose rerun is a no-op. It returns nil
// when ctx is done.
func Watch(ctx context.Context, root string, debounce time.Duration, onChange func(ctx context.Context, paths []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	root = filepath.Clean(root)

	err = addRecursive(watcher, root)
	if err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	timer := time.NewTimer(debounce)
	timer.Stop()

	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			path := filepath.Clean(event.Name)

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if !SkipDir(info.Name()) {
						_ = addRecursive(watcher, path)
					}

					continue
				}
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if !Migratable(path) {
				continue
			}

			pending[path] = true

			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}

			slices.Sort(changed)
			clear(pending)

			onChange(ctx, changed)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			return fmt.Errorf("watch %s: %w", root, watchErr)
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !entry.IsDir() {
			return nil
		}

		if path != root && SkipDir(entry.Name()) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	return nil
}
