package model

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Reload is a price table reload result delivered by Watch.
// Exactly one of Catalog and Err is set.
type Reload struct {
	Catalog *Catalog
	Err     error
}

// Watch reloads the price table at path whenever it is written or created
// (including being renamed into place), and delivers each result on the returned channel.
// The channel is closed when ctx is done.
//
// Existing Catalogs are never mutated; callers start a new session with the
// reloaded Catalog.
func Watch(ctx context.Context, path string) (<-chan Reload, error) {
	if _, err := FormatForPath(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create price table watcher: %w", err)
	}

	// Watch the directory; editors often replace the file rather than write it.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	ch := make(chan Reload, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		watchLoop(ctx, watcher, path, ch)
	}()
	return ch, nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, ch chan<- Reload) {
	baseName := filepath.Base(path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != baseName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cat, err := LoadFile(path)
			if err != nil {
				slog.Warn("price table reload failed",
					slog.String("path", path),
					slog.Any("error", err))
			}
			select {
			case ch <- Reload{Catalog: cat, Err: err}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			select {
			case ch <- Reload{Err: fmt.Errorf("watch price table: %w", err)}:
			case <-ctx.Done():
				return
			}
		}
	}
}
