package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration file at path every time it is written and
// delivers each valid result on the returned channel. Files that fail to load
// are reported to onErr, which may be nil, and otherwise skipped. The channel
// holds at most one pending config: a newer reload replaces an unread one.
// The channel is closed once ctx is done.
func Watch(ctx context.Context, path string, onErr func(error)) (<-chan Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors commonly save by renaming over the file, which would
	// silently end a watch on the file itself.
	err = w.Add(filepath.Dir(abs))
	if err != nil {
		w.Close()
		return nil, err
	}
	if onErr == nil {
		onErr = func(error) {}
	}
	ch := make(chan Config, 1)
	go func() {
		defer close(ch)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				onErr(err)
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					onErr(err)
					continue
				}
				select {
				case ch <- cfg:
				default:
					select {
					case <-ch:
					default:
					}
					ch <- cfg
				}
			}
		}
	}()
	return ch, nil
}
