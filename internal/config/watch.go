package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchNotify watches path and logs a notice whenever it changes on disk.
// It does not reload or hot-apply anything: configuration is fixed for the
// life of a running process, so a changed file only takes effect on the
// next restart. The watch exists purely so an operator who edits the file
// sees confirmation it was noticed. Returns a stop function; the caller is
// responsible for calling it during shutdown.
func WatchNotify(path string, log zerolog.Logger) (stop func(), err error) {
	if path == "" {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
					log.Info().Str("path", path).Str("op", event.Op.String()).
						Msg("config file changed on disk, restart to apply")
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(werr).Str("path", path).Msg("config watch error")
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
