package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Root        string        // folder to watch; subfolders (backup dirs) are ignored
	InitialScan bool          // if true, emit the invoices already present
	Debounce    time.Duration // coalesce bursts of create/write events into one batch
	Logger      *slog.Logger
}

// StartWatcher emits batches of invoice paths that landed in Root. Each batch
// is sorted and deduplicated; the channel closes when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan []string, <-chan error, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger
	if cfg.Root == "" {
		logger.Error("ingest.watch.start_failed", "error", "no root provided")
		return nil, nil, errors.New("no root provided")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		logger.Error("ingest.watch.add_failed", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}

	batchCh := make(chan []string, 16)
	errCh := make(chan error, 1)

	pending := map[string]struct{}{}
	if cfg.InitialScan {
		docs, _, err := ListDocuments(cfg.Root, true)
		if err != nil {
			_ = w.Close()
			return nil, nil, err
		}
		for _, d := range docs {
			if d.Supported {
				pending[d.Path] = struct{}{}
			}
		}
	}

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for p := range pending {
			batch = append(batch, p)
		}
		pending = map[string]struct{}{}
		sort.Strings(batch)
		select {
		case batchCh <- batch:
			logger.Info("ingest.watch.batch", "files", len(batch))
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(errCh)
		defer close(batchCh)
		defer func(w *fsnotify.Watcher) {
			if err := w.Close(); err != nil {
				logger.Warn("ingest.watch.close_failed", "error", err)
			}
		}(w)

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		flush()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timerC:
				timerC = nil
				flush()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
					continue
				}
				if !candidate(e.Name) {
					continue
				}
				pending[e.Name] = struct{}{}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				timerC = timer.C
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return batchCh, errCh, nil
}

// candidate keeps visible regular files with an invoice extension. A renamed
// away file no longer exists and is dropped here too.
func candidate(path string) bool {
	if IsHidden(path) || !AllowedExt(filepath.Ext(path)) {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
