// Package dedupe removes byte-identical invoice files from a folder.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/internal/ingest"
)

// Report lists what a Filter run did.
type Report struct {
	Total   int
	Kept    int
	Removed []string
	Failed  map[string]string
}

// Message mirrors the summary line shown to the user.
func (r Report) Message() string {
	return fmt.Sprintf("共检测到%d个文件，已删除%d个重复文件。", r.Total, len(r.Removed))
}

type Filter struct {
	logger *slog.Logger
	hash   func(path string) (string, error)
}

func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{logger: logger, hash: ingest.HashFile}
}

// Run hashes every regular file directly in dir in name order and deletes every
// file whose content was already seen. The first file per hash is kept.
func (f *Filter) Run(ctx context.Context, dir string) (Report, error) {
	start := time.Now()
	rep := Report{Failed: map[string]string{}}

	docs, _, err := ingest.ListDocuments(dir, false)
	if err != nil {
		return rep, err
	}

	seen := make(map[string]string, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		sum, err := f.hash(d.Path)
		if err != nil {
			f.logger.Warn("dedupe.hash_failed", "path", d.Path, "error", err)
			rep.Failed[d.Name] = err.Error()
			continue
		}
		rep.Total++
		if first, dup := seen[sum]; dup {
			if err := os.Remove(d.Path); err != nil {
				f.logger.Error("dedupe.remove_failed", "path", d.Path, "error", err)
				rep.Failed[d.Name] = err.Error()
				continue
			}
			f.logger.Info("dedupe.removed", "path", d.Path, "duplicate_of", first)
			rep.Removed = append(rep.Removed, d.Name)
			continue
		}
		seen[sum] = d.Name
		rep.Kept++
	}

	f.logger.Info("dedupe.done",
		"dir", dir,
		"total", rep.Total,
		"removed", len(rep.Removed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rep, nil
}
