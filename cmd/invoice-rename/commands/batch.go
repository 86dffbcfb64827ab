package commands

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-renamer/cmd/invoice-rename/ui"
	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/async"
	"github.com/joseph-ayodele/invoice-renamer/internal/rename"
)

// session owns the batch queue plus the presenter and collector goroutines.
// The worker sends events; this side only renders them.
type session struct {
	queue   *async.BatchQueue
	group   errgroup.Group
	results []async.Result
}

func startSession(ctx context.Context, runner async.Runner) *session {
	events := make(chan rename.Event, 64)
	s := &session{queue: async.NewBatchQueue(ctx, runner, logger, async.WithEvents(events))}

	s.group.Go(func() error {
		present(events)
		return nil
	})
	s.group.Go(func() error {
		// events has a single sender, the worker, which is gone once Results closes
		defer close(events)
		var first error
		for res := range s.queue.Results() {
			s.results = append(s.results, res)
			if res.Err != nil && first == nil {
				first = fmt.Errorf("batch %s: %w", res.Batch.ID, res.Err)
			}
		}
		return first
	})
	return s
}

func (s *session) submit(ctx context.Context, req rename.Request) error {
	return s.queue.Enqueue(ctx, async.Batch{Request: req})
}

// finish drains the queue and returns the first batch error.
func (s *session) finish() ([]async.Result, error) {
	s.queue.Shutdown(context.Background())
	err := s.group.Wait()
	return s.results, err
}

func present(events <-chan rename.Event) {
	var bar *ui.ProgressBar
	for ev := range events {
		switch ev.Kind {
		case rename.EventFileStart:
			if bar == nil {
				bar = ui.NewProgressBar(int64(ev.Total), "处理中")
			}
			bar.Describe(ev.Message)
		case rename.EventFileDone:
			if bar != nil {
				bar.Clear()
			}
			if ev.Job != nil && ev.Job.Status == constants.JobStatusFailed {
				ui.Error("%s (%s)", ev.Message, ev.Job.Name)
			} else {
				ui.Success("%s", ev.Message)
			}
			if bar != nil {
				bar.Set(int64(ev.Index + 1))
			}
		case rename.EventFinished:
			if bar != nil {
				bar.Finish()
				bar = nil
			}
			if ev.Summary.Canceled {
				ui.Warning("已取消，剩余文件未处理")
			}
			ui.Success("%s", ev.Message)
			if ev.Summary.Failed > 0 {
				ui.Warning("失败%d个", ev.Summary.Failed)
			}
			if ev.Summary.JournalPath != "" {
				ui.Info("处理记录：%s", ev.Summary.JournalPath)
			}
			if ev.Summary.ReportPath != "" {
				ui.Info("处理报告：%s", ev.Summary.ReportPath)
			}
		default:
			ui.Info("%s", ev.Message)
		}
	}
	if bar != nil {
		bar.Clear()
	}
}
