package rename

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/cascade"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/dedupe"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/ingest"
	"github.com/joseph-ayodele/invoice-renamer/internal/parse"
	"github.com/joseph-ayodele/invoice-renamer/internal/report"
)

// Extractor runs the cascade over one document.
type Extractor interface {
	Run(ctx context.Context, path string) cascade.Outcome
}

// Request describes one batch.
type Request struct {
	Source  string
	Labels  []string // only used for the workbook columns
	Dedupe  bool
	Journal bool
	Report  bool
	Only    []string // restrict the batch to these file names
}

type Pipeline struct {
	extractor Extractor
	table     fields.Table
	logger    *slog.Logger
	now       func() time.Time
	dedupe    *dedupe.Filter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now for the collision suffix.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPipeline(extractor Extractor, table fields.Table, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		extractor: extractor,
		table:     table,
		logger:    logger,
		now:       time.Now,
		dedupe:    dedupe.NewFilter(logger),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run backs up req.Source, renames every copy and returns the counters.
// Events, when non-nil, receives progress and is not closed. Only setup
// failures are returned as errors; per-file failures are counted. ctx is
// checked before each document, never in the middle of one.
func (p *Pipeline) Run(ctx context.Context, req Request, events chan<- Event) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: common.RunIDFromContext(ctx), Source: req.Source}
	if sum.RunID == "" {
		sum.RunID = uuid.New().String()
		ctx = common.WithRunID(ctx, sum.RunID)
	}
	logger := p.logger.With("run_id", sum.RunID)
	emit := func(e Event) {
		if events == nil {
			return
		}
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	st, err := os.Stat(req.Source)
	if err != nil || !st.IsDir() {
		logger.Error("rename.source_missing", "source", req.Source, "error", err)
		return sum, common.NewAppError(common.CodeIO, "source directory not found: "+req.Source, common.ErrNotFound)
	}
	emit(Event{Kind: EventStarted, Message: "开始处理目录：" + req.Source})

	backup, err := CreateBackupDir(req.Source)
	if err != nil {
		logger.Error("rename.backup_failed", "source", req.Source, "error", err)
		return sum, common.NewAppError(common.CodeBackup, "cannot create backup directory", err)
	}
	sum.BackupDir = backup
	logger.Info("rename.backup_dir", "dir", backup)
	emit(Event{Kind: EventBackup, Message: "备份目录为：" + backup})

	copied, err := CopyFiles(req.Source, backup, req.Only)
	sum.Copied = copied
	if err != nil {
		logger.Error("rename.copy_failed", "source", req.Source, "backup", backup, "copied", copied, "error", err)
		return sum, common.NewAppError(common.CodeCopy, "cannot copy files to backup directory", err)
	}
	logger.Info("rename.copied", "count", copied, "backup", backup)
	emit(Event{Kind: EventCopied, Message: fmt.Sprintf("已备份%d个文件到：%s", copied, backup)})

	if req.Dedupe {
		rep, err := p.dedupe.Run(ctx, backup)
		if err != nil {
			logger.Warn("rename.dedupe_failed", "error", err)
		} else {
			sum.Deduped = len(rep.Removed)
			emit(Event{Kind: EventDeduped, Message: rep.Message()})
		}
	}

	docs, _, err := ingest.ListDocuments(backup, true)
	if err != nil {
		return sum, common.NewAppError(common.CodeIO, "cannot list backup directory", err)
	}

	var journal *report.Journal
	if req.Journal {
		sum.JournalPath = filepath.Join(backup, constants.JournalFileName)
		journal, err = report.OpenJournal(ctx, sum.JournalPath, logger)
		if err != nil {
			// the rename itself does not depend on the journal
			logger.Warn("rename.journal_unavailable", "error", err)
			sum.JournalPath = ""
		} else {
			defer func() {
				if err := journal.Close(); err != nil {
					logger.Warn("rename.journal_close_failed", "error", err)
				}
			}()
		}
	}

	for i, d := range docs {
		if ctx.Err() != nil {
			sum.Canceled = true
			logger.Warn("rename.canceled", "processed", sum.Total, "remaining", len(docs)-i)
			break
		}
		emit(Event{Kind: EventFileStart, Message: "处理文件：" + d.Name, Index: i, Total: len(docs)})

		job := p.process(ctx, logger, i, d, req.Source, backup)
		sum.Total++
		switch job.Status {
		case constants.JobStatusRenamed:
			sum.Succeeded++
		case constants.JobStatusCollision:
			sum.Succeeded++
			sum.Collisions++
		default:
			sum.Failed++
		}
		sum.Jobs = append(sum.Jobs, job)

		if journal != nil {
			// detached from ctx so a cancel still records the last document
			if err := journal.Record(context.WithoutCancel(ctx), job.Row(sum.RunID)); err != nil {
				logger.Warn("rename.journal_record_failed", "file", d.Name, "error", err)
			}
		}
		jc := job
		emit(Event{Kind: EventFileDone, Message: jobMessage(job), Index: i, Total: len(docs), Job: &jc, Summary: sum.snapshot()})
	}

	if req.Report {
		sum.ReportPath = filepath.Join(backup, constants.ReportFileName)
		rows := make([]report.Row, len(sum.Jobs))
		for i, j := range sum.Jobs {
			rows[i] = j.Row(sum.RunID)
		}
		if err := report.WriteXLSX(sum.ReportPath, p.table, req.Labels, rows, logger); err != nil {
			logger.Warn("rename.report_failed", "error", err)
			sum.ReportPath = ""
		}
	}

	logger.Info("rename.done",
		"total", sum.Total,
		"succeeded", sum.Succeeded,
		"collisions", sum.Collisions,
		"failed", sum.Failed,
		"canceled", sum.Canceled,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	emit(Event{Kind: EventFinished, Message: finishedMessage(sum), Total: len(docs), Summary: sum.snapshot()})
	return sum, nil
}

// process runs one document. It never returns an error: failures end up in the job.
func (p *Pipeline) process(ctx context.Context, logger *slog.Logger, i int, d ingest.Document, source, backup string) Job {
	start := time.Now()
	job := Job{
		Index:  i,
		Name:   d.Name,
		Source: filepath.Join(source, d.Name),
		Backup: d.Path,
		Status: constants.JobStatusPending,
	}
	if !d.Supported {
		job.Status = constants.JobStatusFailed
		job.Err = "unsupported"
		logger.Warn("rename.file.unsupported", "file", d.Name)
		return job
	}

	out := p.extractor.Run(ctx, d.Path)
	job.Result = out.Result
	job.Values = out.Values
	job.Joined = out.Joined
	job.Strategy = out.State
	job.SecondChance = out.SecondChance
	job.Items = parse.ExtractLineItems(out.Text())
	job.Status = constants.JobStatusExtracted

	ext := filepath.Ext(d.Name)
	base := strings.TrimSpace(SanitizeFilename(out.Joined))
	if base == "" {
		base = UnnamedBase
	}
	job.Candidate = base + ext

	final, collided := resolveCollision(backup, base, ext, d.Path, p.now())
	if collided {
		logger.Info("rename.file.collision", "file", d.Name, "candidate", job.Candidate, "final", final)
	}

	if err := os.Rename(d.Path, filepath.Join(backup, final)); err != nil {
		job.Status = constants.JobStatusFailed
		job.Err = err.Error()
		job.Elapsed = time.Since(start)
		logger.Error("rename.file.failed", "file", d.Name, "target", final, "error", err)
		return job
	}
	job.Final = final
	job.Backup = filepath.Join(backup, final)
	job.Status = constants.JobStatusRenamed
	if collided {
		job.Status = constants.JobStatusCollision
	}
	job.Elapsed = time.Since(start)
	logger.Info("rename.file.ok",
		"file", d.Name,
		"final", final,
		"state", out.State.String(),
		"second_chance", out.SecondChance,
		"elapsed_ms", job.Elapsed.Milliseconds(),
	)
	return job
}

func (s Summary) snapshot() Summary {
	s.Jobs = nil
	return s
}

func jobMessage(j Job) string {
	switch j.Status {
	case constants.JobStatusRenamed:
		return fmt.Sprintf("重命名成功: %s -> %s", j.Name, j.Final)
	case constants.JobStatusCollision:
		return fmt.Sprintf("文件名冲突，加时间戳: %s -> %s", j.Candidate, j.Final)
	default:
		return "重命名失败: " + j.Err
	}
}
