// Package rename backs up a folder of invoices and renames the copies after
// the fields the extraction cascade finds in them.
package rename

import (
	"time"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/cascade"
	"github.com/joseph-ayodele/invoice-renamer/internal/fields"
	"github.com/joseph-ayodele/invoice-renamer/internal/format"
	"github.com/joseph-ayodele/invoice-renamer/internal/parse"
	"github.com/joseph-ayodele/invoice-renamer/internal/report"
)

// Job is one document of a run.
type Job struct {
	Index        int
	Name         string // file name before the rename
	Source       string // original file in the source folder
	Backup       string // working copy inside the backup folder
	Result       fields.Result
	Values       []format.Value
	Joined       string
	Candidate    string
	Final        string
	Status       constants.JobStatus
	Strategy     cascade.State
	SecondChance bool
	Items        []parse.LineItem
	Err          string
	Elapsed      time.Duration
}

// Row converts the job for the journal and the workbook.
func (j Job) Row(runID string) report.Row {
	r := report.Row{
		RunID:        runID,
		Source:       j.Name,
		Backup:       j.Backup,
		Final:        j.Final,
		Status:       string(j.Status),
		Joined:       j.Joined,
		SecondChance: j.SecondChance,
		Items:        j.Items,
		Err:          j.Err,
		ElapsedMS:    j.Elapsed.Milliseconds(),
		At:           time.Now(),
	}
	// unsupported files never reach the cascade and carry no result
	if j.Result.Table().Len() > 0 {
		r.State = j.Strategy.String()
		r.Values = j.Result.Map()
	}
	return r
}

// Summary holds the counters of a run. Collisions are a subset of Succeeded.
type Summary struct {
	RunID       string
	Source      string
	BackupDir   string
	Copied      int
	Deduped     int
	Total       int
	Succeeded   int
	Collisions  int
	Failed      int
	Canceled    bool
	JournalPath string
	ReportPath  string
	Jobs        []Job
}
