// Package report persists what a rename run did: an append-only sqlite
// journal and an XLSX workbook, both written inside the backup directory.
package report

import (
	"time"

	"github.com/joseph-ayodele/invoice-renamer/internal/parse"
)

// Row is one processed document.
type Row struct {
	RunID        string
	Source       string // original file name
	Backup       string // path of the working copy
	Final        string // final file name, empty when the rename failed
	Status       string
	State        string // cascade stage that produced the fields
	Joined       string
	SecondChance bool
	Values       map[string]*string // keyed by internal field key
	Items        []parse.LineItem
	Err          string
	ElapsedMS    int64
	At           time.Time
}
