package rename

import "fmt"

// EventKind tags a progress event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventBackup
	EventCopied
	EventDeduped
	EventFileStart
	EventFileDone
	EventFinished
)

// Event is a progress notification sent from the worker. Job and Summary are
// copies; the receiver may keep them.
type Event struct {
	Kind    EventKind
	Message string
	Index   int
	Total   int
	Job     *Job
	Summary Summary
}

func finishedMessage(s Summary) string {
	return fmt.Sprintf("全部处理完成。共处理%d个，成功重命名%d个，其中文件名冲突%d个。", s.Total, s.Succeeded, s.Collisions)
}
