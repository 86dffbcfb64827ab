package constants

// JobStatus is the lifecycle status of a single rename job.
type JobStatus string

// Stable values (stored verbatim in the run journal).
const (
	JobStatusPending   JobStatus = "PENDING"   // enumerated in the backup dir
	JobStatusExtracted JobStatus = "EXTRACTED" // cascade finished, name synthesized
	JobStatusRenamed   JobStatus = "RENAMED"   // renamed under the synthesized name
	JobStatusCollision JobStatus = "COLLISION" // renamed with a timestamp suffix
	JobStatusFailed    JobStatus = "FAILED"    // rename or input failure, batch continued
)

// Done reports whether the job reached a terminal status.
func (s JobStatus) Done() bool {
	switch s {
	case JobStatusRenamed, JobStatusCollision, JobStatusFailed:
		return true
	}
	return false
}
