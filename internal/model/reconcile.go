package model

import (
	"time"
)

// ReconcileMode selects what the reconciler does with each diff bucket.
type ReconcileMode string

const (
	// ModeAudit reports discrepancies and changes nothing.
	ModeAudit ReconcileMode = "audit"
	// ModeSync creates missing records and refreshes stale ones.
	ModeSync ReconcileMode = "sync"
	// ModeClean deletes orphaned records (requires Force).
	ModeClean ReconcileMode = "clean"
	// ModeFull is sync + clean (requires Force).
	ModeFull ReconcileMode = "full"
)

// Valid reports whether m is one of the four known modes.
func (m ReconcileMode) Valid() bool {
	switch m {
	case ModeAudit, ModeSync, ModeClean, ModeFull:
		return true
	}
	return false
}

// Destructive reports whether m deletes index records.
func (m ReconcileMode) Destructive() bool {
	return m == ModeClean || m == ModeFull
}

// ReconcileOptions are the parameters of one reconciliation run. The zero
// value is an all-users audit.
type ReconcileOptions struct {
	Mode   ReconcileMode `json:"mode"`
	UserID string        `json:"userId,omitempty"` // empty = all users
	DryRun bool          `json:"dryRun"`
	Force  bool          `json:"force"` // required for clean/full
}

// ReconcileError is one per-path failure recorded during a run. Failures
// never abort the run; they accumulate here.
type ReconcileError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ReconcileStats is the result of one reconciliation run. Counters are
// purely additive; in dry-run mode they reflect what would have happened.
type ReconcileStats struct {
	UsersScanned    int              `json:"usersScanned"`
	FilesOnDisk     int              `json:"filesOnDisk"`
	FilesInIndex    int              `json:"filesInIndex"`
	MissingInIndex  int              `json:"missingInIndex"`
	OrphanedInIndex int              `json:"orphanedInIndex"`
	RecordsCreated  int              `json:"recordsCreated"`
	RecordsUpdated  int              `json:"recordsUpdated"`
	RecordsDeleted  int              `json:"recordsDeleted"`
	RecordsSkipped  int              `json:"recordsSkipped"`
	SharesDeleted   int              `json:"sharesDeleted"`
	Errors          []ReconcileError `json:"errors"`
}

// Merge folds per-user stats into the run total.
func (s *ReconcileStats) Merge(other ReconcileStats) {
	s.UsersScanned += other.UsersScanned
	s.FilesOnDisk += other.FilesOnDisk
	s.FilesInIndex += other.FilesInIndex
	s.MissingInIndex += other.MissingInIndex
	s.OrphanedInIndex += other.OrphanedInIndex
	s.RecordsCreated += other.RecordsCreated
	s.RecordsUpdated += other.RecordsUpdated
	s.RecordsDeleted += other.RecordsDeleted
	s.RecordsSkipped += other.RecordsSkipped
	s.SharesDeleted += other.SharesDeleted
	s.Errors = append(s.Errors, other.Errors...)
}

// AddError records a per-path failure.
func (s *ReconcileStats) AddError(path, code, message string) {
	s.Errors = append(s.Errors, ReconcileError{Path: path, Code: code, Message: message})
}

// RunStatus is the lifecycle state of a recorded reconciliation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the persisted record of one reconciliation invocation.
type Run struct {
	ID         string           `json:"id"`
	Options    ReconcileOptions `json:"options"`
	Status     RunStatus        `json:"status"`
	Error      string           `json:"error,omitempty"`
	Stats      *ReconcileStats  `json:"stats,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}
