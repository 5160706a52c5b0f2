// Package drivemodel defines the drive table's work-unit row and the
// enumerations every other package in this repository classifies,
// reads, or rewrites.
package drivemodel

import "time"

// Status is the lifecycle state of a work-unit row.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusInProcess Status = "IN_PROCESS"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// PhaseStatus is the lifecycle state of a single transfer/audit phase.
type PhaseStatus string

const (
	PhaseStatusPending   PhaseStatus = "PENDING"
	PhaseStatusInProcess PhaseStatus = "IN_PROCESS"
	PhaseStatusCompleted PhaseStatus = "COMPLETED"
	PhaseStatusFailed    PhaseStatus = "FAILED"
)

// PhaseName identifies one of the five fixed phases a row carries; the
// resetter and drive store walk them in PhaseOrder.
type PhaseName string

const (
	PhaseSrcStgXfer  PhaseName = "SRC_STG_XFER"
	PhaseSrcStgAudit PhaseName = "SRC_STG_AUDIT"
	PhaseStgTgtXfer  PhaseName = "STG_TGT_XFER"
	PhaseStgTgtAudit PhaseName = "STG_TGT_AUDIT"
	PhaseSrcTgtAudit PhaseName = "SRC_TGT_AUDIT"
)

// PhaseOrder is the fixed, stable iteration order used by every
// component that walks all five phases.
var PhaseOrder = []PhaseName{
	PhaseSrcStgXfer,
	PhaseSrcStgAudit,
	PhaseStgTgtXfer,
	PhaseStgTgtAudit,
	PhaseSrcTgtAudit,
}

// Phase is one transfer or audit step's state within a row.
type Phase struct {
	Enabled  bool
	Status   *PhaseStatus
	StartTS  *time.Time
	EndTS    *time.Time
	Duration *int64 // seconds
}

// Row is one work unit tracked by the drive table. Field names mirror
// the table's columns so drivestore's scan/bind code reads as a
// straight column list.
type Row struct {
	PipelineID string

	PipelineName    string
	SourceName      string
	SourceCategory  string
	SourceSubType   string

	QueryWindowStartTime time.Time
	QueryWindowEndTime   time.Time

	PipelineStatus      Status
	PipelineStartTime   *time.Time
	PipelineEndTime     *time.Time
	PipelineDuration    *int64 // seconds
	PipelineExpDuration string
	RetryAttemptNumber  int

	Phases map[PhaseName]Phase

	// ContinuityCheckPerformed and CanFetchHistoricalData are stored as
	// the literal "YES"/"NO" strings the drive table's other writers
	// populate, not booleanized, since the column is a shared varchar
	// flag.
	ContinuityCheckPerformed string
	CanFetchHistoricalData   string
}

// Phase returns the named phase, or the zero Phase if the row has no
// entry for it (treated as disabled).
func (r Row) Phase(name PhaseName) Phase {
	if r.Phases == nil {
		return Phase{}
	}
	return r.Phases[name]
}

// WithPhase returns a copy of r with phase name replaced by p. The
// receiver is never mutated.
func (r Row) WithPhase(name PhaseName, p Phase) Row {
	phases := make(map[PhaseName]Phase, len(r.Phases))
	for k, v := range r.Phases {
		phases[k] = v
	}
	phases[name] = p
	r.Phases = phases
	return r
}
