package drivestore

import (
	"database/sql"
	"time"

	"github.com/datadrive/reclaimerd/internal/drivemodel"
)

// baseColumns are the row-identity, quadruple, window and lifecycle
// columns every query selects.
var baseColumns = []string{
	"PIPELINE_ID", "PIPELINE_NAME", "SOURCE_NAME", "SOURCE_CATEGORY", "SOURCE_SUB_TYPE",
	"QUERY_WINDOW_START_TIME", "QUERY_WINDOW_END_TIME",
	"PIPELINE_STATUS", "PIPELINE_START_TIME", "PIPELINE_END_TIME", "PIPELINE_DURATION",
	"PIPELINE_EXP_DURATION", "RETRY_ATTEMPT_NUMBER",
	"CONTINUITY_CHECK_PERFORMED", "CAN_FETCH_HISTORICAL_DATA",
}

// phaseColumnSuffixes are the five columns each phase prefix expands to.
var phaseColumnSuffixes = []string{"_ENABLED", "_STATUS", "_START_TS", "_END_TS", "_DURATION"}

// allColumns returns every column this package reads or writes, base
// columns first, then each phase's five columns in drivemodel.PhaseOrder.
func allColumns() []string {
	cols := append([]string{}, baseColumns...)
	for _, name := range drivemodel.PhaseOrder {
		for _, suffix := range phaseColumnSuffixes {
			cols = append(cols, string(name)+suffix)
		}
	}
	return cols
}

// baseScan holds the scan destinations for baseColumns.
type baseScan struct {
	pipelineID     string
	pipelineName   string
	sourceName     string
	sourceCategory string
	sourceSubType  string

	windowStart time.Time
	windowEnd   time.Time

	status      string
	startTime   sql.NullTime
	endTime     sql.NullTime
	duration    sql.NullInt64
	expDuration string
	retryCount  int

	continuityCheck string
	canFetchHistory string
}

// phaseScan holds the scan destinations for one phase's five columns.
type phaseScan struct {
	enabled  bool
	status   sql.NullString
	startTS  sql.NullTime
	endTS    sql.NullTime
	duration sql.NullInt64
}

// rowScanner binds a row of allColumns() to Go destinations and
// converts them into a drivemodel.Row.
type rowScanner struct {
	base   baseScan
	phases map[drivemodel.PhaseName]*phaseScan
}

func newRowScanner() *rowScanner {
	phases := make(map[drivemodel.PhaseName]*phaseScan, len(drivemodel.PhaseOrder))
	for _, name := range drivemodel.PhaseOrder {
		phases[name] = &phaseScan{}
	}
	return &rowScanner{phases: phases}
}

// targets returns, in allColumns() order, the pointers Scan should
// populate.
func (s *rowScanner) targets() []any {
	b := &s.base
	targets := []any{
		&b.pipelineID, &b.pipelineName, &b.sourceName, &b.sourceCategory, &b.sourceSubType,
		&b.windowStart, &b.windowEnd,
		&b.status, &b.startTime, &b.endTime, &b.duration,
		&b.expDuration, &b.retryCount,
		&b.continuityCheck, &b.canFetchHistory,
	}
	for _, name := range drivemodel.PhaseOrder {
		p := s.phases[name]
		targets = append(targets, &p.enabled, &p.status, &p.startTS, &p.endTS, &p.duration)
	}
	return targets
}

// row converts the scanned destinations into a drivemodel.Row.
func (s *rowScanner) row() drivemodel.Row {
	b := s.base

	row := drivemodel.Row{
		PipelineID:               b.pipelineID,
		PipelineName:             b.pipelineName,
		SourceName:               b.sourceName,
		SourceCategory:           b.sourceCategory,
		SourceSubType:            b.sourceSubType,
		QueryWindowStartTime:     b.windowStart,
		QueryWindowEndTime:       b.windowEnd,
		PipelineStatus:           drivemodel.Status(b.status),
		PipelineExpDuration:      b.expDuration,
		RetryAttemptNumber:       b.retryCount,
		ContinuityCheckPerformed: b.continuityCheck,
		CanFetchHistoricalData:   b.canFetchHistory,
		Phases:                   make(map[drivemodel.PhaseName]drivemodel.Phase, len(drivemodel.PhaseOrder)),
	}
	if b.startTime.Valid {
		t := b.startTime.Time
		row.PipelineStartTime = &t
	}
	if b.endTime.Valid {
		t := b.endTime.Time
		row.PipelineEndTime = &t
	}
	if b.duration.Valid {
		d := b.duration.Int64
		row.PipelineDuration = &d
	}

	for _, name := range drivemodel.PhaseOrder {
		p := s.phases[name]
		phase := drivemodel.Phase{Enabled: p.enabled}
		if p.status.Valid {
			status := drivemodel.PhaseStatus(p.status.String)
			phase.Status = &status
		}
		if p.startTS.Valid {
			t := p.startTS.Time
			phase.StartTS = &t
		}
		if p.endTS.Valid {
			t := p.endTS.Time
			phase.EndTS = &t
		}
		if p.duration.Valid {
			d := p.duration.Int64
			phase.Duration = &d
		}
		row.Phases[name] = phase
	}

	return row
}

// insertArgs returns the pgx.NamedArgs binding for row, keyed by the
// same column names allColumns() lists, for INSERT statements.
func insertArgs(row drivemodel.Row) map[string]any {
	args := map[string]any{
		"PIPELINE_ID":                row.PipelineID,
		"PIPELINE_NAME":              row.PipelineName,
		"SOURCE_NAME":                row.SourceName,
		"SOURCE_CATEGORY":            row.SourceCategory,
		"SOURCE_SUB_TYPE":            row.SourceSubType,
		"QUERY_WINDOW_START_TIME":    row.QueryWindowStartTime,
		"QUERY_WINDOW_END_TIME":      row.QueryWindowEndTime,
		"PIPELINE_STATUS":            string(row.PipelineStatus),
		"PIPELINE_START_TIME":        nullableTime(row.PipelineStartTime),
		"PIPELINE_END_TIME":          nullableTime(row.PipelineEndTime),
		"PIPELINE_DURATION":          nullableInt64(row.PipelineDuration),
		"PIPELINE_EXP_DURATION":      row.PipelineExpDuration,
		"RETRY_ATTEMPT_NUMBER":       row.RetryAttemptNumber,
		"CONTINUITY_CHECK_PERFORMED": row.ContinuityCheckPerformed,
		"CAN_FETCH_HISTORICAL_DATA":  row.CanFetchHistoricalData,
	}

	for _, name := range drivemodel.PhaseOrder {
		phase := row.Phase(name)
		prefix := string(name)
		args[prefix+"_ENABLED"] = phase.Enabled
		args[prefix+"_STATUS"] = nullablePhaseStatus(phase.Status)
		args[prefix+"_START_TS"] = nullableTime(phase.StartTS)
		args[prefix+"_END_TS"] = nullableTime(phase.EndTS)
		args[prefix+"_DURATION"] = nullableInt64(phase.Duration)
	}

	return args
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableInt64(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullablePhaseStatus(s *drivemodel.PhaseStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}
