package solver

import "fmt"

// Stage names one step of the per-run pipeline.
type Stage string

const (
	StageUnconfigured      Stage = "UNCONFIGURED"
	StageGeometryLoaded    Stage = "GEOMETRY_LOADED"
	StageMaterialsResolved Stage = "MATERIALS_RESOLVED"
	StageSetupBuilt        Stage = "SETUP_BUILT"
	StageSubmitted         Stage = "SUBMITTED"
	StageCompleted         Stage = "COMPLETED"
	StageFailed            Stage = "FAILED"
)

var stageOrder = map[Stage]int{
	StageUnconfigured:      0,
	StageGeometryLoaded:    1,
	StageMaterialsResolved: 2,
	StageSetupBuilt:        3,
	StageSubmitted:         4,
	StageCompleted:         5,
}

// Run tracks the one-way stage machine of a single device run:
//
//	UNCONFIGURED → GEOMETRY_LOADED → MATERIALS_RESOLVED → SETUP_BUILT →
//	SUBMITTED → COMPLETED | FAILED
//
// A failed run reports the stage it was in plus the underlying cause and is
// never retried.
type Run struct {
	Device string
	Solver string
	stage  Stage
	failed bool
}

// NewRun starts a run in the UNCONFIGURED stage.
func NewRun(device, solver string) *Run {
	return &Run{Device: device, Solver: solver, stage: StageUnconfigured}
}

// Stage returns the current stage.
func (r *Run) Stage() Stage {
	if r.failed {
		return StageFailed
	}
	return r.stage
}

// Advance moves the run forward one stage. Skipping or reversing stages is a
// programmer error.
func (r *Run) Advance(next Stage) {
	if r.failed {
		panic(fmt.Sprintf("solver: advancing failed run %s", r.Device))
	}
	cur, ok1 := stageOrder[r.stage]
	nxt, ok2 := stageOrder[next]
	if !ok1 || !ok2 || nxt != cur+1 {
		panic(fmt.Sprintf("solver: invalid stage transition %s → %s", r.stage, next))
	}
	r.stage = next
}

// Fail marks the run failed and returns the error wrapped with the stage the
// run was in when the failure happened.
func (r *Run) Fail(err error) *StageError {
	stage := r.stage
	r.failed = true
	return &StageError{Device: r.Device, Solver: r.Solver, Stage: stage, Err: err}
}
