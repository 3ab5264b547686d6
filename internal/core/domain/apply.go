package domain

// Stage identifies one step of the apply state machine. An apply walks
// the stages in order; any stage can fail, and a failure stops the walk.
type Stage string

const (
	StageValidating       Stage = "validating"
	StageConfiguringCLI   Stage = "configuring-cli"
	StageResolvingProject Stage = "resolving-project"
	StagePurging          Stage = "purging"
	StagePersisting       Stage = "persisting"
	StagePropagating      Stage = "propagating"
)

// Stages returns the apply stages in execution order.
func Stages() []Stage {
	return []Stage{
		StageValidating,
		StageConfiguringCLI,
		StageResolvingProject,
		StagePurging,
		StagePersisting,
		StagePropagating,
	}
}

// StageStatus records how far a single stage got.
type StageStatus string

const (
	StageCompleted  StageStatus = "completed"
	StageSkipped    StageStatus = "skipped"
	StageFailed     StageStatus = "failed"
	StageNotReached StageStatus = "not-reached"
)

// StageOutcome pairs a stage with its terminal status and an optional
// human-readable detail line.
type StageOutcome struct {
	Stage  Stage
	Status StageStatus
	Detail string
}

// ApplyOptions controls a single apply operation.
type ApplyOptions struct {
	// MachineWide persists to the machine scope instead of the user scope.
	// Validated against the current privilege level before any side effect.
	MachineWide bool
	// Purge removes the profile's own configuration entry before applying.
	Purge bool
	// DeepPurge additionally removes cached credentials (ADC, legacy
	// credentials, token databases). Implies Purge.
	DeepPurge bool
	// SafeRevoke revokes all active credentials in the isolated context
	// before reconfiguring.
	SafeRevoke bool
}

// PurgeMode returns the purge mode the options ask for.
func (o ApplyOptions) PurgeMode() (PurgeMode, bool) {
	switch {
	case o.DeepPurge:
		return PurgeDeep, true
	case o.Purge:
		return PurgeShallow, true
	default:
		return "", false
	}
}

// PropagationResult reports whether persisted variables reached the live
// shell session, as distinct from durable persistence.
type PropagationResult struct {
	// LiveSessionUpdated is true only when the running session could be
	// updated in place. On POSIX this is always false: the shell must
	// re-source its startup file.
	LiveSessionUpdated bool
	// ScriptPath is the one-shot handoff script the launching wrapper must
	// execute, when one was written. Empty when nothing needs executing.
	ScriptPath string
	// Hint tells the user what, if anything, they must do themselves.
	Hint string
}

// ApplyResult enumerates exactly how far an apply operation got, stage by
// stage, so callers can report partial progress precisely.
type ApplyResult struct {
	Profile     string
	ConfigID    string
	Scope       Scope
	Stages      []StageOutcome
	Project     ProjectIdentity
	Purge       *PurgeReport
	Propagation PropagationResult
	Err         error
}

// NewApplyResult seeds a result with every stage marked not-reached.
func NewApplyResult(profile, configID string, scope Scope) *ApplyResult {
	stages := Stages()
	outcomes := make([]StageOutcome, len(stages))
	for i, s := range stages {
		outcomes[i] = StageOutcome{Stage: s, Status: StageNotReached}
	}
	return &ApplyResult{
		Profile:  profile,
		ConfigID: configID,
		Scope:    scope,
		Stages:   outcomes,
	}
}

func (r *ApplyResult) outcome(stage Stage) *StageOutcome {
	for i := range r.Stages {
		if r.Stages[i].Stage == stage {
			return &r.Stages[i]
		}
	}
	return nil
}

// Complete marks a stage as completed.
func (r *ApplyResult) Complete(stage Stage, detail string) {
	if o := r.outcome(stage); o != nil {
		o.Status = StageCompleted
		o.Detail = detail
	}
}

// Skip marks a stage as deliberately skipped.
func (r *ApplyResult) Skip(stage Stage, detail string) {
	if o := r.outcome(stage); o != nil {
		o.Status = StageSkipped
		o.Detail = detail
	}
}

// Fail marks a stage as failed and records the error on the result.
func (r *ApplyResult) Fail(stage Stage, err error) *ApplyResult {
	if o := r.outcome(stage); o != nil {
		o.Status = StageFailed
		o.Detail = err.Error()
	}
	r.Err = err
	return r
}

// Outcome returns the recorded outcome for a stage.
func (r *ApplyResult) Outcome(stage Stage) StageOutcome {
	if o := r.outcome(stage); o != nil {
		return *o
	}
	return StageOutcome{Stage: stage, Status: StageNotReached}
}

// Applied reports whether the full sequence ran without failure.
func (r *ApplyResult) Applied() bool {
	if r.Err != nil {
		return false
	}
	for _, o := range r.Stages {
		if o.Status == StageFailed || o.Status == StageNotReached {
			return false
		}
	}
	return true
}

// LastCompleted returns the furthest stage that completed, for attaching
// to surfaced errors.
func (r *ApplyResult) LastCompleted() (Stage, bool) {
	var last Stage
	found := false
	for _, o := range r.Stages {
		if o.Status == StageCompleted {
			last = o.Stage
			found = true
		}
	}
	return last, found
}
