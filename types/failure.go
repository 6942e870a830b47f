package types

import "fmt"

// FailureKind classifies a stage failure so the orchestrator (or a future
// retry policy) can tell invalid input apart from a flaky backend. Stages
// return errors, never sentinel values.
type FailureKind string

const (
	FailureInvalidInput FailureKind = "invalid_input" // bad/empty task fields, unparseable model output
	FailureTransient    FailureKind = "transient"     // network/API errors worth retrying later
	FailureNotFound     FailureKind = "not_found"     // an expected artifact is missing on disk
	FailureExternal     FailureKind = "external"      // a subprocess or remote service failed outright
)

// StageFailure wraps an error with the stage that produced it and its kind.
type StageFailure struct {
	Stage string
	Kind  FailureKind
	Err   error
}

func (f *StageFailure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Stage, f.Kind, f.Err)
}

func (f *StageFailure) Unwrap() error { return f.Err }

// Fail builds a StageFailure.
func Fail(stage string, kind FailureKind, err error) *StageFailure {
	return &StageFailure{Stage: stage, Kind: kind, Err: err}
}
