// Package types holds shared data structures used across packages.
package types

// Stage is a state of a single exercise build.
type Stage string

const (
	StageLocated  Stage = "located"
	StageExecuted Stage = "executed"
	StageDerived  Stage = "derived"
	StageWritten  Stage = "written"
	StagePackaged Stage = "packaged"
	StageFailed   Stage = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s Stage) Terminal() bool {
	return s == StagePackaged || s == StageFailed
}
