package pipeline

import "fmt"

// Stage names the pipeline step a failure originated from. Every value
// maps to one failure class; none are retried — the first stage error
// is terminal for the job.
type Stage string

const (
	StageDirectorySetup Stage = "directory_setup"
	StageAssetResolve   Stage = "asset_resolve"
	StageProbe          Stage = "probe"
	StageClipRender     Stage = "clip_render"
	StageConcatenation  Stage = "concatenation"
	StageMastering      Stage = "mastering"
)

// StageError wraps the originating error with the stage it came from so
// the terminal error event can name both.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// Message is the short human-readable text for the terminal error event.
func (e *StageError) Message() string {
	switch e.Stage {
	case StageDirectorySetup:
		return "Could not prepare working directories"
	case StageAssetResolve:
		return "A scene asset is missing or unreadable"
	case StageProbe:
		return "Could not measure narration duration"
	case StageClipRender:
		return "Scene rendering failed"
	case StageConcatenation:
		return "Joining scenes failed"
	case StageMastering:
		return "Applying background music failed"
	default:
		return "Video creation failed"
	}
}
