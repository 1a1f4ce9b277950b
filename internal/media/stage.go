package media

import "fmt"

// Stage names the step of an audio-processing request that is currently
// running. A request moves Idle → Transcoding (optional) → Uploading →
// AwaitingModelResponse → Done, or jumps straight to Failed with the
// originating stage recorded. There is no retry or resume.
type Stage int

const (
	StageIdle Stage = iota
	StageTranscoding
	StageUploading
	StageAwaitingModelResponse
	StageDone
	StageFailed
)

var stageNames = map[Stage]string{
	StageIdle:                  "idle",
	StageTranscoding:           "transcoding",
	StageUploading:             "uploading",
	StageAwaitingModelResponse: "awaiting_model_response",
	StageDone:                  "done",
	StageFailed:                "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError records which stage an audio-processing request failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("audio processing failed while %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
