package pipeline

import "fmt"

// Stage names recorded in job error messages.
const (
	StageScript    = "script"
	StageNarration = "narration"
	StageVisual    = "visual"
	StageCompose   = "compose"
)

// StageError marks a job-aborting failure with the stage that raised it.
// Stage errors are never retried inside one pipeline attempt; the queue's
// redelivery policy decides what happens next.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
