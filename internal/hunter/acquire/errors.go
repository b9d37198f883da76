package acquire

import (
	"fmt"

	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
)

type Reason string

const (
	ReasonNotStarted Reason = "not-started"
	ReasonExited     Reason = "exited"
	ReasonTimedOut   Reason = "timed-out"
	ReasonNoArtifact Reason = "no-artifact"
)

// Failure is returned for every capture that did not produce an artifact
type Failure struct {
	Target scan.Target
	Reason Reason
	Err    error
	// Head of the recorder stderr
	Stderr string
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("acquire %s: %s", f.Target, f.Reason)
	}
	return fmt.Sprintf("acquire %s: %s: %v", f.Target, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (f *Failure) Is(e error) bool {
	_, ok := e.(*Failure)
	return ok
}
