package analyzer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyImage          = errors.New("image is empty")
	ErrDetectorUnavailable = errors.New("detector unavailable")
	ErrDetection           = errors.New("detection failed")
)

// AnalysisError is a request-level failure tagged with the stage that produced it.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) error {
	return &AnalysisError{Stage: stage, Err: err}
}
