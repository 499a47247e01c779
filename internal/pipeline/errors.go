package pipeline

import (
	"errors"
	"fmt"
)

// NotFoundError reports that the requested case does not exist.
type NotFoundError struct {
	CaseID int64
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("case %d not found", e.CaseID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// PreconditionError reports that a gate blocked generation. It maps to a
// SKIPPED result, not an ERROR.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition not met: %s", e.Reason)
}

// TemplateError reports that no usable template could be resolved.
type TemplateError struct {
	Kind string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template for %s: %v", e.Kind, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// RenderError reports a failure producing the letter markup.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render letter: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// RasterizeError reports a failure or timeout converting markup to PDF.
type RasterizeError struct {
	Err error
}

func (e *RasterizeError) Error() string { return fmt.Sprintf("rasterize letter: %v", e.Err) }

func (e *RasterizeError) Unwrap() error { return e.Err }

// PublishError reports a failure uploading or recording the finished letter.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string { return fmt.Sprintf("publish letter: %v", e.Err) }

func (e *PublishError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a missing-case error.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsPrecondition reports whether err is a blocked-gate error.
func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}
