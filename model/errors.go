package model

import (
	"errors"
	"fmt"
	"math"
)

// Error categories. Every typed error below matches exactly one of them via errors.Is.
var (
	// ErrInvalidIntent marks malformed or incomplete intents.
	ErrInvalidIntent = errors.New("invalid intent")
	// ErrMissingArtifact marks absent or inconsistent static artifacts.
	ErrMissingArtifact = errors.New("missing artifact")
	// ErrIndexNotReady is returned when an index is searched before it was built.
	ErrIndexNotReady = errors.New("index not ready")
	// ErrDimensionMismatch marks vector width mismatches.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyCandidates is returned when hard filters remove every candidate.
	ErrEmptyCandidates = errors.New("all candidates removed by hard filters")
	// ErrConfiguration marks invalid configuration values.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrCollaborator marks failures of external collaborators such as the text encoder.
	ErrCollaborator = errors.New("collaborator failure")
)

// InvalidIntentError indicates a malformed intent.
type InvalidIntentError struct {
	Field  string
	Reason string
}

func (e *InvalidIntentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid intent: %s", e.Reason)
	}
	return fmt.Sprintf("invalid intent: %s: %s", e.Field, e.Reason)
}

// Is reports category membership.
func (e *InvalidIntentError) Is(target error) bool { return target == ErrInvalidIntent }

// MissingArtifactError indicates a required static artifact is absent or inconsistent.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type MissingArtifactError struct {
	Name   string
	Reason string
	cause  error
}

// NewMissingArtifactError wraps cause (which may be nil).
func NewMissingArtifactError(name, reason string, cause error) *MissingArtifactError {
	return &MissingArtifactError{Name: name, Reason: reason, cause: cause}
}

func (e *MissingArtifactError) Error() string {
	msg := fmt.Sprintf("missing artifact %q: %s", e.Name, e.Reason)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *MissingArtifactError) Unwrap() error { return e.cause }

// Is reports category membership.
func (e *MissingArtifactError) Is(target error) bool { return target == ErrMissingArtifact }

// DimensionMismatchError indicates a vector/query dimensionality mismatch.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports category membership.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

// EmptyCandidateError reports how many candidates were removed by hard filtering.
type EmptyCandidateError struct {
	Retrieved int
}

func (e *EmptyCandidateError) Error() string {
	return fmt.Sprintf("all %d candidates removed by hard filters", e.Retrieved)
}

// Is reports category membership.
func (e *EmptyCandidateError) Is(target error) bool { return target == ErrEmptyCandidates }

// ConfigurationError indicates an invalid configuration value.
type ConfigurationError struct {
	Option string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Option, e.Value, e.Reason)
}

// Is reports category membership.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// CollaboratorError attributes a failure to an external collaborator.
//
// The original underlying error can be accessed via errors.Unwrap.
type CollaboratorError struct {
	Collaborator string
	cause        error
}

// NewCollaboratorError wraps cause.
func NewCollaboratorError(collaborator string, cause error) *CollaboratorError {
	return &CollaboratorError{Collaborator: collaborator, cause: cause}
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.cause)
}

func (e *CollaboratorError) Unwrap() error { return e.cause }

// Is reports category membership.
func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaborator }

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
