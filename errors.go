package recgo

import (
	"errors"

	"github.com/hupe1980/recgo/model"
)

// Error categories, usable with errors.Is.
var (
	ErrInvalidIntent     = model.ErrInvalidIntent
	ErrMissingArtifact   = model.ErrMissingArtifact
	ErrIndexNotReady     = model.ErrIndexNotReady
	ErrDimensionMismatch = model.ErrDimensionMismatch
	ErrEmptyCandidates   = model.ErrEmptyCandidates
	ErrConfiguration     = model.ErrConfiguration
	ErrCollaborator      = model.ErrCollaborator

	// ErrReindexInProgress is returned by Reindex while another rebuild runs.
	ErrReindexInProgress = errors.New("reindex already in progress")
)

// Typed errors carrying context, usable with errors.As.
type (
	InvalidIntentError     = model.InvalidIntentError
	MissingArtifactError   = model.MissingArtifactError
	DimensionMismatchError = model.DimensionMismatchError
	EmptyCandidateError    = model.EmptyCandidateError
	ConfigurationError     = model.ConfigurationError
	CollaboratorError      = model.CollaboratorError
)
