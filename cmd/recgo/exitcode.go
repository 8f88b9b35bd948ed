package main

import (
	"errors"

	"github.com/hupe1980/recgo"
)

// Process exit codes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
	exitMissingData  = 3
	exitCollaborator = 4
)

// exitCode maps an error category to a process exit code. An empty result
// is not an error and exits 0.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, recgo.ErrInvalidIntent), errors.Is(err, recgo.ErrConfiguration):
		return exitInvalidInput
	case errors.Is(err, recgo.ErrMissingArtifact):
		return exitMissingData
	case errors.Is(err, recgo.ErrCollaborator):
		return exitCollaborator
	default:
		return exitFailure
	}
}
