package core

import (
	"errors"
)

var (
	// ErrInvalidHandle is returned when a frame graph handle does not belong
	// to the current recording session.
	ErrInvalidHandle = errors.New("handle does not belong to the current frame")
	// ErrNotRecording is returned when a recording-only operation is invoked
	// while the graph is not between BeginFrame and Compile.
	ErrNotRecording = errors.New("graph is not in the recording state")
	// ErrAlreadyCompiled is returned when Compile is called twice in the same frame.
	ErrAlreadyCompiled = errors.New("graph was already compiled this frame")
	// ErrNotCompiled is returned when Execute is called before Compile.
	ErrNotCompiled = errors.New("graph was not compiled")
	// ErrGraphCycle is returned when pass declarations form a dependency cycle.
	ErrGraphCycle = errors.New("pass dependencies form a cycle")
	// ErrOutOfMemory is returned when the backend cannot grow the transient heap.
	ErrOutOfMemory = errors.New("backend allocation failed")
)
