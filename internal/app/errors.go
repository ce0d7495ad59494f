package app

import (
	"errors"
	"fmt"
)

// Runtime errors.
var (
	// ErrAlreadyRunning indicates Run was called a second time.
	ErrAlreadyRunning = errors.New("runtime already running")

	// ErrNotInitialized indicates Run was called before Init.
	ErrNotInitialized = errors.New("runtime not initialized")

	// ErrUnknownCommand indicates no command has the given name.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCommandExists indicates a command name is already taken.
	ErrCommandExists = errors.New("command already exists")

	// ErrCommandVetoed indicates a command.pre handler stopped the command.
	ErrCommandVetoed = errors.New("command vetoed")

	// ErrNotDirectory indicates a cd target is missing or not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrHistoryEnd indicates there is no further history entry.
	ErrHistoryEnd = errors.New("no more history")
)

// InitError wraps a failure while constructing or starting the runtime.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// CommandError reports a failed command.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
