// ./main_test.go
package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

// Verifies a panic is captured into the crash log with its stack trace, and
// the process exits non-zero.
func TestHandlePanicWritesCrashLog(t *testing.T) {
	var writtenPath string
	var written []byte
	exitCode := -1
	osWriteFile = func(name string, data []byte, perm os.FileMode) error {
		writtenPath = name
		written = data
		return nil
	}
	osExit = func(code int) { exitCode = code }
	defer resetMocks()

	func() {
		defer handlePanic()
		panic("boom")
	}()

	assert.Equal(t, panicLogFile, writtenPath)
	assert.Contains(t, string(written), "panic: boom")
	assert.Contains(t, string(written), "goroutine")
	assert.Equal(t, 1, exitCode)
}

// Verifies the fallback path when even the crash log cannot be written.
func TestHandlePanicWriteFailureFallsBack(t *testing.T) {
	osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("disk full") }
	exitCode := -1
	osExit = func(code int) { exitCode = code }
	defer resetMocks()

	func() {
		defer handlePanic()
		panic("boom")
	}()

	assert.Equal(t, 1, exitCode)
}

// Verifies a clean return leaves no crash log behind.
func TestHandlePanicNoopWithoutPanic(t *testing.T) {
	called := false
	osWriteFile = func(string, []byte, os.FileMode) error {
		called = true
		return nil
	}
	defer resetMocks()

	func() {
		defer handlePanic()
	}()

	assert.False(t, called)
}

// Verifies a failing command leaves the interactive shell alive.
func TestExecuteInteractiveCommandSurvivesErrors(t *testing.T) {
	// An unknown command prints its error and returns; reaching the end of
	// the test is the assertion.
	executeInteractiveCommand(context.Background(), "teleport --now")
}
