// ./main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/xkilldash9x/winpilot-cli/cmd"
	"github.com/xkilldash9x/winpilot-cli/internal/observability"
)

const panicLogFile = "panic.log"

const asciiArt = `
    ______
   |  __  |      "A menu bar is an API
   | |__| |       with worse docs."
   |  __  |
   | |  | |     [ winpilot-cli v0.1.0 ]
   |_|  |_|     +---------------------+
                | 3 menu strategies   |
                | 31 symbolic keys    |
                +---------------------+

`

// Function variables for dependency injection in tests.
var (
	osWriteFile = os.WriteFile
	// Allows mocking os.Exit in tests.
	osExit = os.Exit
)

// main is the entry point of the application.
func main() {
	// Global panic handler. A crash must leave a readable trace behind,
	// not just a scrollback full of goroutine dumps.
	defer handlePanic()

	// Set up a context that listens for interrupt signals (SIGINT, SIGTERM) for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// If arguments are passed, execute the command directly and exit.
	if len(os.Args) > 1 {
		if err := cmd.Execute(ctx); err != nil {
			// cmd.Execute handles the logging, we just handle the exit code.
			if errors.Is(err, context.Canceled) {
				osExit(0) // Exit cleanly on graceful shutdown
			} else {
				osExit(1)
			}
		}
		return
	}

	// -- Interactive Mode --
	fmt.Print(asciiArt)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("winpilot-cli > ")
		if !scanner.Scan() {
			break // Exit on EOF (Ctrl+D)
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "exit" || line == "quit" {
			break
		}

		executeInteractiveCommand(ctx, line)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading from stdin:", err)
		osExit(1)
	}

	fmt.Println("Exiting winpilot-cli.")
}

// executeInteractiveCommand parses and runs one line from the interactive
// shell.
func executeInteractiveCommand(ctx context.Context, line string) {
	// A fresh command instance per execution, so flag state from one line
	// never leaks into the next.
	rootCmd := cmd.NewRootCommand()

	args := strings.Fields(line)
	rootCmd.SetArgs(args)

	// Capture panics so one bad command does not take the shell down.
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "Error: Command panicked: %v\n", r)
			}
		}()
		if err := rootCmd.ExecuteContext(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}()
}

// handlePanic writes the crash report for non-interactive mode.
func handlePanic() {
	if r := recover(); r != nil {
		// Ensure logs are flushed before proceeding.
		observability.Sync()

		stackTrace := debug.Stack()
		panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, stackTrace)

		if err := osWriteFile(panicLogFile, []byte(panicMessage), 0644); err != nil {
			// If logging fails, print to stderr as a fallback.
			fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
			fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
			osExit(1)
			return // Return facilitates testing when osExit is mocked.
		}

		fmt.Fprintf(os.Stderr, "\n----------------------------------------------------------------\n")
		fmt.Fprintf(os.Stderr, "CRASH DETECTED. Details logged to %s\n", panicLogFile)
		fmt.Fprintf(os.Stderr, "----------------------------------------------------------------\n")
		osExit(1)
	}
}
