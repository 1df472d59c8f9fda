package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/term"
)

// spawnFailureCode is reported when the shell itself could not be started.
const spawnFailureCode = 127

// Executor runs one command string through the host shell.
type Executor struct {
	// Shell is the interpreter prefix; the command is appended as its last argument.
	Shell     []string
	Stdin     io.Reader
	Env       []string
	TailLines int
	Now       func() time.Time
	// WaitDelay bounds how long output copying may outlive a killed shell.
	WaitDelay time.Duration
}

// Execution is the result of a single command.
type Execution struct {
	ExitCode int
	Elapsed  time.Duration
	// Tail holds the last lines of combined output when the command failed.
	Tail string
	// Err is the error reported by the process, nil on success.
	Err error
}

// Succeeded reports whether the command exited zero.
func (e Execution) Succeeded() bool {
	return e.Err == nil && e.ExitCode == 0
}

// NewExecutor creates an Executor for the current platform.
func NewExecutor() *Executor {
	return &Executor{Shell: ShellFor(runtime.GOOS), TailLines: 20, Now: time.Now, WaitDelay: time.Second}
}

// ShellFor returns the default command interpreter for goos.
func ShellFor(goos string) []string {
	if goos == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// Run executes command, waiting for it to exit. With verbose set, output is
// streamed to out as produced; otherwise it is held back and written to out only
// if the command fails.
func (e *Executor) Run(ctx context.Context, command string, verbose bool, out io.Writer) Execution {
	args := append(append([]string{}, e.Shell...), command)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = e.Stdin
	cmd.Env = e.Env
	cmd.WaitDelay = e.WaitDelay
	// A terminal's foreground group already receives Ctrl-C as a whole, and
	// moving the shell out of it would stop interactive reads with SIGTTIN.
	if !isTerminal(e.Stdin) {
		isolateProcessGroup(cmd)
	}

	var captured bytes.Buffer
	var sink io.Writer = &captured
	if verbose {
		sink = io.MultiWriter(out, &captured)
	}
	// One writer for both streams keeps them interleaved in order.
	cmd.Stdout = sink
	cmd.Stderr = sink

	start := e.Now()
	err := cmd.Run()
	res := Execution{Elapsed: e.Now().Sub(start), ExitCode: exitCode(err), Err: err}
	if res.Succeeded() {
		return res
	}

	var execErr *exec.ExitError
	if err != nil && !errors.As(err, &execErr) && ctx.Err() == nil {
		fmt.Fprintf(&captured, "failed to start command: %v\n", err)
		if verbose {
			fmt.Fprintf(out, "failed to start command: %v\n", err)
		}
	}
	if !verbose {
		_, _ = out.Write(captured.Bytes())
	}
	res.Tail = tailLines(captured.String(), e.TailLines)
	return res
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
		// Terminated by a signal.
		return 1
	}
	return spawnFailureCode
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if maxLines <= 0 || len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
