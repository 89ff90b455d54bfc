// Package optimizer runs the external Z-MERT or PRO optimizer as a JVM
// subprocess and reports how it ended.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vk/tunerun/internal/ctxlog"
)

// ErrOptimizerFailed is wrapped by *ExitError.
var ErrOptimizerFailed = errors.New("optimizer failed")

const (
	// DefaultHeap is the JVM heap given to the optimizer.
	DefaultHeap = "4g"
	// DefaultMaxMem is the optimizer's own memory cap in MB.
	DefaultMaxMem = 4000
)

// Runner launches optimizer processes. The zero value is not usable; set
// at least JoshuaRoot.
type Runner struct {
	// Java is the java executable; "java" when empty.
	Java string
	// JoshuaRoot holds the compiled optimizer classes under class/.
	JoshuaRoot string
	Heap       string
	MaxMem     int
}

// Invocation is one optimizer run.
type Invocation struct {
	MainClass  string
	ConfigPath string
	LogPath    string
}

// Result describes a finished optimizer process.
type Result struct {
	ExitCode int
	LogPath  string
	LogSize  int64
	Duration time.Duration
}

// ExitError reports an optimizer that ran but exited unsuccessfully.
type ExitError struct {
	Result *Result
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%v: exit code %d (see %s)", ErrOptimizerFailed, e.Result.ExitCode, e.Result.LogPath)
}

// Unwrap exposes both ErrOptimizerFailed and the underlying exec error.
func (e *ExitError) Unwrap() []error {
	return []error{ErrOptimizerFailed, e.Err}
}

// Args returns the command line for inv, java executable first.
func (r *Runner) Args(inv Invocation) []string {
	java := r.Java
	if java == "" {
		java = "java"
	}
	heap := r.Heap
	if heap == "" {
		heap = DefaultHeap
	}
	maxMem := r.MaxMem
	if maxMem <= 0 {
		maxMem = DefaultMaxMem
	}
	return []string{
		java,
		"-Xmx" + heap,
		"-cp", filepath.Join(r.JoshuaRoot, "class"),
		inv.MainClass,
		"-maxMem", strconv.Itoa(maxMem),
		inv.ConfigPath,
	}
}

// Run starts the optimizer, sends its combined output to inv.LogPath and
// waits for it to exit. There is no timeout; cancelling ctx kills the
// process. A nonzero exit yields a *ExitError alongside the Result.
func (r *Runner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	logFile, err := os.Create(inv.LogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create optimizer log: %w", err)
	}
	defer logFile.Close()

	args := r.Args(inv)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	logger.Info("Starting optimizer.", "command", args, "log", inv.LogPath)
	start := time.Now()
	runErr := cmd.Run()

	res := &Result{LogPath: inv.LogPath, Duration: time.Since(start)}
	if info, err := logFile.Stat(); err == nil {
		res.LogSize = info.Size()
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
	case errors.As(runErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		logger.Error("Optimizer failed.", "exit_code", res.ExitCode, "log", inv.LogPath, "log_size", humanize.Bytes(uint64(res.LogSize)))
		return res, &ExitError{Result: res, Err: runErr}
	default:
		return nil, fmt.Errorf("failed to run optimizer %s: %w", args[0], runErr)
	}

	logger.Info("Optimizer finished.",
		"duration", res.Duration.Round(time.Second).String(),
		"log", inv.LogPath,
		"log_size", humanize.Bytes(uint64(res.LogSize)),
	)
	return res, nil
}
