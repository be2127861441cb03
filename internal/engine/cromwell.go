package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	watterrors "github.com/wattwdl/watt/internal/errors"
	"github.com/wattwdl/watt/internal/logging"
)

// CromwellOptions configures the Cromwell adapter.
type CromwellOptions struct {
	Jar       string        // path to the Cromwell jar
	Java      string        // java binary; "java" when empty
	LogPrefix string        // engine logs go to <LogPrefix>/<workflow>/<test>.log
	WorkDir   string        // run metadata goes to <WorkDir>/<workflow>/<test>/outputs.json
	Timeout   time.Duration // zero disables the per-run timeout
}

// Cromwell runs workflows with `java -jar cromwell.jar run`.
type Cromwell struct {
	opts   CromwellOptions
	logger *log.Logger
}

// NewCromwell creates a Cromwell adapter. Call logging.Setup first so the
// adapter's logger picks up the configured level.
func NewCromwell(opts CromwellOptions) *Cromwell {
	if opts.Java == "" {
		opts.Java = "java"
	}
	return &Cromwell{opts: opts, logger: logging.New("engine")}
}

// CheckPrerequisites verifies that the jar exists and java can be found.
func (c *Cromwell) CheckPrerequisites() error {
	if c.opts.Jar == "" {
		return watterrors.Environment("must provide the Cromwell jar with -e/--executor or EXECUTION_ENGINE")
	}
	info, err := os.Stat(c.opts.Jar)
	if err != nil {
		return watterrors.Environmentf("cannot find Cromwell jar at path: %s", c.opts.Jar)
	}
	if info.IsDir() {
		return watterrors.Environmentf("Cromwell jar path is a directory: %s", c.opts.Jar)
	}
	if _, err := exec.LookPath(c.opts.Java); err != nil {
		return watterrors.Environmentf("java not found (%s): %v", c.opts.Java, err)
	}
	return nil
}

// Args returns the java arguments for job.
func (c *Cromwell) Args(job Job) []string {
	return []string{
		"-jar", c.opts.Jar,
		"run", job.WorkflowPath,
		"--inputs", job.InputsPath,
		"--metadata-output", c.MetadataPath(job),
	}
}

// DryRunCommand returns the command line that Run would execute.
func (c *Cromwell) DryRunCommand(job Job) string {
	return c.opts.Java + " " + strings.Join(c.Args(job), " ") + " > " + c.LogPath(job) + " 2>&1"
}

// LogPath returns where the engine's stdout and stderr are written for job.
func (c *Cromwell) LogPath(job Job) string {
	return filepath.Join(c.opts.LogPrefix, pathSegment(job.WorkflowName), pathSegment(job.TestName)+".log")
}

// MetadataPath returns where Cromwell writes the run metadata for job.
func (c *Cromwell) MetadataPath(job Job) string {
	return filepath.Join(c.opts.WorkDir, pathSegment(job.WorkflowName), pathSegment(job.TestName), "outputs.json")
}

// pathSegment turns a workflow or test name into a single path element.
// Distinct names always map to distinct segments.
func pathSegment(name string) string {
	if strings.Trim(name, ".") == "" {
		return strings.Repeat("%2E", len(name))
	}
	return url.PathEscape(name)
}

// Run executes job and reads its outputs from the metadata file.
func (c *Cromwell) Run(ctx context.Context, job Job) Outcome {
	start := time.Now()
	metaPath := c.MetadataPath(job)
	logPath := c.LogPath(job)

	// A stale metadata file from a previous run must not pass for this one.
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return Failed{Reason: fmt.Sprintf("removing stale metadata: %v", err)}
	}
	for _, dir := range []string{filepath.Dir(metaPath), filepath.Dir(logPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Failed{Reason: fmt.Sprintf("creating %s: %v", dir, err)}
		}
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return Failed{Reason: fmt.Sprintf("creating engine log: %v", err)}
	}
	defer func() { _ = logFile.Close() }()

	runCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.opts.Java, c.Args(job)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	setProcGroup(cmd)

	c.logger.Debug("starting engine", "test", job.ID(), "command", c.DryRunCommand(job))
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		reason := describeRunError(runCtx, ctx, runErr, c.opts.Timeout)
		c.logger.Debug("engine failed", "test", job.ID(), "reason", reason, "duration", elapsed, "log", logPath)
		return Failed{Reason: reason}
	}

	meta, err := ReadMetadata(metaPath)
	if err != nil {
		c.logger.Debug("unusable metadata", "test", job.ID(), "error", err)
		return Failed{Reason: fmt.Sprintf("reading metadata %s: %v", metaPath, err)}
	}
	if meta.Status != "" && meta.Status != "Succeeded" {
		return Failed{Reason: fmt.Sprintf("workflow status %s", meta.Status)}
	}

	c.logger.Debug("engine finished", "test", job.ID(), "outputs", len(meta.Outputs), "duration", elapsed)
	return Succeeded{Outputs: meta.Outputs}
}

func describeRunError(runCtx, parent context.Context, err error, timeout time.Duration) string {
	switch {
	case parent.Err() != nil:
		return fmt.Sprintf("cancelled: %v", parent.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("timed out after %s", timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Sprintf("engine exited with status %d", exitErr.ExitCode())
	}
	return fmt.Sprintf("starting engine: %v", err)
}
