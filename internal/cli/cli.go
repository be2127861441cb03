// Package cli implements the watt command line.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wattwdl/watt/internal/engine"
	"github.com/wattwdl/watt/internal/errors"
	"github.com/wattwdl/watt/internal/logging"
	"github.com/wattwdl/watt/internal/output"
	"github.com/wattwdl/watt/internal/settings"
	"github.com/wattwdl/watt/internal/testcase"
)

// Version is set at build time.
var Version = "dev"

// Executor is the engine the CLI drives. *engine.Cromwell implements it.
type Executor interface {
	engine.Engine
	CheckPrerequisites() error
	DryRunCommand(job engine.Job) string
}

// app holds the state of one CLI invocation.
type app struct {
	out *output.Writer

	// dir is where repository-root lookup starts.
	dir string
	env settings.EnvFunc

	newExecutor func(rs *settings.Resolved) (Executor, error)

	// flag values
	verbose      bool
	quiet        bool
	noColor      bool
	configPath   string
	settingsPath string
	workflows    []string
	tests        []string
	executor     string
	java         string
	logPrefix    string
	workDir      string
	logPath      string
	processes    int
	timeout      string
	dryRun       bool

	settings *settings.Resolved
	exitCode int
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	a := &app{
		out:         output.New(),
		dir:         dir,
		env:         os.LookupEnv,
		newExecutor: newCromwell,
	}
	return a.run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.out.Stdout())
	root.SetErr(a.out.Stderr())

	if err := root.ExecuteContext(ctx); err != nil {
		a.reportError(err)
		var werr *errors.WattError
		if stderrors.As(err, &werr) {
			return werr.ExitCode()
		}
		// cobra flag and argument errors are usage problems.
		return errors.ExitConfigError
	}
	return a.exitCode
}

func (a *app) reportError(err error) {
	var werr *errors.WattError
	if stderrors.As(err, &werr) && werr.Cause != nil {
		a.out.ErrorPrefix("%s", werr.Message)
		for _, line := range strings.Split(werr.Cause.Error(), "\n") {
			a.out.Errorln("  %s", line)
		}
		return
	}
	a.out.ErrorPrefix("%v", err)
}

// setup runs before every command: logging, color and settings.
func (a *app) setup(cmd *cobra.Command) error {
	if !changed(cmd.Flags(), "no-color") {
		if _, ok := a.env("NO_COLOR"); ok {
			a.noColor = true
		}
	}
	format, _ := a.env("WATT_LOG_FORMAT")
	logging.Setup(a.verbose, a.quiet, format == "json")

	if a.noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		a.out.SetColor(false)
	}
	a.out.SetQuiet(a.quiet)

	rs, err := settings.Load(a.settingsPath, a.env, a.overrides(cmd.Flags()))
	if err != nil {
		return err
	}
	for _, w := range rs.Warnings {
		a.out.Warning("%s", w)
	}
	a.settings = rs
	return nil
}

// overrides returns the settings given explicitly on the command line.
func (a *app) overrides(fs *pflag.FlagSet) *settings.Overrides {
	o := &settings.Overrides{}
	if changed(fs, "executor") {
		o.Executor = &a.executor
	}
	if changed(fs, "java") {
		o.Java = &a.java
	}
	if changed(fs, "executor-log-prefix") {
		o.ExecutorLogPrefix = &a.logPrefix
	}
	if changed(fs, "work-dir") {
		o.WorkDir = &a.workDir
	}
	if changed(fs, "config") {
		o.Config = &a.configPath
	}
	if changed(fs, "processes") {
		o.Processes = &a.processes
	}
	if changed(fs, "timeout") {
		o.Timeout = &a.timeout
	}
	return o
}

func (a *app) filter() testcase.Filter {
	return testcase.Filter{Workflows: a.workflows, Tests: a.tests}
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}

func newCromwell(rs *settings.Resolved) (Executor, error) {
	timeout, err := rs.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return engine.NewCromwell(engine.CromwellOptions{
		Jar:       rs.Executor,
		Java:      rs.Java,
		LogPrefix: rs.ExecutorLogPrefix,
		WorkDir:   rs.WorkDir,
		Timeout:   timeout,
	}), nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
