package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wattwdl/watt/internal/compare"
	"github.com/wattwdl/watt/internal/config"
	"github.com/wattwdl/watt/internal/engine"
	"github.com/wattwdl/watt/internal/errors"
	"github.com/wattwdl/watt/internal/output"
	"github.com/wattwdl/watt/internal/project"
	"github.com/wattwdl/watt/internal/report"
	"github.com/wattwdl/watt/internal/runner"
	"github.com/wattwdl/watt/internal/settings"
	"github.com/wattwdl/watt/internal/testcase"
)

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watt",
		Short: "WDL Automated Testing Tool",
		Long: `watt runs WDL workflows on Cromwell for every test case in a YAML
configuration and compares the outputs with the expected outputs.

Tests whose expected_outputs is null pass only when the run fails.`,
		Example: `  watt -e cromwell.jar
  watt -e cromwell.jar -w align,call -t small -p 4
  watt list -w 'align*'`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTests(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug diagnostics on stderr")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "Only print the final summary and errors")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output (env: NO_COLOR)")
	pf.StringVarP(&a.configPath, "config", "c", config.DefaultFileName, "Path to the test configuration")
	pf.StringVar(&a.settingsPath, "settings", "", "Path to a settings file (default: "+settings.FileName+" if present)")
	pf.StringSliceVarP(&a.workflows, "workflow", "w", nil, "Workflows to test (comma-separated, glob patterns allowed)")
	pf.StringSliceVarP(&a.tests, "test", "t", nil, "Tests to run (comma-separated, glob patterns allowed)")

	f := cmd.Flags()
	f.StringVarP(&a.executor, "executor", "e", "", "Path to the Cromwell jar (env: "+settings.EnvExecutor+")")
	f.StringVar(&a.java, "java", settings.DefaultJava, "Java binary used to launch Cromwell (env: "+settings.EnvJava+")")
	f.StringVar(&a.logPrefix, "executor-log-prefix", settings.DefaultExecutorLogPrefix, "Directory for per-test Cromwell log files")
	f.StringVar(&a.workDir, "work-dir", settings.DefaultWorkDir, "Directory for Cromwell run metadata")
	f.StringVarP(&a.logPath, "log", "l", "", "Write test progress and the summary to this file instead of stdout")
	f.IntVarP(&a.processes, "processes", "p", settings.DefaultProcesses, "Number of tests to run concurrently (env: "+settings.EnvProcesses+")")
	f.StringVar(&a.timeout, "timeout", "", "Per-test engine timeout, e.g. 30m (env: "+settings.EnvTimeout+")")
	f.BoolVar(&a.dryRun, "dry-run", false, "Print the engine commands without running them")

	cmd.SetVersionTemplate("watt {{.Version}}\n")
	cmd.AddCommand(a.listCmd(), a.validateCmd(), a.versionCmd())
	return cmd
}

// loadCases reads the configuration and returns the selected test cases.
// Filter entries that select nothing are configuration errors.
func (a *app) loadCases() (*config.Config, []testcase.TestCase, error) {
	cfg, err := config.Load(a.settings.Config)
	if err != nil {
		return nil, nil, err
	}

	all := cfg.TestCases(project.NewResolver(a.dir))
	filter := a.filter()
	if workflows, tests := filter.Unmatched(all); len(workflows) > 0 || len(tests) > 0 {
		return nil, nil, unmatchedError(cfg, workflows, tests)
	}
	return cfg, filter.Apply(all), nil
}

func unmatchedError(cfg *config.Config, workflows, tests []string) error {
	if len(workflows) > 0 {
		names := make([]string, len(cfg.Workflows))
		for i, wf := range cfg.Workflows {
			names[i] = wf.Name
		}
		return errors.Configf("requested workflow %q does not match any workflow in config; available workflows: %v", workflows[0], names)
	}
	return errors.Configf("requested test %q does not match any test of the selected workflows", tests[0])
}

func (a *app) runTests(cmd *cobra.Command) error {
	_, selected, err := a.loadCases()
	if err != nil {
		return err
	}
	cases, err := config.Prepare(selected)
	if err != nil {
		return err
	}

	exec, err := a.newExecutor(a.settings)
	if err != nil {
		return err
	}

	if a.dryRun {
		for _, tc := range cases {
			a.out.Println("%s", exec.DryRunCommand(engine.JobFor(tc)))
		}
		return nil
	}

	if err := exec.CheckPrerequisites(); err != nil {
		return err
	}

	progress, closeLog, err := a.progressWriter()
	if err != nil {
		return err
	}
	defer closeLog()

	r := runner.New(exec, compare.New(nil), progress)
	summary := r.Run(cmd.Context(), cases, runner.Options{Workers: a.settings.Processes})

	report.Render(progress, summary)
	report.Conclude(a.out, summary)
	a.exitCode = report.ExitCode(summary)
	return nil
}

// progressWriter returns where progress and the summary go: the --log file
// when set, stdout otherwise.
func (a *app) progressWriter() (*output.Writer, func(), error) {
	if a.logPath == "" {
		return a.out, func() {}, nil
	}
	if dir := filepath.Dir(a.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, errors.Wrap(err, "creating log directory")
		}
	}
	f, err := os.Create(a.logPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening log file")
	}
	w := output.NewWithWriters(f, a.out.Stderr(), false)
	w.SetQuiet(a.quiet)
	return w, func() { _ = f.Close() }, nil
}
