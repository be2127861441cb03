// Package settings resolves harness settings (executor location, worker
// count, log locations) from built-in defaults, an optional watt.toml file,
// environment variables and CLI flags, in increasing order of priority.
package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/wattwdl/watt/internal/config"
	"github.com/wattwdl/watt/internal/errors"
)

// FileName is the settings file looked up in the working directory.
const FileName = "watt.toml"

// Environment variables consulted by Resolve.
const (
	EnvExecutor  = "EXECUTION_ENGINE"
	EnvJava      = "WATT_JAVA"
	EnvProcesses = "WATT_PROCESSES"
	EnvTimeout   = "WATT_TIMEOUT"
)

// Defaults.
const (
	DefaultJava              = "java"
	DefaultExecutorLogPrefix = "watt_logs/cromwell"
	DefaultWorkDir           = "cromwell-executions/watt"
	DefaultProcesses         = 1
)

// Settings are the resolved harness settings.
type Settings struct {
	Executor          string `toml:"executor"`            // Cromwell jar
	Java              string `toml:"java"`                // java binary used to launch the jar
	ExecutorLogPrefix string `toml:"executor_log_prefix"` // directory for per-test engine logs
	WorkDir           string `toml:"work_dir"`            // where run metadata is written
	Config            string `toml:"config"`              // YAML test configuration
	Processes         int    `toml:"processes"`           // concurrent test workers
	Timeout           string `toml:"timeout"`             // per-run engine timeout, e.g. "30m"
}

// Source identifies where a resolved value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceCLI     Source = "cli"
)

// Resolved holds merged settings with per-key source tracking.
type Resolved struct {
	Settings
	Sources  map[string]Source // keyed by TOML key
	Path     string            // settings file used; empty if none
	Warnings []string
}

// Overrides are CLI flag values; nil fields are not set.
type Overrides struct {
	Executor          *string
	Java              *string
	ExecutorLogPrefix *string
	WorkDir           *string
	Config            *string
	Processes         *int
	Timeout           *string
}

// EnvFunc looks up environment variables; os.LookupEnv in production.
type EnvFunc func(key string) (string, bool)

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Java:              DefaultJava,
		ExecutorLogPrefix: DefaultExecutorLogPrefix,
		WorkDir:           DefaultWorkDir,
		Config:            config.DefaultFileName,
		Processes:         DefaultProcesses,
	}
}

// LoadFile parses a settings file. Unknown keys are returned as warnings.
func LoadFile(path string) (*Settings, []string, error) {
	var s Settings
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, nil, errors.WrapConfig(err, fmt.Sprintf("loading settings %s", path))
	}
	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("%s: unknown key %q", path, key.String()))
	}
	return &s, warnings, nil
}

// Load resolves settings. path names an explicit settings file, which must
// exist; when empty, FileName is used if present.
func Load(path string, envFn EnvFunc, overrides *Overrides) (*Resolved, error) {
	var file *Settings
	var warnings []string
	used := ""

	switch {
	case path != "":
		s, w, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		file, warnings, used = s, w, path
	default:
		if _, err := os.Stat(FileName); err == nil {
			s, w, err := LoadFile(FileName)
			if err != nil {
				return nil, err
			}
			file, warnings, used = s, w, FileName
		}
	}

	rs, err := Resolve(Defaults(), file, envFn, overrides)
	if err != nil {
		return nil, err
	}
	rs.Path = used
	rs.Warnings = append(warnings, rs.Warnings...)
	return rs, nil
}

// Resolve merges settings: CLI > environment > file > defaults.
func Resolve(defaults Settings, file *Settings, envFn EnvFunc, overrides *Overrides) (*Resolved, error) {
	if envFn == nil {
		envFn = func(string) (string, bool) { return "", false }
	}
	if overrides == nil {
		overrides = &Overrides{}
	}

	rs := &Resolved{Settings: defaults, Sources: make(map[string]Source)}
	for _, key := range []string{"executor", "java", "executor_log_prefix", "work_dir", "config", "processes", "timeout"} {
		rs.Sources[key] = SourceDefault
	}

	if file != nil {
		setString(rs, "executor", &rs.Executor, file.Executor, SourceFile)
		setString(rs, "java", &rs.Java, file.Java, SourceFile)
		setString(rs, "executor_log_prefix", &rs.ExecutorLogPrefix, file.ExecutorLogPrefix, SourceFile)
		setString(rs, "work_dir", &rs.WorkDir, file.WorkDir, SourceFile)
		setString(rs, "config", &rs.Config, file.Config, SourceFile)
		setString(rs, "timeout", &rs.Timeout, file.Timeout, SourceFile)
		if file.Processes != 0 {
			rs.Processes = file.Processes
			rs.Sources["processes"] = SourceFile
		}
	}

	if v, ok := envFn(EnvExecutor); ok {
		setString(rs, "executor", &rs.Executor, v, SourceEnv)
	}
	if v, ok := envFn(EnvJava); ok {
		setString(rs, "java", &rs.Java, v, SourceEnv)
	}
	if v, ok := envFn(EnvTimeout); ok {
		setString(rs, "timeout", &rs.Timeout, v, SourceEnv)
	}
	if v, ok := envFn(EnvProcesses); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			rs.Warnings = append(rs.Warnings, fmt.Sprintf("invalid %s value %q (not a number), ignoring", EnvProcesses, v))
		} else {
			rs.Processes = n
			rs.Sources["processes"] = SourceEnv
		}
	}

	if overrides.Executor != nil {
		rs.Executor = *overrides.Executor
		rs.Sources["executor"] = SourceCLI
	}
	if overrides.Java != nil {
		rs.Java = *overrides.Java
		rs.Sources["java"] = SourceCLI
	}
	if overrides.ExecutorLogPrefix != nil {
		rs.ExecutorLogPrefix = *overrides.ExecutorLogPrefix
		rs.Sources["executor_log_prefix"] = SourceCLI
	}
	if overrides.WorkDir != nil {
		rs.WorkDir = *overrides.WorkDir
		rs.Sources["work_dir"] = SourceCLI
	}
	if overrides.Config != nil {
		rs.Config = *overrides.Config
		rs.Sources["config"] = SourceCLI
	}
	if overrides.Processes != nil {
		rs.Processes = *overrides.Processes
		rs.Sources["processes"] = SourceCLI
	}
	if overrides.Timeout != nil {
		rs.Timeout = *overrides.Timeout
		rs.Sources["timeout"] = SourceCLI
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func setString(rs *Resolved, key string, dst *string, v string, src Source) {
	if v == "" {
		return
	}
	*dst = v
	rs.Sources[key] = src
}

// Validate checks values that do not depend on the environment.
func (s Settings) Validate() error {
	if s.Processes < 1 {
		return errors.Configf("processes must be at least 1, got %d", s.Processes)
	}
	if _, err := s.TimeoutDuration(); err != nil {
		return err
	}
	if s.ExecutorLogPrefix == "" {
		return errors.Config("executor_log_prefix must not be empty")
	}
	return nil
}

// TimeoutDuration parses Timeout; zero means no timeout.
func (s Settings) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, errors.Configf("invalid timeout %q: %v", s.Timeout, err)
	}
	if d < 0 {
		return 0, errors.Configf("timeout must not be negative, got %s", s.Timeout)
	}
	return d, nil
}
