// Package config resolves runtime settings from flags, environment,
// an optional config file and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HendryAvila/flowdoc/internal/logging"
)

// EnvPrefix namespaces environment overrides, e.g. FLOWDOC_FLOWS_DIR.
const EnvPrefix = "FLOWDOC"

// Keys shared by flags, env and config files.
const (
	KeyConfigFile  = "config"
	KeyProjectRoot = "project-root"
	KeyFlowsDir    = "flows-dir"
	KeyDataDir     = "data-dir"
	KeyHistory     = "history"
	KeyHistoryMax  = "history-max"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyGitCacheTTL = "git-cache-ttl"
)

// DefaultFlowsDir is the flows directory name under the project root.
const DefaultFlowsDir = ".flows"

// Config is the resolved runtime configuration. It is built once at
// startup and passed to the constructors that need it.
type Config struct {
	ProjectRoot    string
	FlowsDir       string
	DataDir        string
	HistoryEnabled bool
	HistoryMax     int
	LogLevel       string
	LogFormat      string
	GitCacheTTL    time.Duration
}

// RegisterFlags declares the configuration flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfigFile, "", "Path to config file (yaml, toml or json).")
	fs.String(KeyProjectRoot, "", "Project root; defaults to the working directory.")
	fs.String(KeyFlowsDir, "", "Directory holding *.cf.json documents; relative paths resolve against the project root.")
	fs.String(KeyDataDir, "", "Directory for local state such as revision history.")
	fs.Bool(KeyHistory, true, "Record a revision of every document write.")
	fs.Int(KeyHistoryMax, 50, "Revisions kept per flow (0 keeps all).")
	fs.String(KeyLogLevel, "info", "Log level: debug, info, warn or error.")
	fs.String(KeyLogFormat, "console", "Log format: console or json.")
	fs.Duration(KeyGitCacheTTL, 30*time.Second, "How long git branch/commit lookups are cached.")
}

// NewViper returns a viper instance bound to fs and to FLOWDOC_* env vars.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Load reads the optional config file named by the "config" key and
// resolves every setting, filling defaults and absolute paths.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config file %s: %w", file, err)
			}
		}
	}

	cfg := Config{
		ProjectRoot:    v.GetString(KeyProjectRoot),
		FlowsDir:       v.GetString(KeyFlowsDir),
		DataDir:        v.GetString(KeyDataDir),
		HistoryEnabled: true,
		HistoryMax:     50,
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		GitCacheTTL:    30 * time.Second,
	}
	if v.IsSet(KeyHistory) {
		cfg.HistoryEnabled = v.GetBool(KeyHistory)
	}
	if v.IsSet(KeyHistoryMax) {
		cfg.HistoryMax = v.GetInt(KeyHistoryMax)
	}
	if v.IsSet(KeyGitCacheTTL) {
		cfg.GitCacheTTL = v.GetDuration(KeyGitCacheTTL)
	}

	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) resolve() error {
	if c.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		c.ProjectRoot = wd
	}
	root, err := filepath.Abs(c.ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	c.ProjectRoot = root

	if c.FlowsDir == "" {
		c.FlowsDir = DefaultFlowsDir
	}
	if !filepath.IsAbs(c.FlowsDir) {
		c.FlowsDir = filepath.Join(c.ProjectRoot, c.FlowsDir)
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".flowdoc")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = logging.FormatConsole
	}
	return nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.FlowsDir == "" {
		errs = append(errs, errors.New("flows dir must not be empty"))
	}
	if c.HistoryEnabled && c.DataDir == "" {
		errs = append(errs, errors.New("data dir must not be empty when history is enabled"))
	}
	if c.HistoryMax < 0 {
		errs = append(errs, fmt.Errorf("history-max must be >= 0, got %d", c.HistoryMax))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.GitCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("git-cache-ttl must be >= 0, got %s", c.GitCacheTTL))
	}
	return errors.Join(errs...)
}
