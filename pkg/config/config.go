package config

import (
	"os"

	"github.com/spf13/viper"

	dserrors "github.com/agusespa/diffscope/internal/errors"
)

// DefaultFileName is the config file looked up in the working directory
// when no --config flag is given.
const DefaultFileName = "diffscope.json"

// Output formats the report generator understands.
const (
	FormatHuman    = "human"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

type Config struct {
	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`
	Git      GitConfig      `json:"git" mapstructure:"git"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// AnalysisConfig controls file classification and scan parallelism.
type AnalysisConfig struct {
	TestSuffixes   []string `json:"testSuffixes" mapstructure:"testSuffixes"`
	SourceSuffixes []string `json:"sourceSuffixes" mapstructure:"sourceSuffixes"`
	ExcludeDirs    []string `json:"excludeDirs" mapstructure:"excludeDirs"`
	Workers        int      `json:"workers" mapstructure:"workers"`
}

type GitConfig struct {
	CommandTimeoutSeconds int `json:"commandTimeoutSeconds" mapstructure:"commandTimeoutSeconds"`
}

type OutputConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Color      bool   `json:"color" mapstructure:"color"`
	ReportFile string `json:"reportFile" mapstructure:"reportFile"`
}

type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			TestSuffixes:   []string{".spec.ts"},
			SourceSuffixes: []string{".ts", ".js"},
			ExcludeDirs:    []string{"node_modules", "dist", "build", ".git", "coverage"},
			Workers:        4,
		},
		Git: GitConfig{
			CommandTimeoutSeconds: 30,
		},
		Output: OutputConfig{
			Format:     FormatHuman,
			Color:      true,
			ReportFile: "diffscope_report.md",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "human",
		},
	}
}

// Load reads the config file at path, or DefaultFileName when path is
// empty. A missing default file yields the defaults; a missing explicit
// file is an error. Keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit {
			return cfg, nil
		}
		return nil, dserrors.Wrap(dserrors.CodeConfigInvalid, err, "config file %s not readable", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, dserrors.Wrap(dserrors.CodeConfigInvalid, err, "reading config %s", path)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, dserrors.Wrap(dserrors.CodeConfigInvalid, err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if len(c.Analysis.TestSuffixes) == 0 {
		return dserrors.New(dserrors.CodeConfigInvalid, "analysis.testSuffixes must not be empty")
	}
	if len(c.Analysis.SourceSuffixes) == 0 {
		return dserrors.New(dserrors.CodeConfigInvalid, "analysis.sourceSuffixes must not be empty")
	}
	if c.Analysis.Workers <= 0 {
		return dserrors.New(dserrors.CodeConfigInvalid, "analysis.workers must be positive, got %d", c.Analysis.Workers)
	}
	if c.Git.CommandTimeoutSeconds <= 0 {
		return dserrors.New(dserrors.CodeConfigInvalid, "git.commandTimeoutSeconds must be positive, got %d", c.Git.CommandTimeoutSeconds)
	}
	switch c.Output.Format {
	case FormatHuman, FormatJSON, FormatMarkdown:
	default:
		return dserrors.New(dserrors.CodeConfigInvalid, "unknown output format %q", c.Output.Format)
	}
	return nil
}
