// Package config loads hookguard settings.
//
// Values are resolved from (highest to lowest priority):
//  1. Command-line flags (applied by the caller)
//  2. Environment variables (HOOKGUARD_*)
//  3. Project config (.claude/hookguard.yaml under the working directory)
//  4. Defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/hookguard/internal/adapters/meili"
	"github.com/emiliopalmerini/hookguard/internal/adapters/otel"
	"github.com/emiliopalmerini/hookguard/internal/audit"
	"github.com/emiliopalmerini/hookguard/internal/guard"
	"github.com/emiliopalmerini/hookguard/internal/util"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "HOOKGUARD"

// ProjectFile is the config file location relative to the project root.
var ProjectFile = filepath.Join(".claude", "hookguard.yaml")

// Fail modes.
const (
	FailOpen   = "open"
	FailClosed = "closed"
)

// DatabaseOff disables the decision store.
const DatabaseOff = "off"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all hookguard configuration.
type Config struct {
	LogDir    string `yaml:"log_dir" split_words:"true"`
	LogFormat string `yaml:"log_format" split_words:"true"`
	// FailMode decides what a hook does when it cannot evaluate its input:
	// "open" allows the action, "closed" blocks it.
	FailMode string `yaml:"fail_mode" split_words:"true"`
	Debug    bool   `yaml:"debug"`

	Guard        GuardConfig        `yaml:"guard"`
	Prompt       PromptConfig       `yaml:"prompt"`
	SessionStart SessionStartConfig `yaml:"session_start" split_words:"true"`
	Stop         StopConfig         `yaml:"stop"`
	Audit        AuditConfig        `yaml:"audit"`
	Otel         otel.Config        `yaml:"otel"`

	// Source is the config file that was read, if any.
	Source string `yaml:"-" ignored:"true"`
}

// GuardConfig extends the built-in denylist.
type GuardConfig struct {
	AllowEnvSuffixes []string      `yaml:"allow_env_suffixes" split_words:"true"`
	ExtraCommands    []PatternRule `yaml:"extra_commands,omitempty" ignored:"true"`
	ExtraPaths       []PatternRule `yaml:"extra_paths,omitempty" ignored:"true"`
}

// PatternRule is a user-supplied regular expression with an optional reason.
type PatternRule struct {
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason,omitempty"`
}

type PromptConfig struct {
	Log               bool     `yaml:"log"`
	StoreLastPrompt   bool     `yaml:"store_last_prompt" split_words:"true"`
	DetectCorrections bool     `yaml:"detect_corrections" split_words:"true"`
	DetectDrift       bool     `yaml:"detect_drift" split_words:"true"`
	Blocked           []string `yaml:"blocked,omitempty"`
}

type SessionStartConfig struct {
	LoadContext   bool `yaml:"load_context" split_words:"true"`
	LoadLearnings bool `yaml:"load_learnings" split_words:"true"`
}

type StopConfig struct {
	Chat         bool `yaml:"chat"`
	LearnCapture bool `yaml:"learn_capture" split_words:"true"`
	SessionCheck bool `yaml:"session_check" split_words:"true"`
}

// AuditConfig locates the decision sinks.
type AuditConfig struct {
	// Database is a local path or libsql URL. Empty selects the XDG data
	// directory; "off" disables the store.
	Database  string      `yaml:"database"`
	AuthToken string      `yaml:"auth_token,omitempty" split_words:"true"`
	Meili     MeiliConfig `yaml:"meili"`
}

type MeiliConfig struct {
	URL   string `yaml:"url"`
	Key   string `yaml:"key,omitempty"`
	Index string `yaml:"index"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogDir:    "logs",
		LogFormat: string(audit.FormatJSONL),
		FailMode:  FailOpen,
		Guard: GuardConfig{
			AllowEnvSuffixes: append([]string(nil), guard.DefaultEnvAllowSuffixes...),
		},
		Prompt: PromptConfig{
			Log: true,
		},
		Audit: AuditConfig{
			Meili: MeiliConfig{Index: meili.DefaultIndex},
		},
	}
}

// Load resolves the configuration for a project rooted at dir.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ProjectFile)
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	// Decoding onto the defaults keeps every key the file leaves out.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	c.Source = path
	return nil
}

func (c *Config) applyEnv() error {
	// The bare MeiliSearch variables are shared with other hook tooling.
	if v := os.Getenv("MEILI_URL"); v != "" {
		c.Audit.Meili.URL = v
	}
	if v := os.Getenv("MEILI_KEY"); v != "" {
		c.Audit.Meili.Key = v
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := audit.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: log_format: %v", ErrInvalid, err)
	}
	if c.FailMode != FailOpen && c.FailMode != FailClosed {
		return fmt.Errorf("%w: fail_mode %q (want open or closed)", ErrInvalid, c.FailMode)
	}
	if c.LogDir == "" {
		return fmt.Errorf("%w: log_dir is empty", ErrInvalid)
	}
	if _, err := c.GuardOptions(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Format returns the parsed log format.
func (c *Config) Format() audit.Format {
	f, err := audit.ParseFormat(c.LogFormat)
	if err != nil {
		return audit.FormatJSONL
	}
	return f
}

// FailClosed reports whether evaluation failures block the action.
func (c *Config) FailClosed() bool {
	return c.FailMode == FailClosed
}

// GuardOptions compiles the guard extensions.
func (c *Config) GuardOptions() ([]guard.Option, error) {
	commands, err := compileRules("guard.extra_commands", c.Guard.ExtraCommands)
	if err != nil {
		return nil, err
	}
	paths, err := compileRules("guard.extra_paths", c.Guard.ExtraPaths)
	if err != nil {
		return nil, err
	}

	return []guard.Option{
		guard.WithEnvAllowSuffixes(c.Guard.AllowEnvSuffixes...),
		guard.WithExtraCommands(commands...),
		guard.WithExtraPaths(paths...),
	}, nil
}

func compileRules(key string, rules []PatternRule) ([]guard.Pattern, error) {
	patterns := make([]guard.Pattern, 0, len(rules))
	for i, r := range rules {
		p, err := guard.NewPattern(r.Pattern, r.Reason)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// AuditDatabase returns the decision store location, or "" when disabled.
func (c *Config) AuditDatabase() (string, error) {
	switch c.Audit.Database {
	case DatabaseOff:
		return "", nil
	case "":
		dir, err := util.GetXDGDataDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "audit.db"), nil
	default:
		return c.Audit.Database, nil
	}
}
