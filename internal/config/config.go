package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as "10s", "15m" in config files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.parse(node.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"10s\": %w", err)
	}
	return d.parse(s)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type Locks struct {
	StaleAfter Duration `yaml:"stale_after" json:"stale_after"`
}

type Signals struct {
	StaleAfter Duration `yaml:"stale_after" json:"stale_after"`
}

type Progress struct {
	OrphanAfter Duration `yaml:"orphan_after" json:"orphan_after"`
}

type Logging struct {
	Enabled    *bool `yaml:"enabled" json:"enabled"`
	MaxEntries int   `yaml:"max_entries" json:"max_entries"`
}

type Config struct {
	ModelProfile      string   `yaml:"model_profile" json:"model_profile"`
	CommitDocs        *bool    `yaml:"commit_docs" json:"commit_docs"`
	BranchingStrategy string   `yaml:"branching_strategy" json:"branching_strategy"`
	Locks             Locks    `yaml:"locks" json:"locks"`
	Signals           Signals  `yaml:"signals" json:"signals"`
	Progress          Progress `yaml:"progress" json:"progress"`
	Logging           Logging  `yaml:"logging" json:"logging"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-" json:"-"`
	// keys present at the top level of the source file
	keys map[string]bool
}

// Load reads .planning/config.yaml, falling back to the legacy
// .planning/config.json. A missing config yields the defaults.
func Load(planningDir string) (*Config, error) {
	yamlPath := filepath.Join(planningDir, "config.yaml")
	data, err := os.ReadFile(yamlPath)
	if err == nil {
		return parseYAML(yamlPath, data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	jsonPath := filepath.Join(planningDir, "config.json")
	data, err = os.ReadFile(jsonPath)
	if err == nil {
		return parseJSON(jsonPath, data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseYAML(path string, data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filepath.Base(path), err)
	}
	var raw map[string]any
	_ = yaml.Unmarshal(data, &raw)
	cfg.Source = path
	cfg.keys = keySet(raw)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseJSON accepts the legacy config.json, which in practice carries
// comments and trailing commas.
func parseJSON(path string, data []byte) (*Config, error) {
	clean := jsonc.ToJSON(data)
	var cfg Config
	if err := json.Unmarshal(clean, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filepath.Base(path), err)
	}
	var raw map[string]any
	_ = json.Unmarshal(clean, &raw)
	cfg.Source = path
	cfg.keys = keySet(raw)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func keySet(raw map[string]any) map[string]bool {
	keys := make(map[string]bool, len(raw))
	for k := range raw {
		keys[k] = true
	}
	return keys
}

// LoggingEnabled reports whether the event log should be written.
func (c *Config) LoggingEnabled() bool {
	return c.Logging.Enabled == nil || *c.Logging.Enabled
}

// Missing lists recommended top-level keys absent from the source file.
// A config built from defaults reports nothing.
func (c *Config) Missing() []string {
	if c.Source == "" {
		return nil
	}
	var missing []string
	for _, k := range recommendedKeys {
		if !c.keys[k] {
			missing = append(missing, k)
		}
	}
	return missing
}
