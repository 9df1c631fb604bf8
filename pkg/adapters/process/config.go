package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StepConfig describes an external command exposed as a step type.
type StepConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	Timeout     Duration          `yaml:"timeout" json:"timeout"`
}

// ConfigFile is the layout of a steps file.
type ConfigFile struct {
	Steps []StepConfig `yaml:"steps" json:"steps"`
}

// Duration accepts Go duration strings such as "5s" in YAML and JSON.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// UnmarshalJSON parses a duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// LoadSteps reads a steps file (YAML or JSON) and returns the configs by name.
// A missing file yields an empty map.
func LoadSteps(path string) (map[string]StepConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]StepConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read steps config: %w", err)
	}

	var cfg ConfigFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse steps config %s: %w", path, err)
	}

	steps := make(map[string]StepConfig, len(cfg.Steps))
	for i, s := range cfg.Steps {
		if s.Name == "" {
			return nil, fmt.Errorf("steps[%d]: name is required", i)
		}
		if s.Command == "" {
			return nil, fmt.Errorf("step %q: command is required", s.Name)
		}
		if _, dup := steps[s.Name]; dup {
			return nil, fmt.Errorf("step %q defined twice", s.Name)
		}
		steps[s.Name] = s
	}
	return steps, nil
}
