// Package file loads graph definitions from YAML, JSON and HCL files.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/flowrun/internal/dto"
	"github.com/aretw0/flowrun/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions understood by Load.
var Extensions = []string{".yaml", ".yml", ".json", ".hcl"}

// Supported reports whether path has a graph file extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads a single graph file, choosing the format by extension.
func Load(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var g *domain.Graph
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		g, err = DecodeYAML(data)
	case ".json":
		g, err = DecodeJSON(data)
	case ".hcl":
		g, err = DecodeHCL(data, path)
	default:
		return nil, fmt.Errorf("unsupported graph file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// LoadDir loads every supported file in dir (not recursive), ordered by file name.
func LoadDir(dir string) ([]*domain.Graph, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read graphs dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	graphs := make([]*domain.Graph, 0, len(names))
	for _, name := range names {
		g, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}

// DecodeYAML parses a graph in the create-graph body shape written as YAML.
func DecodeYAML(data []byte) (*domain.Graph, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return decodeMap(raw)
}

// DecodeJSON parses a graph in the create-graph body shape.
func DecodeJSON(data []byte) (*domain.Graph, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return decodeMap(raw)
}

func decodeMap(raw map[string]any) (*domain.Graph, error) {
	var def dto.GraphDefinition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &def,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid graph definition: %w", err)
	}
	return def.ToDomain()
}
