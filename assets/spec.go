package assets

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadSpec reads a YAML document through LoadFile and decodes it into T.
func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := LoadFile(filename)
	if err != nil {
		return zero, fmt.Errorf("assets: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("assets: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}
