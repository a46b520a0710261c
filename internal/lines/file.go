package lines

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of a line table:
//
//	lines:
//	  - id: Red
//	    color: "#FF0000"
type fileConfig struct {
	Lines []Line `yaml:"lines" validate:"required,min=1,dive"`
}

// LoadFile reads and validates a YAML line table.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lines file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML line table.
func Parse(data []byte) (*Table, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate lines: %w", err)
	}
	return NewTable(cfg.Lines), nil
}
