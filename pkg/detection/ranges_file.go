package detection

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rangesFile is the on-disk layout:
//
//	ranges:
//	  - name: Red
//	    order: bgr
//	    lower: [0, 0, 50]
//	    upper: [100, 33, 240]
type rangesFile struct {
	Ranges []ColorRange `yaml:"ranges"`
}

// ParseRanges decodes and validates a YAML range set.
func ParseRanges(data []byte) ([]ColorRange, error) {
	var f rangesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse ranges: %w", err)
	}
	if len(f.Ranges) == 0 {
		return nil, ErrNoRanges
	}
	seen := make(map[string]bool, len(f.Ranges))
	for i := range f.Ranges {
		f.Ranges[i].Order = f.Ranges[i].Order.Normalize()
		if err := f.Ranges[i].Validate(); err != nil {
			return nil, err
		}
		if seen[f.Ranges[i].Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidRange, f.Ranges[i].Name)
		}
		seen[f.Ranges[i].Name] = true
	}
	return f.Ranges, nil
}

// LoadRanges reads a YAML range set from path.
func LoadRanges(path string) ([]ColorRange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ranges: %w", err)
	}
	return ParseRanges(data)
}
