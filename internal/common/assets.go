package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// UnitSeed describes one CurrencyUnit to provision at startup, the ledger
// analogue of the teacher's AssetConfig entries in assets.yaml.
type UnitSeed struct {
	Symbol            string `yaml:"symbol"`
	Measurement       string `yaml:"measurement"`
	Precision         int32  `yaml:"precision"`
	IsNegativeAllowed bool   `yaml:"is_negative_allowed"`
}

// unitsSeedFile is the top-level shape of the units seed YAML.
type unitsSeedFile struct {
	Units []UnitSeed `yaml:"units"`
}

// LoadUnitSeeds reads and validates a currency-unit seed file, used by
// `ledgerd seed` to provision the units a fresh deployment needs before any
// engine operation can reference them.
func LoadUnitSeeds(path string) ([]UnitSeed, error) {
	var fullPath string
	if filepath.IsAbs(path) {
		fullPath = path
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		fullPath = filepath.Join(wd, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file unitsSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, u := range file.Units {
		if u.Symbol == "" {
			return nil, fmt.Errorf("unit at index %d missing symbol", i)
		}
		if u.Precision < 0 || u.Precision > 4 {
			return nil, fmt.Errorf("unit %s: precision must be between 0 and 4", u.Symbol)
		}
	}

	return file.Units, nil
}
