// Package config loads the pipeline configuration from yaml, with sane
// defaults for every pileup knob so a minimal file only names the inputs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/seqforge/triopileup/pkg/errors"
)

// Config holds the complete application configuration
type Config struct {
	Reference  string        `yaml:"reference" json:"reference"`
	Candidates string        `yaml:"candidates" json:"candidates"`
	Samples    SamplesConfig `yaml:"samples" json:"samples"`
	Pileup     PileupConfig  `yaml:"pileup" json:"pileup"`
	Output     OutputConfig  `yaml:"output" json:"output"`
	Logging    LoggingConfig `yaml:"logging" json:"logging"`
}

// SampleConfig names one trio member and its aligned reads
type SampleConfig struct {
	Name  string `yaml:"name" json:"name"`
	Reads string `yaml:"reads" json:"reads"`
}

// SamplesConfig holds the trio members. Parent entries may be left empty for
// duo or single-sample runs.
type SamplesConfig struct {
	Child   SampleConfig `yaml:"child" json:"child"`
	Parent1 SampleConfig `yaml:"parent1" json:"parent1"`
	Parent2 SampleConfig `yaml:"parent2" json:"parent2"`
}

// PileupConfig holds the image geometry and encoding knobs
type PileupConfig struct {
	Width               int    `yaml:"width" json:"width"`
	HeightChild         int    `yaml:"heightChild" json:"heightChild"`
	HeightParent        int    `yaml:"heightParent" json:"heightParent"`
	ReferenceBandHeight int    `yaml:"referenceBandHeight" json:"referenceBandHeight"`
	MinBaseQuality      int    `yaml:"minBaseQuality" json:"minBaseQuality"`
	MinMappingQuality   int    `yaml:"minMappingQuality" json:"minMappingQuality"`
	MultiAllelicMode    string `yaml:"multiAllelicMode" json:"multiAllelicMode"` // "add_het_alt" or "no_het_alt"
	AltAlignedPileup    string `yaml:"altAlignedPileup" json:"altAlignedPileup"` // "", "rows", "base_channels", "diff_channels"
	SortByHaplotypes    bool   `yaml:"sortByHaplotypes" json:"sortByHaplotypes"`
	RandomSeed          int64  `yaml:"randomSeed" json:"randomSeed"`
}

// OutputConfig holds shard geometry and destination
type OutputConfig struct {
	Prefix  string `yaml:"prefix" json:"prefix"`
	Shards  int    `yaml:"shards" json:"shards"`
	Workers int    `yaml:"workers" json:"workers"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns a config with every knob at its default value.
func DefaultConfig() *Config {
	return &Config{
		Pileup: PileupConfig{
			Width:               221,
			HeightChild:         100,
			HeightParent:        100,
			ReferenceBandHeight: 5,
			MinBaseQuality:      10,
			MinMappingQuality:   10,
			MultiAllelicMode:    "add_het_alt",
			AltAlignedPileup:    "",
			RandomSeed:          2101079370,
		},
		Output: OutputConfig{
			Prefix:  "examples",
			Shards:  1,
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// searchPaths are the locations LoadConfig tries when no explicit path is
// given.
var searchPaths = []string{
	"triopileup.yml",
	"triopileup.yaml",
}

// LoadConfig loads configuration from path, or from the first file found in
// the search locations when path is empty. An empty path with no config file
// present returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		for _, candidate := range searchPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errors.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the config the pipeline cannot default its
// way around.
func (c *Config) Validate() error {
	if c.Pileup.Width < 3 || c.Pileup.Width%2 == 0 {
		return fmt.Errorf("%w: pileup width must be odd and at least 3, got %d",
			errors.ErrInvalidConfig, c.Pileup.Width)
	}
	switch c.Pileup.MultiAllelicMode {
	case "add_het_alt", "no_het_alt":
	default:
		return fmt.Errorf("%w: multiAllelicMode must be add_het_alt or no_het_alt, got %q",
			errors.ErrInvalidConfig, c.Pileup.MultiAllelicMode)
	}
	switch c.Pileup.AltAlignedPileup {
	case "", "rows", "base_channels", "diff_channels":
	default:
		return fmt.Errorf("%w: altAlignedPileup must be empty, rows, base_channels or diff_channels, got %q",
			errors.ErrInvalidConfig, c.Pileup.AltAlignedPileup)
	}
	if c.Output.Shards < 1 {
		return fmt.Errorf("%w: output shards must be at least 1, got %d",
			errors.ErrInvalidConfig, c.Output.Shards)
	}
	if c.Output.Workers < 1 {
		return fmt.Errorf("%w: output workers must be at least 1, got %d",
			errors.ErrInvalidConfig, c.Output.Workers)
	}
	if (c.Samples.Parent1.Reads == "") != (c.Samples.Parent2.Reads == "") {
		// Duo mode is allowed, but a lone half-configured parent is almost
		// always a typo in the config file.
		if c.Samples.Parent1.Name != "" || c.Samples.Parent2.Name != "" {
			return fmt.Errorf("%w: parent sample configured without reads", errors.ErrInvalidConfig)
		}
	}
	return nil
}

// OutputDir returns the directory shard files land in.
func (c *Config) OutputDir() string {
	return filepath.Dir(c.Output.Prefix)
}
