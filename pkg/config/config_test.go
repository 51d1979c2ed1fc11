package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqforge/triopileup/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triopileup.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 221, cfg.Pileup.Width)
	assert.Equal(t, 100, cfg.Pileup.HeightChild)
	assert.Equal(t, 5, cfg.Pileup.ReferenceBandHeight)
	assert.Equal(t, "add_het_alt", cfg.Pileup.MultiAllelicMode)
	assert.Equal(t, int64(2101079370), cfg.Pileup.RandomSeed)
	assert.Equal(t, "examples", cfg.Output.Prefix)
	assert.Equal(t, 1, cfg.Output.Shards)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
reference: /data/ref.fa
candidates: /data/candidates.vcf
samples:
  child:
    name: HG002
    reads: /data/child.sam
  parent1:
    name: HG003
    reads: /data/parent1.sam
  parent2:
    name: HG004
    reads: /data/parent2.sam
pileup:
  width: 101
  multiAllelicMode: no_het_alt
  sortByHaplotypes: true
output:
  prefix: /out/train
  shards: 8
  workers: 4
logging:
  level: DEBUG
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/ref.fa", cfg.Reference)
	assert.Equal(t, "HG002", cfg.Samples.Child.Name)
	assert.Equal(t, "/data/parent2.sam", cfg.Samples.Parent2.Reads)
	assert.Equal(t, 101, cfg.Pileup.Width)
	assert.Equal(t, "no_het_alt", cfg.Pileup.MultiAllelicMode)
	assert.True(t, cfg.Pileup.SortByHaplotypes)
	assert.Equal(t, 8, cfg.Output.Shards)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Unset knobs keep their defaults.
	assert.Equal(t, 100, cfg.Pileup.HeightChild)
	assert.Equal(t, 10, cfg.Pileup.MinBaseQuality)
	assert.Equal(t, "/out", cfg.OutputDir())
}

func TestLoadConfigMissingExplicitPath(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoadConfigEmptyPathDefaults(t *testing.T) {
	// Run from a directory with no config file present.
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "triopileup.yml"),
		[]byte("reference: /data/ref.fa\n"), 0o644))
	t.Chdir(dir)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/data/ref.fa", cfg.Reference)
}

func TestLoadConfigInvalidYaml(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "pileup: [not a mapping\n"))
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"even width", func(c *Config) { c.Pileup.Width = 100 }},
		{"tiny width", func(c *Config) { c.Pileup.Width = 1 }},
		{"bad allelic mode", func(c *Config) { c.Pileup.MultiAllelicMode = "sometimes" }},
		{"bad alt aligned mode", func(c *Config) { c.Pileup.AltAlignedPileup = "columns" }},
		{"zero shards", func(c *Config) { c.Output.Shards = 0 }},
		{"zero workers", func(c *Config) { c.Output.Workers = 0 }},
		{"lone parent", func(c *Config) {
			c.Samples.Parent1 = SampleConfig{Name: "HG003", Reads: "/data/parent1.sam"}
			c.Samples.Parent2 = SampleConfig{}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestValidateDuoAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Samples.Child = SampleConfig{Name: "HG002", Reads: "/data/child.sam"}
	assert.NoError(t, cfg.Validate(), "single-sample runs are fine")
}
