package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqforge/triopileup/internal/triopileup/fasta"
	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/internal/triopileup/pileup"
	"github.com/seqforge/triopileup/pkg/config"
	"github.com/seqforge/triopileup/pkg/errors"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Reference = "/from/config.fa"

	applyFlags(cfg, &makeExamplesFlags{
		ref:          "/from/flag.fa",
		reads:        "/child.sam",
		readsParent1: "/parent1.sam",
		output:       "/out/prefix",
		shards:       4,
	})

	assert.Equal(t, "/from/flag.fa", cfg.Reference, "flags win over the config file")
	assert.Equal(t, "/child.sam", cfg.Samples.Child.Reads)
	assert.Equal(t, "/parent1.sam", cfg.Samples.Parent1.Reads)
	assert.Equal(t, "/out/prefix", cfg.Output.Prefix)
	assert.Equal(t, 4, cfg.Output.Shards)
	assert.Equal(t, 1, cfg.Output.Workers, "unset flags leave the config alone")
}

func TestPileupOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pileup.Width = 101
	cfg.Pileup.MinBaseQuality = 15
	cfg.Pileup.MultiAllelicMode = "no_het_alt"
	cfg.Pileup.SortByHaplotypes = true

	opts := pileupOptions(cfg)
	assert.Equal(t, 101, opts.Width)
	assert.Equal(t, 15, opts.ReadRequirements.MinBaseQuality)
	assert.Equal(t, pileup.NoHetAltImages, opts.MultiAllelicMode)
	assert.True(t, opts.SortByHaplotypes)
	assert.False(t, opts.Trio, "no parent reads configured")

	cfg.Samples.Parent1.Reads = "/parent1.sam"
	assert.True(t, pileupOptions(cfg).Trio)
}

func TestFilterRegions(t *testing.T) {
	candidates := []*genome.Variant{
		{Reference: "chr1", Start: 5, End: 6, ReferenceBases: "A", AlternateBases: []string{"C"}},
		{Reference: "chr1", Start: 15, End: 16, ReferenceBases: "A", AlternateBases: []string{"C"}},
		{Reference: "chr2", Start: 5, End: 6, ReferenceBases: "A", AlternateBases: []string{"C"}},
	}

	kept, err := filterRegions(candidates, nil, nil)
	require.NoError(t, err)
	assert.Len(t, kept, 3, "no regions keeps everything")

	kept, err = filterRegions(candidates, []string{"chr1:1-10"}, nil)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, int64(5), kept[0].Start)

	_, err = filterRegions(candidates, []string{"chr1:badrange"}, nil)
	assert.Error(t, err)
}

func TestFilterRegionsBareContig(t *testing.T) {
	ref := openTestReference(t)
	defer ref.Close()

	candidates := []*genome.Variant{
		{Reference: "chr1", Start: 5, End: 6, ReferenceBases: "A", AlternateBases: []string{"C"}},
		{Reference: "chr2", Start: 5, End: 6, ReferenceBases: "A", AlternateBases: []string{"C"}},
	}

	kept, err := filterRegions(candidates, []string{"chr2"}, ref)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "chr2", kept[0].Reference)

	_, err = filterRegions(candidates, []string{"chrX"}, ref)
	assert.Error(t, err, "bare contig must exist in the reference index")
}

// testdata written on the fly: a 20bp chr1, a 12bp chr2, a child SAM carrying
// the alt, and one candidate SNP.
const (
	cliFasta = ">chr1\nACGTACGTAC\nGTACGTACGT\n>chr2\nACGTACGTAC\nGT\n"
	cliFai   = "chr1\t20\t6\t10\t11\nchr2\t12\t34\t10\t11\n"
	cliSam   = "@HD\tVN:1.6\n" +
		"kid\t0\tchr1\t5\t60\t11M\t*\t0\t0\tACGTAGGTACG\tIIIIIIIIIII\n"
	cliVcf = "##fileformat=VCFv4.2\nchr1\t10\t.\tC\tG\t50\tPASS\t.\n"
)

func openTestReference(t *testing.T) *fasta.Reader {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.fa")
	require.NoError(t, os.WriteFile(path, []byte(cliFasta), 0o644))
	require.NoError(t, os.WriteFile(path+".fai", []byte(cliFai), 0o644))
	ref, err := fasta.Open(path)
	require.NoError(t, err)
	return ref
}

func TestMakeExamplesAndInspect(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	refPath := write("ref.fa", cliFasta)
	write("ref.fa.fai", cliFai)
	samPath := write("child.sam", cliSam)
	vcfPath := write("candidates.vcf", cliVcf)
	cfgPath := write("triopileup.yml", "pileup:\n  width: 11\n")
	prefix := filepath.Join(dir, "examples")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{
		"make-examples",
		"--config", cfgPath,
		"--ref", refPath,
		"--candidates", vcfPath,
		"--reads", samPath,
		"--output", prefix,
		"--no-progress",
	})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "wrote 1 images for 1 candidates")

	shard := prefix + "-00000-of-00001.tfrecord.gz"
	_, err := os.Stat(shard)
	require.NoError(t, err)

	out.Reset()
	rootCmd.SetArgs([]string{"inspect", "--config", cfgPath, shard})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "chr1:10-10")
	assert.Contains(t, out.String(), "C>G")
	assert.Contains(t, out.String(), "1 example(s)")
}

func TestMakeExamplesMissingInputs(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "triopileup.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o644))

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"make-examples", "--config", cfgPath})
	assert.Error(t, rootCmd.Execute())
}

func TestInspectDamagedShard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad-00000-of-00001.tfrecord.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	// Twelve bytes that cannot be a valid frame: the length checksum is wrong.
	_, err = gz.Write(make([]byte, 12))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"inspect", "--config", "", path})
	err = rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is damaged")
	assert.True(t, errors.IsCorruption(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 130, ExitCode(fmt.Errorf("run: %w", context.Canceled)))
	assert.Equal(t, 2, ExitCode(errors.ErrInvalidConfig))
	assert.Equal(t, 2, ExitCode(fmt.Errorf("load: %w", errors.ErrMalformedVariant)))
	assert.Equal(t, 1, ExitCode(errors.New("disk on fire")))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"version", "--config", ""})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "triopileup version")
}
