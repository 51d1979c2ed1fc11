package vcf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
)

const testVcf = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
	"chr1\t101\t.\tA\tC\t50\tPASS\t.\n" +
	"chr1\t200\trs1\tAT\tA\t50\tPASS\t.\n" +
	"chr1\t300\t.\tG\tc,t\t50\tPASS\t.\n" +
	"chr1\t400\t.\tT\t<DEL>\t50\tPASS\t.\n" +
	"chr1\t500\t.\tC\t.\t50\tPASS\t.\n" +
	"chr1\t600\t.\tG\t*,A\t50\tPASS\t.\n" +
	"chr2\t10\t.\tT\tTTA\t50\tPASS\t.\n"

func writeVcf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candidates.vcf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadAll(t *testing.T) {
	variants, err := ReadAll(writeVcf(t, testVcf))
	require.NoError(t, err)
	require.Len(t, variants, 5, "symbolic and missing alts are skipped")

	snp := variants[0]
	assert.Equal(t, "chr1", snp.Reference)
	assert.Equal(t, int64(100), snp.Start, "VCF positions are 1-based")
	assert.Equal(t, int64(101), snp.End)
	assert.Equal(t, "A", snp.ReferenceBases)
	assert.Equal(t, []string{"C"}, snp.AlternateBases)
	assert.True(t, snp.IsSNP())

	del := variants[1]
	assert.Equal(t, int64(199), del.Start)
	assert.Equal(t, int64(201), del.End, "deletion spans the full ref allele")
	assert.False(t, del.IsSNP())

	multi := variants[2]
	assert.Equal(t, []string{"C", "T"}, multi.AlternateBases, "alts are uppercased")

	// The spanning-deletion marker is dropped but the real alt survives.
	star := variants[3]
	assert.Equal(t, int64(599), star.Start)
	assert.Equal(t, []string{"A"}, star.AlternateBases)

	ins := variants[4]
	assert.Equal(t, "chr2", ins.Reference)
	assert.Equal(t, genome.Range{Reference: "chr2", Start: 9, End: 10}, ins.Range())
}

func TestReadAllErrors(t *testing.T) {
	_, err := ReadAll(filepath.Join(t.TempDir(), "nope.vcf"))
	assert.Error(t, err)

	_, err = ReadAll(writeVcf(t, "chr1\t0\t.\tA\tC\t50\tPASS\t.\n"))
	assert.Error(t, err, "position below 1")

	_, err = ReadAll(writeVcf(t, "chr1\t100\tA\tC\n"))
	assert.Error(t, err, "too few columns")
}
