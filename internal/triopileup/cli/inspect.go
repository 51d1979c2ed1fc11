package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/seqforge/triopileup/internal/triopileup/example"
	"github.com/seqforge/triopileup/internal/triopileup/tfrecord"
	"github.com/seqforge/triopileup/pkg/errors"
)

func newInspectCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect <shard.tfrecord.gz>",
		Short: "Print a summary of the examples in a shard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many records (0 = all)")
	return cmd
}

func runInspect(cmd *cobra.Command, path string, limit int) error {
	reader, err := tfrecord.OpenFile(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	out := cmd.OutOrStdout()
	count := 0
	for {
		if limit > 0 && count >= limit {
			break
		}
		record, err := reader.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return inspectErr(path, count, err)
		}

		features, err := example.Decode(record)
		if err != nil {
			return inspectErr(path, count, err)
		}
		count++

		locus := firstString(features, example.KeyLocus)
		refBases := firstString(features, example.KeyVariantRef)
		alts := firstString(features, example.KeyVariantAlts)
		shape := features[example.KeyImageShape].Ints
		indices := features[example.KeyAltAlleleIndices].Ints

		fmt.Fprintf(out, "#%d %s %s>%s alt_indices=%v shape=%v bytes=%d\n",
			count, locus, refBases, alts, indices, shape,
			len(firstBytes(features, example.KeyImageEncoded)))
	}

	fmt.Fprintf(out, "%d example(s) in %s\n", count, path)
	return nil
}

// inspectErr distinguishes a damaged shard from an I/O failure so the message
// tells the user whether to re-run the pipeline or check the path.
func inspectErr(path string, read int, err error) error {
	if errors.IsCorruption(err) {
		return fmt.Errorf("shard %s is damaged after %d readable example(s): %w", path, read, err)
	}
	return err
}

func firstString(features map[string]example.Feature, key string) string {
	return string(firstBytes(features, key))
}

func firstBytes(features map[string]example.Feature, key string) []byte {
	if f, ok := features[key]; ok && len(f.Bytes) > 0 {
		return f.Bytes[0]
	}
	return nil
}
