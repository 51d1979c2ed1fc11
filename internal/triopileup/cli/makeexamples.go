package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqforge/triopileup/internal/triopileup/example"
	"github.com/seqforge/triopileup/internal/triopileup/fasta"
	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/internal/triopileup/pileup"
	"github.com/seqforge/triopileup/internal/triopileup/pipeline"
	"github.com/seqforge/triopileup/internal/triopileup/sam"
	"github.com/seqforge/triopileup/internal/triopileup/vcf"
	"github.com/seqforge/triopileup/pkg/config"
	"github.com/seqforge/triopileup/pkg/errors"
)

type makeExamplesFlags struct {
	ref          string
	candidates   string
	reads        string
	readsParent1 string
	readsParent2 string
	output       string
	regions      []string
	shards       int
	workers      int
	noProgress   bool
}

func newMakeExamplesCmd() *cobra.Command {
	var flags makeExamplesFlags

	cmd := &cobra.Command{
		Use:   "make-examples",
		Short: "Generate pileup example shards for candidate variants",
		Long: "make-examples reads candidate variants from a VCF, builds one pileup image per " +
			"alt-allele combination with the child band stacked between the parents, and writes " +
			"the images as tf.Example records into sharded TFRecord files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMakeExamples(cmd, &flags)
		},
	}

	cmd.Flags().StringVar(&flags.ref, "ref", "", "Indexed FASTA reference (requires sibling .fai)")
	cmd.Flags().StringVar(&flags.candidates, "candidates", "", "VCF of candidate variant sites")
	cmd.Flags().StringVar(&flags.reads, "reads", "", "Child SAM file")
	cmd.Flags().StringVar(&flags.readsParent1, "reads-parent1", "", "Parent 1 SAM file")
	cmd.Flags().StringVar(&flags.readsParent2, "reads-parent2", "", "Parent 2 SAM file")
	cmd.Flags().StringVar(&flags.output, "output", "", "Output shard prefix")
	cmd.Flags().StringSliceVar(&flags.regions, "regions", nil,
		"Restrict to regions, e.g. chr20 or chr20:1,000,000-2,000,000")
	cmd.Flags().IntVar(&flags.shards, "shards", 0, "Number of output shards")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Number of concurrent shard workers")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

// applyFlags folds command-line overrides into the loaded config.
func applyFlags(cfg *config.Config, flags *makeExamplesFlags) {
	if flags.ref != "" {
		cfg.Reference = flags.ref
	}
	if flags.candidates != "" {
		cfg.Candidates = flags.candidates
	}
	if flags.reads != "" {
		cfg.Samples.Child.Reads = flags.reads
	}
	if flags.readsParent1 != "" {
		cfg.Samples.Parent1.Reads = flags.readsParent1
	}
	if flags.readsParent2 != "" {
		cfg.Samples.Parent2.Reads = flags.readsParent2
	}
	if flags.output != "" {
		cfg.Output.Prefix = flags.output
	}
	if flags.shards > 0 {
		cfg.Output.Shards = flags.shards
	}
	if flags.workers > 0 {
		cfg.Output.Workers = flags.workers
	}
}

// pileupOptions maps config knobs onto the creator's option set.
func pileupOptions(cfg *config.Config) *pileup.Options {
	opts := pileup.DefaultOptions()
	opts.Width = cfg.Pileup.Width
	opts.HeightChild = cfg.Pileup.HeightChild
	opts.HeightParent = cfg.Pileup.HeightParent
	opts.ReferenceBandHeight = cfg.Pileup.ReferenceBandHeight
	opts.ReadRequirements.MinBaseQuality = cfg.Pileup.MinBaseQuality
	opts.ReadRequirements.MinMappingQuality = cfg.Pileup.MinMappingQuality
	opts.AltAlignedPileup = cfg.Pileup.AltAlignedPileup
	opts.SortByHaplotypes = cfg.Pileup.SortByHaplotypes
	opts.RandomSeed = cfg.Pileup.RandomSeed
	if cfg.Pileup.MultiAllelicMode == "no_het_alt" {
		opts.MultiAllelicMode = pileup.NoHetAltImages
	}
	opts.Trio = cfg.Samples.Parent1.Reads != "" || cfg.Samples.Parent2.Reads != ""
	return opts
}

func runMakeExamples(cmd *cobra.Command, flags *makeExamplesFlags) error {
	applyFlags(cfg, flags)

	if cfg.Reference == "" || cfg.Candidates == "" || cfg.Samples.Child.Reads == "" {
		return fmt.Errorf("%w: ref, candidates and child reads are required", errors.ErrInvalidConfig)
	}

	ref, err := fasta.Open(cfg.Reference)
	if err != nil {
		return err
	}
	defer ref.Close()

	child, err := sam.OpenReader(cfg.Samples.Child.Reads)
	if err != nil {
		return err
	}
	log.Info("loaded child reads", "path", cfg.Samples.Child.Reads, "reads", child.Len())

	var parent1, parent2 pileup.ReadSource
	if cfg.Samples.Parent1.Reads != "" {
		r, err := sam.OpenReader(cfg.Samples.Parent1.Reads)
		if err != nil {
			return err
		}
		log.Info("loaded parent1 reads", "path", cfg.Samples.Parent1.Reads, "reads", r.Len())
		parent1 = r
	}
	if cfg.Samples.Parent2.Reads != "" {
		r, err := sam.OpenReader(cfg.Samples.Parent2.Reads)
		if err != nil {
			return err
		}
		log.Info("loaded parent2 reads", "path", cfg.Samples.Parent2.Reads, "reads", r.Len())
		parent2 = r
	}

	candidates, err := vcf.ReadAll(cfg.Candidates)
	if err != nil {
		return err
	}
	candidates, err = filterRegions(candidates, flags.regions, ref)
	if err != nil {
		return err
	}
	log.Info("loaded candidates", "path", cfg.Candidates, "count", len(candidates))

	creator, err := pileup.NewCreator(pileupOptions(cfg), ref, child, parent1, parent2)
	if err != nil {
		return err
	}

	p := pipeline.New(creator, child, pipeline.Options{
		OutputPrefix: cfg.Output.Prefix,
		Shards:       cfg.Output.Shards,
		Workers:      cfg.Output.Workers,
		Samples: example.SampleNames{
			Child:   cfg.Samples.Child.Name,
			Parent1: cfg.Samples.Parent1.Name,
			Parent2: cfg.Samples.Parent2.Name,
		},
		Progress: !flags.noProgress,
	}, log)

	stats, err := p.Run(cmd.Context(), candidates)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d images for %d candidates (%d skipped at chromosome edges)\n",
		stats.ImagesWritten, stats.Candidates, stats.SkippedOffEdge)
	return nil
}

// filterRegions keeps only candidates inside the requested regions. A bare
// contig name covers the whole contig.
func filterRegions(candidates []*genome.Variant, regions []string, ref *fasta.Reader) ([]*genome.Variant, error) {
	if len(regions) == 0 {
		return candidates, nil
	}
	ranges := make([]genome.Range, 0, len(regions))
	for _, s := range regions {
		r, err := genome.ParseRange(s)
		if err != nil {
			return nil, err
		}
		if r.End < 0 {
			entry, ok := ref.Index().Entry(r.Reference)
			if !ok {
				return nil, fmt.Errorf("%w: %s", errors.ErrUnknownReference, r.Reference)
			}
			r.End = entry.Length
		}
		ranges = append(ranges, r)
	}

	var kept []*genome.Variant
	for _, v := range candidates {
		for _, r := range ranges {
			if v.Range().Overlaps(r) {
				kept = append(kept, v)
				break
			}
		}
	}
	return kept, nil
}
