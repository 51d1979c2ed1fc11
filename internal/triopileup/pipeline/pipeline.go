// Package pipeline drives example generation end to end: it shards the
// candidate list, builds pileup images for each candidate on a bounded worker
// pool, and writes the resulting examples into per-shard TFRecord files.
package pipeline

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/seqforge/triopileup/internal/triopileup/example"
	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/internal/triopileup/pileup"
	"github.com/seqforge/triopileup/internal/triopileup/tfrecord"
	"github.com/seqforge/triopileup/pkg/errors"
	"github.com/seqforge/triopileup/pkg/logger"
)

// Options configures one pipeline run.
type Options struct {
	OutputPrefix string
	Shards       int
	Workers      int
	Samples      example.SampleNames
	Progress     bool
}

// Stats counts what a run did. Fields are updated atomically by the workers.
type Stats struct {
	Candidates     int64
	ImagesWritten  int64
	SkippedOffEdge int64
	SupportedCalls int64
}

// Pipeline owns the creator and the child read source used to recompute
// allele support per candidate.
type Pipeline struct {
	creator *pileup.Creator
	child   pileup.ReadSource
	opts    Options
	log     *logger.Logger
}

// New wires a pipeline. child is the same source the creator queries for the
// child band; it is used again here to derive allele support.
func New(creator *pileup.Creator, child pileup.ReadSource, opts Options, log *logger.Logger) *Pipeline {
	if opts.Shards < 1 {
		opts.Shards = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{creator: creator, child: child, opts: opts, log: log}
}

// Run produces all shards for the given candidates. A candidate whose window
// runs off the chromosome edge is counted and skipped; any other failure
// aborts the run.
func (p *Pipeline) Run(ctx context.Context, candidates []*genome.Variant) (*Stats, error) {
	stats := &Stats{}

	var bar *progressbar.ProgressBar
	if p.opts.Progress {
		bar = progressbar.NewOptions(len(candidates),
			progressbar.OptionSetDescription("pileup"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	shards := splitShards(candidates, p.opts.Shards)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, shard := range shards {
		g.Go(func() error {
			return p.runShard(ctx, i, shard, stats, bar)
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	if bar != nil {
		_ = bar.Finish()
	}
	p.log.Info("pipeline complete",
		"candidates", atomic.LoadInt64(&stats.Candidates),
		"images", atomic.LoadInt64(&stats.ImagesWritten),
		"skippedOffEdge", atomic.LoadInt64(&stats.SkippedOffEdge),
		"shards", len(shards))
	return stats, nil
}

func (p *Pipeline) runShard(ctx context.Context, shard int, candidates []*genome.Variant,
	stats *Stats, bar *progressbar.ProgressBar) error {

	path := tfrecord.ShardName(p.opts.OutputPrefix, shard, p.opts.Shards)
	writer, err := tfrecord.CreateFile(path)
	if err != nil {
		return err
	}

	log := p.log.WithField("shard", shard)
	log.Debug("shard started", "candidates", len(candidates), "path", path)

	for _, v := range candidates {
		select {
		case <-ctx.Done():
			writer.Close()
			return ctx.Err()
		default:
		}

		if err := p.processCandidate(v, writer, stats); err != nil {
			writer.Close()
			return errors.NewPileupError(v.Range().String(), "make example", err)
		}
		atomic.AddInt64(&stats.Candidates, 1)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	log.Debug("shard finished", "records", writer.Count())
	return writer.Close()
}

func (p *Pipeline) processCandidate(v *genome.Variant, writer *tfrecord.FileWriter, stats *Stats) error {
	reads, err := p.child.Query(p.creator.QueryWindow(v))
	if err != nil {
		return err
	}
	support := genome.ComputeAlleleSupport(v, reads)
	if len(support) > 0 {
		atomic.AddInt64(&stats.SupportedCalls, 1)
	}

	call := genome.NewCall(*v, support)
	images, err := p.creator.CreatePileupImages(call, nil)
	if err != nil {
		return err
	}
	if images == nil {
		atomic.AddInt64(&stats.SkippedOffEdge, 1)
		return nil
	}

	for _, alt := range images {
		if err := writer.WriteRecord(example.FromPileup(call, alt, p.opts.Samples)); err != nil {
			return err
		}
		atomic.AddInt64(&stats.ImagesWritten, 1)
	}
	return nil
}

// splitShards divides candidates into exactly n contiguous chunks. Trailing
// chunks may be empty; every shard file named name-K-of-N still exists, which
// downstream shard-glob readers rely on.
func splitShards(candidates []*genome.Variant, n int) [][]*genome.Variant {
	shards := make([][]*genome.Variant, n)
	per := len(candidates) / n
	extra := len(candidates) % n
	start := 0
	for i := 0; i < n; i++ {
		size := per
		if i < extra {
			size++
		}
		shards[i] = candidates[start : start+size]
		start += size
	}
	return shards
}
