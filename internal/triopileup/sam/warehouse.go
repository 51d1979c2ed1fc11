package sam

import (
	"sort"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
)

// Warehouse is an in-memory read source, used by tests and by haplotype
// realignment outputs that never touch disk.
type Warehouse struct {
	byRef map[string][]*genome.Read
}

// NewWarehouse builds a warehouse over the given reads.
func NewWarehouse(reads ...*genome.Read) *Warehouse {
	w := &Warehouse{byRef: make(map[string][]*genome.Read)}
	for _, read := range reads {
		w.Add(read)
	}
	return w
}

// Add inserts a read, keeping per-reference position order.
func (w *Warehouse) Add(read *genome.Read) {
	reads := append(w.byRef[read.Reference], read)
	sort.SliceStable(reads, func(i, j int) bool {
		return reads[i].Position < reads[j].Position
	})
	w.byRef[read.Reference] = reads
}

// Query returns the reads overlapping rng in position order.
func (w *Warehouse) Query(rng genome.Range) ([]*genome.Read, error) {
	var out []*genome.Read
	for _, read := range w.byRef[rng.Reference] {
		if read.Position >= rng.End {
			break
		}
		if read.Range().Overlaps(rng) {
			out = append(out, read)
		}
	}
	return out, nil
}
