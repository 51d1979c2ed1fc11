package sam

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/pkg/errors"
)

// Reader holds the reads of one SAM file in memory, grouped by reference and
// sorted by position, and answers overlap queries. Duplicate-flagged reads
// are dropped at load time.
type Reader struct {
	path    string
	byRef   map[string][]*genome.Read
	total   int
	skipped int
}

// OpenReader loads path into memory.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewReaderError(path, "open", err)
	}
	defer f.Close()

	r := &Reader{path: path, byRef: make(map[string][]*genome.Read)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		read, err := ParseRecord(line)
		if err != nil {
			return nil, errors.NewReaderError(path, "parse", err)
		}
		if read.Unmapped || read.Duplicate {
			r.skipped++
			continue
		}
		r.byRef[read.Reference] = append(r.byRef[read.Reference], read)
		r.total++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewReaderError(path, "scan", err)
	}

	for _, reads := range r.byRef {
		sort.SliceStable(reads, func(i, j int) bool {
			return reads[i].Position < reads[j].Position
		})
	}
	return r, nil
}

// Len returns the number of mapped reads loaded.
func (r *Reader) Len() int {
	return r.total
}

// Query returns the reads overlapping rng in position order.
func (r *Reader) Query(rng genome.Range) ([]*genome.Read, error) {
	reads := r.byRef[rng.Reference]
	var out []*genome.Read
	for _, read := range reads {
		if read.Position >= rng.End {
			break
		}
		if read.Range().Overlaps(rng) {
			out = append(out, read)
		}
	}
	return out, nil
}
