// Package fasta reads reference bases out of a FASTA file through its .fai
// index, so pileup windows never load whole contigs into memory.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/pkg/errors"
)

// IndexEntry is one contig line of a samtools faidx index.
type IndexEntry struct {
	Name      string
	Length    int64
	Offset    int64 // byte offset of the first sequence base
	LineBases int64 // bases per sequence line
	LineWidth int64 // bytes per sequence line including the newline
}

// Index maps contig names to their index entries, keeping input order.
type Index struct {
	entries map[string]IndexEntry
	order   []string
}

// LoadIndex parses a .fai file.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrMissingIndex, path)
		}
		return nil, errors.NewReaderError(path, "open", err)
	}
	defer f.Close()

	idx := &Index{entries: make(map[string]IndexEntry)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			return nil, errors.NewReaderError(path, "parse",
				fmt.Errorf("index line has %d fields, want 5", len(fields)))
		}
		nums := make([]int64, 4)
		for i, field := range fields[1:5] {
			n, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, errors.NewReaderError(path, "parse", err)
			}
			nums[i] = n
		}
		entry := IndexEntry{
			Name:      fields[0],
			Length:    nums[0],
			Offset:    nums[1],
			LineBases: nums[2],
			LineWidth: nums[3],
		}
		idx.entries[entry.Name] = entry
		idx.order = append(idx.order, entry.Name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewReaderError(path, "scan", err)
	}
	return idx, nil
}

// Entry looks up a contig by name.
func (i *Index) Entry(name string) (IndexEntry, bool) {
	e, ok := i.entries[name]
	return e, ok
}

// Names returns contig names in index order.
func (i *Index) Names() []string {
	return i.order
}

// Reader serves random-access base queries against an indexed FASTA file.
// Query is safe for concurrent use; the seek position is guarded.
type Reader struct {
	path  string
	file  *os.File
	index *Index
	mu    sync.Mutex
}

// Open opens path and its sibling index (path + ".fai").
func Open(path string) (*Reader, error) {
	index, err := LoadIndex(path + ".fai")
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewReaderError(path, "open", err)
	}
	return &Reader{path: path, file: f, index: index}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Index exposes the loaded index.
func (r *Reader) Index() *Index {
	return r.index
}

// IsValid reports whether the range lies fully inside a known contig.
func (r *Reader) IsValid(rng genome.Range) bool {
	entry, ok := r.index.Entry(rng.Reference)
	if !ok {
		return false
	}
	return rng.Start >= 0 && rng.End >= rng.Start && rng.End <= entry.Length
}

// Query returns the uppercased bases covering rng.
func (r *Reader) Query(rng genome.Range) (string, error) {
	entry, ok := r.index.Entry(rng.Reference)
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownReference, rng.Reference)
	}
	if !r.IsValid(rng) {
		return "", errors.NewRegionError(rng.String(), "query",
			fmt.Errorf("%w: outside contig of length %d", errors.ErrInvalidRange, entry.Length))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	offset := entry.Offset + (rng.Start/entry.LineBases)*entry.LineWidth + rng.Start%entry.LineBases
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return "", errors.NewReaderError(r.path, "seek", err)
	}

	want := int(rng.Width())
	bases := make([]byte, 0, want)
	buf := bufio.NewReader(r.file)
	for len(bases) < want {
		b, err := buf.ReadByte()
		if err != nil {
			return "", errors.NewReaderError(r.path, "read", err)
		}
		if b == '\n' || b == '\r' {
			continue
		}
		bases = append(bases, b)
	}
	return strings.ToUpper(string(bases)), nil
}
