// Package vcf loads candidate variant sites from VCF text. Only CHROM, POS,
// REF and ALT are used; genotype columns and INFO annotations are ignored
// because support is recomputed from the child's reads.
package vcf

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/seqforge/triopileup/internal/triopileup/genome"
	"github.com/seqforge/triopileup/pkg/errors"
)

// ReadAll parses every usable variant record in path. Records with symbolic
// or missing alternates (e.g. "<DEL>", ".") are skipped, mirroring how the
// pileup stage can only draw sequence-resolved alleles.
func ReadAll(path string) ([]*genome.Variant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewReaderError(path, "open", err)
	}
	defer f.Close()

	var variants []*genome.Variant
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, ok, err := parseRecord(line)
		if err != nil {
			return nil, errors.NewReaderError(path, fmt.Sprintf("parse line %d", lineno), err)
		}
		if ok {
			variants = append(variants, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewReaderError(path, "scan", err)
	}
	return variants, nil
}

func parseRecord(line string) (*genome.Variant, bool, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 5 {
		return nil, false, fmt.Errorf("%w: record has %d fields, want at least 5",
			errors.ErrMalformedVariant, len(fields))
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || pos < 1 {
		return nil, false, fmt.Errorf("%w: bad position %q", errors.ErrMalformedVariant, fields[1])
	}

	ref := strings.ToUpper(fields[3])
	if ref == "" || ref == "." || strings.ContainsAny(ref, "<>[]") {
		return nil, false, nil
	}

	var alts []string
	for _, alt := range strings.Split(fields[4], ",") {
		alt = strings.ToUpper(strings.TrimSpace(alt))
		if alt == "" || alt == "." || alt == "*" || strings.ContainsAny(alt, "<>[]") {
			continue
		}
		alts = append(alts, alt)
	}
	if len(alts) == 0 {
		return nil, false, nil
	}

	v := &genome.Variant{
		Reference:      fields[0],
		Start:          pos - 1,
		End:            pos - 1 + int64(len(ref)),
		ReferenceBases: ref,
		AlternateBases: alts,
	}
	if err := v.Validate(); err != nil {
		return nil, false, err
	}
	return v, true, nil
}
