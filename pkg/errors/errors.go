// Package errors provides standardized error handling for the triopileup
// pipeline. It defines sentinel errors for common failure conditions and typed
// wrapper errors that carry the locus or file involved, following Go 1.20+
// error wrapping conventions.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// Coordinate and schema errors
	ErrInvalidRange     = errors.New("invalid genomic range")
	ErrUnknownReference = errors.New("unknown reference sequence")
	ErrMalformedRead    = errors.New("malformed read record")
	ErrMalformedVariant = errors.New("malformed variant record")

	// Pileup construction errors
	ErrInvalidOptions        = errors.New("invalid pileup options")
	ErrInvalidAltAllele      = errors.New("alt allele not declared by variant")
	ErrEmptyAltAlleles       = errors.New("alt alleles cannot be empty")
	ErrReferenceMismatch     = errors.New("reference window does not match variant")
	ErrShapeMismatch         = errors.New("pileup images have mismatched shapes")
	ErrUnspecifiedAlleleMode = errors.New("multi-allelic mode cannot be unspecified")
	ErrInvalidAltAlignedMode = errors.New("invalid alt-aligned pileup representation")

	// Input and output errors
	ErrMissingIndex   = errors.New("reference index not found")
	ErrCorruptRecord  = errors.New("corrupt tfrecord entry")
	ErrInvalidExample = errors.New("invalid example encoding")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// RegionError represents an error tied to a specific genomic region
type RegionError struct {
	Region    string
	Operation string
	Err       error
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("region %s: operation %s: %v", e.Region, e.Operation, e.Err)
}

func (e *RegionError) Unwrap() error {
	return e.Err
}

// NewRegionError creates a RegionError with the given details
func NewRegionError(region, operation string, err error) *RegionError {
	return &RegionError{Region: region, Operation: operation, Err: err}
}

// ReaderError represents an error raised while reading an input file
type ReaderError struct {
	Path      string
	Operation string
	Err       error
}

func (e *ReaderError) Error() string {
	return fmt.Sprintf("reader %s: operation %s: %v", e.Path, e.Operation, e.Err)
}

func (e *ReaderError) Unwrap() error {
	return e.Err
}

// NewReaderError creates a ReaderError with the given details
func NewReaderError(path, operation string, err error) *ReaderError {
	return &ReaderError{Path: path, Operation: operation, Err: err}
}

// PileupError represents a failure while building images for one candidate
type PileupError struct {
	Locus     string
	Operation string
	Err       error
}

func (e *PileupError) Error() string {
	return fmt.Sprintf("pileup %s: operation %s: %v", e.Locus, e.Operation, e.Err)
}

func (e *PileupError) Unwrap() error {
	return e.Err
}

// NewPileupError creates a PileupError with the given details
func NewPileupError(locus, operation string, err error) *PileupError {
	return &PileupError{Locus: locus, Operation: operation, Err: err}
}

// IsValidation reports whether err stems from malformed input rather than an
// I/O or environment failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrMalformedRead) ||
		errors.Is(err, ErrMalformedVariant) ||
		errors.Is(err, ErrInvalidOptions) ||
		errors.Is(err, ErrInvalidAltAllele) ||
		errors.Is(err, ErrEmptyAltAlleles) ||
		errors.Is(err, ErrReferenceMismatch) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsCorruption reports whether err indicates damaged on-disk data.
func IsCorruption(err error) bool {
	return errors.Is(err, ErrCorruptRecord) || errors.Is(err, ErrInvalidExample)
}

// IsCanceled reports whether err came from context cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Re-exported stdlib helpers so callers need a single errors import.

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new error with the given message
func New(text string) error {
	return errors.New(text)
}
