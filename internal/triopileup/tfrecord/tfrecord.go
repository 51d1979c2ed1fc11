// Package tfrecord reads and writes the TFRecord framing used for example
// shards: a little-endian length, its masked CRC32-C, the payload, and the
// payload's masked CRC32-C. Shards are gzip-compressed with
// klauspost/compress, which TensorFlow readers accept transparently.
package tfrecord

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/seqforge/triopileup/pkg/errors"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maxRecordSize bounds a single record so a corrupt length header cannot
// trigger a huge allocation.
const maxRecordSize = 1 << 30

// maskedCRC computes the masked CRC32-C the TFRecord format requires.
func maskedCRC(data []byte) uint32 {
	crc := crc32.Checksum(data, castagnoli)
	return ((crc >> 15) | (crc << 17)) + 0xa282ead8
}

// Writer frames records onto an io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter creates a bare (uncompressed) record writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRecord frames and writes one record payload.
func (w *Writer) WriteRecord(data []byte) error {
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(data)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))
	if _, err := w.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], maskedCRC(data))
	_, err := w.w.Write(footer[:])
	return err
}

// Reader unframes records from an io.Reader, verifying both checksums.
type Reader struct {
	r io.Reader
}

// NewReader creates a bare (uncompressed) record reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadRecord returns the next record payload, or io.EOF at a clean end of
// stream.
func (r *Reader) ReadRecord() ([]byte, error) {
	var header [12]byte
	if _, err := io.ReadFull(r.r, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: truncated length header", errors.ErrCorruptRecord)
		}
		return nil, err
	}
	if binary.LittleEndian.Uint32(header[8:]) != maskedCRC(header[:8]) {
		return nil, fmt.Errorf("%w: length checksum mismatch", errors.ErrCorruptRecord)
	}

	length := binary.LittleEndian.Uint64(header[:8])
	if length > maxRecordSize {
		return nil, fmt.Errorf("%w: record length %d exceeds limit", errors.ErrCorruptRecord, length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, fmt.Errorf("%w: truncated payload", errors.ErrCorruptRecord)
	}

	var footer [4]byte
	if _, err := io.ReadFull(r.r, footer[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated payload checksum", errors.ErrCorruptRecord)
	}
	if binary.LittleEndian.Uint32(footer[:]) != maskedCRC(data) {
		return nil, fmt.Errorf("%w: payload checksum mismatch", errors.ErrCorruptRecord)
	}
	return data, nil
}

// ShardName renders the conventional sharded output name, e.g.
// "examples-00002-of-00016.tfrecord.gz".
func ShardName(prefix string, shard, total int) string {
	return fmt.Sprintf("%s-%05d-of-%05d.tfrecord.gz", prefix, shard, total)
}

// FileWriter writes gzip-compressed records to a shard file.
type FileWriter struct {
	file   *os.File
	gz     *gzip.Writer
	writer *Writer
	count  int
}

// CreateFile creates a gzip shard at path, truncating any existing file.
func CreateFile(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewReaderError(path, "create", err)
	}
	gz := gzip.NewWriter(f)
	return &FileWriter{file: f, gz: gz, writer: NewWriter(gz)}, nil
}

// WriteRecord appends one record to the shard.
func (fw *FileWriter) WriteRecord(data []byte) error {
	if err := fw.writer.WriteRecord(data); err != nil {
		return err
	}
	fw.count++
	return nil
}

// Count returns the number of records written so far.
func (fw *FileWriter) Count() int {
	return fw.count
}

// Close flushes the gzip stream and closes the file.
func (fw *FileWriter) Close() error {
	if err := fw.gz.Close(); err != nil {
		fw.file.Close()
		return err
	}
	return fw.file.Close()
}

// OpenFile opens a gzip shard for reading.
func OpenFile(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewReaderError(path, "open", err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.NewReaderError(path, "gunzip", err)
	}
	return &FileReader{file: f, gz: gz, reader: NewReader(gz)}, nil
}

// FileReader reads gzip-compressed records from a shard file.
type FileReader struct {
	file   *os.File
	gz     *gzip.Reader
	reader *Reader
}

// ReadRecord returns the next record, or io.EOF at end of shard.
func (fr *FileReader) ReadRecord() ([]byte, error) {
	return fr.reader.ReadRecord()
}

// Close closes the gzip stream and the file.
func (fr *FileReader) Close() error {
	if err := fr.gz.Close(); err != nil {
		fr.file.Close()
		return err
	}
	return fr.file.Close()
}
