package tilefile

import (
	"bytes"
	"fmt"
	"math"

	binpkg "github.com/robert-malhotra/go-blockreduce/internal/binary"
)

// Tile file signature: 0x89 T L F \r \n 0x1a \n
var signature = []byte{0x89, 'T', 'L', 'F', '\r', '\n', 0x1a, '\n'}

const (
	// formatVersion is the only version this package reads and writes.
	formatVersion = 0

	// headerSize is the fixed header length; data starts right after it.
	// Signature(8) + Version(1) + ElemSize(1) + Flags(2) + Rows(8) +
	// Cols(8) + Layers(8) + NoData(8) + Reserved(16) + Checksum(4).
	headerSize = 64

	// checksumOffset is where the lookup3 checksum of the preceding
	// header bytes lives.
	checksumOffset = headerSize - 4

	flagNoData = uint16(1 << 0)
)

// header is the decoded tile file header.
type header struct {
	elemSize  int
	rows      int
	cols      int
	layers    int
	noData    float64
	hasNoData bool
}

func (h *header) validate() error {
	if h.rows < 1 || h.cols < 1 || h.layers < 1 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidShape, h.rows, h.cols, h.layers)
	}
	if h.elemSize != 8 {
		return fmt.Errorf("%w: element size %d", ErrInvalidShape, h.elemSize)
	}
	return nil
}

// readHeader parses and verifies the header at the start of the file.
func readHeader(r *binpkg.Reader) (*header, error) {
	raw, err := r.At(0).ReadBytes(headerSize)
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	if !bytes.Equal(raw[:len(signature)], signature) {
		return nil, ErrNotTileFile
	}

	br := binpkg.NewReader(bytesAt(raw)).At(int64(len(signature)))
	version, _ := br.ReadUint8()
	if version != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	computed := binpkg.Lookup3Checksum(raw[:checksumOffset])
	stored, err := binpkg.NewReader(bytesAt(raw)).At(checksumOffset).ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading checksum: %w", err)
	}
	if computed != stored {
		return nil, fmt.Errorf("%w: computed 0x%08x, stored 0x%08x", ErrChecksum, computed, stored)
	}

	h := &header{}
	elemSize, _ := br.ReadUint8()
	h.elemSize = int(elemSize)
	flags, _ := br.ReadUint16()
	h.hasNoData = flags&flagNoData != 0

	rows, _ := br.ReadUint64()
	cols, _ := br.ReadUint64()
	layers, _ := br.ReadUint64()
	h.rows = int(rows)
	h.cols = int(cols)
	h.layers = int(layers)

	bits, _ := br.ReadUint64()
	h.noData = math.Float64frombits(bits)

	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// writeHeader encodes the header, checksums it, and writes it at offset 0.
func writeHeader(w *binpkg.Writer, h *header) error {
	raw := make([]byte, headerSize)
	buf := &sliceWriterAt{buf: raw}
	bw := binpkg.NewWriter(buf)

	if err := bw.WriteBytes(signature); err != nil {
		return err
	}
	if err := bw.WriteUint8(formatVersion); err != nil {
		return err
	}
	if err := bw.WriteUint8(uint8(h.elemSize)); err != nil {
		return err
	}
	flags := uint16(0)
	if h.hasNoData {
		flags |= flagNoData
	}
	if err := bw.WriteUint16(flags); err != nil {
		return err
	}
	if err := bw.WriteUint64(uint64(h.rows)); err != nil {
		return err
	}
	if err := bw.WriteUint64(uint64(h.cols)); err != nil {
		return err
	}
	if err := bw.WriteUint64(uint64(h.layers)); err != nil {
		return err
	}
	if err := bw.WriteUint64(math.Float64bits(h.noData)); err != nil {
		return err
	}
	// Reserved bytes stay zero.

	checksum := binpkg.Lookup3Checksum(raw[:checksumOffset])
	if err := bw.At(checksumOffset).WriteUint32(checksum); err != nil {
		return err
	}

	if err := w.At(0).WriteBytes(raw); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	return nil
}

// bytesAt adapts a byte slice to io.ReaderAt.
type bytesAt []byte

func (b bytesAt) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(b)) {
		return 0, nil
	}
	return copy(p, b[off:]), nil
}

// sliceWriterAt adapts a fixed byte slice to io.WriterAt.
type sliceWriterAt struct {
	buf []byte
}

func (s *sliceWriterAt) WriteAt(p []byte, off int64) (int, error) {
	return copy(s.buf[off:], p), nil
}
