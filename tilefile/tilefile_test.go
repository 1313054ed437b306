package tilefile

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-blockreduce/blockreduce"
)

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data.tlf")
}

func TestCreateOpenRoundTrip(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 6, 4, 2)
	require.NoError(t, err)

	b := blockreduce.NewBlock(2, 4, 2)
	for i := range b.Data {
		b.Data[i] = float64(i) + 0.5
	}
	require.NoError(t, f.WriteRows(2, b))
	require.NoError(t, f.Close())

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, cols := f.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 2, f.Layers())
	assert.Equal(t, 8, f.ElemSize())

	got, err := f.ReadRows(2, 2)
	require.NoError(t, err)
	assert.Equal(t, b.Data, got.Data)
}

func TestCreatePreSizesFile(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 10, 3, 2)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(headerSize+10*3*2*8), info.Size())
}

func TestOpenRejectsBadSignature(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, make([]byte, 256), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrNotTileFile)
}

func TestOpenRejectsCorruptHeader(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 4, 4, 1)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Flip a byte inside the checksummed region.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[20] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestOpenRejectsUnknownVersion(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 4, 4, 1)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[8] = 99 // version byte follows the signature
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestCreateRejectsBadShape(t *testing.T) {
	_, err := Create(tempPath(t), 0, 4, 1)
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = Create(tempPath(t), 4, -1, 1)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestNoDataMapping(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 2, 2, 1, WithNoData(-9999))
	require.NoError(t, err)

	b := blockreduce.NewBlock(2, 2, 1)
	b.Set(0, 0, 0, 1.0)
	b.Set(0, 1, 0, math.NaN())
	b.Set(1, 0, 0, -9999) // equal to the sentinel, reads back missing
	b.Set(1, 1, 0, 2.0)
	require.NoError(t, f.WriteRows(0, b))
	require.NoError(t, f.Close())

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()

	noData, ok := f.NoData()
	assert.True(t, ok)
	assert.Equal(t, -9999.0, noData)

	got, err := f.ReadRows(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.At(0, 0, 0))
	assert.True(t, math.IsNaN(got.At(0, 1, 0)))
	assert.True(t, math.IsNaN(got.At(1, 0, 0)))
	assert.Equal(t, 2.0, got.At(1, 1, 0))
}

func TestWriteRequiresWritable(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 2, 2, 1)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = Open(path)
	require.NoError(t, err)
	defer f.Close()

	err = f.WriteRows(0, blockreduce.NewBlock(1, 2, 1))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestOperationsAfterClose(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 2, 2, 1)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close()) // idempotent

	_, err = f.ReadRows(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, f.WriteRows(0, blockreduce.NewBlock(1, 2, 1)), ErrClosed)
}

func TestRangeAndShapeChecks(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 4, 2, 1)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadRows(3, 2)
	assert.Error(t, err)
	_, err = f.ReadRows(-1, 1)
	assert.Error(t, err)

	assert.ErrorIs(t, f.WriteRows(0, blockreduce.NewBlock(1, 3, 1)), ErrInvalidShape)
	assert.ErrorIs(t, f.WriteRows(0, blockreduce.NewBlock(1, 2, 2)), ErrInvalidShape)
}

func TestOpenWritable(t *testing.T) {
	path := tempPath(t)

	f, err := Create(path, 3, 2, 1)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = OpenWritable(path)
	require.NoError(t, err)
	defer f.Close()

	b := blockreduce.NewBlock(1, 2, 1)
	b.Set(0, 0, 0, 7)
	require.NoError(t, f.WriteRows(1, b))

	got, err := f.ReadRows(1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.At(0, 0, 0))
}

func TestEndToEndReduction(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.tlf")
	outPath := filepath.Join(dir, "out.tlf")

	in, err := Create(inPath, 12, 3, 3, WithNoData(-9999))
	require.NoError(t, err)

	b := blockreduce.NewBlock(12, 3, 3)
	for r := 0; r < 12; r++ {
		for c := 0; c < 3; c++ {
			for l := 0; l < 3; l++ {
				b.Set(r, c, l, float64(r+c+l))
			}
		}
	}
	// One cell with a missing middle layer, one entirely missing.
	b.Set(5, 1, 1, math.NaN())
	for l := 0; l < 3; l++ {
		b.Set(9, 2, l, math.NaN())
	}
	require.NoError(t, in.WriteRows(0, b))

	out, err := Create(outPath, 12, 3, 1, WithNoData(-9999))
	require.NoError(t, err)

	plan, err := blockreduce.NewPlan(blockreduce.DescriptorOf(in),
		blockreduce.AbsoluteBudget(256*datasize.B))
	require.NoError(t, err)
	require.Greater(t, plan.Blocks(), 1)

	r, err := blockreduce.New(in, out)
	require.NoError(t, err)
	require.NoError(t, r.Reduce(context.Background(), plan, blockreduce.Mean))

	require.NoError(t, in.Close())
	require.NoError(t, out.Close())

	// Reopen and verify, including the sentinel round-trip for the
	// all-missing cell.
	got, err := Open(outPath)
	require.NoError(t, err)
	defer got.Close()

	res, err := got.ReadRows(0, 12)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.At(0, 0, 0))       // mean of 0,1,2
	assert.Equal(t, 7.0, res.At(5, 1, 0))       // mean of 6,8 with layer 1 missing
	assert.True(t, math.IsNaN(res.At(9, 2, 0))) // all layers missing
	assert.Equal(t, 11.0, res.At(9, 1, 0))      // mean of 10,11,12
}
