package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Volumes are stored in a little-endian raw layout. Scalar files (.rvf)
// carry "RVF1", int32 dimensions, float32 spacing and the voxel values.
// Velocity files (.rvv) carry "RVV1", the same header, a component count
// and that many float32 values per voxel.
const (
	magicScalar = "RVF1"
	magicVector = "RVV1"

	// maxVoxels guards allocations against corrupt headers.
	maxVoxels = 1 << 28
)

type rawHeader struct {
	Dims    [3]int32
	Spacing [3]float32
}

// Load reads a scalar volume from disk. The format is chosen by extension.
func Load(path string) (*Field, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rvf":
	default:
		return nil, fmt.Errorf("%w: extension %q", ErrUnknownFormat, filepath.Ext(path))
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer fh.Close()

	f, err := ReadScalar(bufio.NewReader(fh))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	f.Name = filepath.Base(path)
	return f, nil
}

// ReadScalar parses a scalar volume from an .rvf stream.
func ReadScalar(r io.Reader) (*Field, error) {
	hdr, err := readHeader(r, magicScalar)
	if err != nil {
		return nil, err
	}

	n := int(hdr.Dims[0]) * int(hdr.Dims[1]) * int(hdr.Dims[2])
	scalars := make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, scalars); err != nil {
		return nil, fmt.Errorf("reading %d scalars: %w", n, err)
	}

	f := &Field{
		Dims:    [3]int{int(hdr.Dims[0]), int(hdr.Dims[1]), int(hdr.Dims[2])},
		Spacing: mgl32.Vec3{hdr.Spacing[0], hdr.Spacing[1], hdr.Spacing[2]},
		Scalars: scalars,
	}
	f.rescan()
	return f, nil
}

// AttachVelocity loads a velocity volume from disk and attaches it to the
// field. The velocity grid must match the scalar grid voxel for voxel.
func (f *Field) AttachVelocity(path string) error {
	if f == nil || len(f.Scalars) == 0 {
		return ErrNoDataset
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".rvv":
	default:
		return fmt.Errorf("%w: extension %q", ErrUnknownFormat, filepath.Ext(path))
	}

	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening velocity dataset: %w", err)
	}
	defer fh.Close()

	if err := f.AttachVelocityFrom(bufio.NewReader(fh)); err != nil {
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return nil
}

// AttachVelocityFrom parses an .rvv stream and attaches it to the field.
func (f *Field) AttachVelocityFrom(r io.Reader) error {
	if f == nil || len(f.Scalars) == 0 {
		return ErrNoDataset
	}

	hdr, err := readHeader(r, magicVector)
	if err != nil {
		return err
	}

	if int(hdr.Dims[0]) != f.Dims[0] || int(hdr.Dims[1]) != f.Dims[1] || int(hdr.Dims[2]) != f.Dims[2] {
		return fmt.Errorf("%w: vel: %dx%dx%d, data: %dx%dx%d", ErrDimensionMismatch,
			hdr.Dims[0], hdr.Dims[1], hdr.Dims[2], f.Dims[0], f.Dims[1], f.Dims[2])
	}
	if hdr.Dims[0] <= 1 || hdr.Dims[1] <= 1 || hdr.Dims[2] <= 1 {
		return fmt.Errorf("%w: %dx%dx%d", ErrNotThreeDimensional, hdr.Dims[0], hdr.Dims[1], hdr.Dims[2])
	}

	var comps int32
	if err := binary.Read(r, binary.LittleEndian, &comps); err != nil {
		return fmt.Errorf("reading component count: %w", err)
	}
	if comps != 3 {
		return fmt.Errorf("%w: %d components per voxel", ErrNoVectorData, comps)
	}

	n := f.Dims[0] * f.Dims[1] * f.Dims[2] * 3
	vectors := make([]float32, n)
	if err := binary.Read(r, binary.LittleEndian, vectors); err != nil {
		return fmt.Errorf("reading %d vector components: %w", n, err)
	}

	f.Vectors = vectors
	return nil
}

func readHeader(r io.Reader, magic string) (rawHeader, error) {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return rawHeader{}, fmt.Errorf("reading magic: %w", err)
	}
	if string(got[:]) != magic {
		return rawHeader{}, fmt.Errorf("%w: magic %q", ErrUnknownFormat, got)
	}

	var hdr rawHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return rawHeader{}, fmt.Errorf("reading header: %w", err)
	}

	n := int64(hdr.Dims[0]) * int64(hdr.Dims[1]) * int64(hdr.Dims[2])
	if hdr.Dims[0] < 1 || hdr.Dims[1] < 1 || hdr.Dims[2] < 1 || n > maxVoxels {
		return rawHeader{}, fmt.Errorf("invalid dimensions %dx%dx%d", hdr.Dims[0], hdr.Dims[1], hdr.Dims[2])
	}
	return hdr, nil
}

// WriteScalar writes the scalar volume in .rvf layout.
func (f *Field) WriteScalar(w io.Writer) error {
	if err := writeHeader(w, magicScalar, f); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, f.Scalars)
}

// WriteVelocity writes the attached vectors in .rvv layout.
func (f *Field) WriteVelocity(w io.Writer) error {
	if f.Vectors == nil {
		return ErrNoVectorData
	}
	if err := writeHeader(w, magicVector, f); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(3)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, f.Vectors)
}

// Save writes the scalar volume to a file in .rvf layout.
func (f *Field) Save(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset file: %w", err)
	}
	w := bufio.NewWriter(fh)
	if err := f.WriteScalar(w); err != nil {
		fh.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func writeHeader(w io.Writer, magic string, f *Field) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	hdr := rawHeader{
		Dims:    [3]int32{int32(f.Dims[0]), int32(f.Dims[1]), int32(f.Dims[2])},
		Spacing: [3]float32{f.Spacing[0], f.Spacing[1], f.Spacing[2]},
	}
	return binary.Write(w, binary.LittleEndian, &hdr)
}
