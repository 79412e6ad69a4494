package dataset

import "errors"

// Loading and sampling failures callers are expected to branch on.
var (
	// ErrUnknownFormat marks a file extension or magic number no reader
	// understands.
	ErrUnknownFormat = errors.New("dataset: unknown format")

	// ErrNoDataset marks velocity loading before any scalar volume exists.
	ErrNoDataset = errors.New("dataset: no dataset currently loaded")

	// ErrDimensionMismatch marks a velocity grid that does not line up with
	// the scalar grid voxel for voxel.
	ErrDimensionMismatch = errors.New("dataset: dimensions do not match")

	// ErrNotThreeDimensional marks a flat velocity volume.
	ErrNotThreeDimensional = errors.New("dataset: velocity data is not 3D")

	// ErrNoVectorData marks a velocity file without usable 3-vectors.
	ErrNoVectorData = errors.New("dataset: no vectors found")

	// ErrOutOfBounds marks sampling outside the grid.
	ErrOutOfBounds = errors.New("dataset: coordinates out of bounds")
)
