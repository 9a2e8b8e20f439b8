package photonmap

import (
	"errors"
	"fmt"

	"github.com/df07/go-light-transport/pkg/core"
)

// Photon is a light particle deposited on a diffuse surface
type Photon struct {
	Position  core.Vec3 // Where the photon landed
	Direction core.Vec3 // Unit direction pointing back toward where the photon came from
	Power     core.Vec3 // Unnormalized flux carried by the photon
}

var (
	// ErrBuilt is raised when photons are pushed into an index that is already built
	ErrBuilt = errors.New("photon index is already built")
	// ErrNotBuilt is raised when an index is searched before Build
	ErrNotBuilt = errors.New("photon index is not built")
	// ErrUnknownIndex is returned by NewIndex for an unregistered backend
	ErrUnknownIndex = errors.New("unknown photon index")
)

// Index is a point spatial index over photons. Photons are pushed, the index is built
// once, and afterwards it is immutable and safe for concurrent searches.
type Index interface {
	// Reserve grows the capacity for n more photons
	Reserve(n int)
	// Push appends a photon; it panics with ErrBuilt after Build
	Push(p Photon)
	// Build finalizes the index for searching
	Build()
	// Search appends to results the index of every photon within radius of p and returns
	// the extended slice. It panics with ErrNotBuilt before Build.
	Search(p core.Vec3, radius float64, results []int) []int
	// Len returns the number of photons stored
	Len() int
	// Photon returns the photon at index i, as reported by Search
	Photon(i int) Photon
	// Built reports whether Build has been called
	Built() bool
}

// Index backend names
const (
	IndexKDTree = "kdtree"
	IndexRTree  = "rtree"
)

// NewIndex creates an empty photon index of the given kind ("kdtree" or "rtree")
func NewIndex(kind string) (Index, error) {
	switch kind {
	case IndexKDTree, "":
		return NewKDTree(), nil
	case IndexRTree:
		return NewRTreeIndex(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, kind)
	}
}
