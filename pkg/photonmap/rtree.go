package photonmap

import (
	"github.com/dhconnelly/rtreego"

	"github.com/df07/go-light-transport/pkg/core"
)

// R-tree fan-out
const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

// photonBoundsTolerance inflates each photon to a tiny box; searches filter by exact distance
const photonBoundsTolerance = 1e-9

// photonEntry is the rtreego view of a stored photon
type photonEntry struct {
	index int
	rect  rtreego.Rect
}

func (e *photonEntry) Bounds() rtreego.Rect {
	return e.rect
}

// RTreeIndex is a photon index backed by a bulk-loaded R-tree. A radius search queries
// the bounding cube of the sphere and keeps the photons inside the sphere.
type RTreeIndex struct {
	photons []Photon
	tree    *rtreego.Rtree
}

// NewRTreeIndex creates an empty R-tree photon index
func NewRTreeIndex() *RTreeIndex {
	return &RTreeIndex{}
}

func (r *RTreeIndex) Reserve(n int) {
	if cap(r.photons)-len(r.photons) >= n {
		return
	}
	grown := make([]Photon, len(r.photons), len(r.photons)+n)
	copy(grown, r.photons)
	r.photons = grown
}

func (r *RTreeIndex) Push(p Photon) {
	if r.tree != nil {
		panic(ErrBuilt)
	}
	r.photons = append(r.photons, p)
}

// Build bulk-loads every photon into the tree
func (r *RTreeIndex) Build() {
	if r.tree != nil {
		return
	}
	entries := make([]rtreego.Spatial, len(r.photons))
	for i, p := range r.photons {
		entries[i] = &photonEntry{index: i, rect: toPoint(p.Position).ToRect(photonBoundsTolerance)}
	}
	r.tree = rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren, entries...)
}

func (r *RTreeIndex) Search(p core.Vec3, radius float64, results []int) []int {
	if r.tree == nil {
		panic(ErrNotBuilt)
	}
	if radius <= 0 || len(r.photons) == 0 {
		return results
	}
	radius2 := radius * radius

	for _, s := range r.tree.SearchIntersect(toPoint(p).ToRect(radius)) {
		entry := s.(*photonEntry)
		if r.photons[entry.index].Position.Subtract(p).LengthSquared() <= radius2 {
			results = append(results, entry.index)
		}
	}
	return results
}

func (r *RTreeIndex) Len() int {
	return len(r.photons)
}

func (r *RTreeIndex) Photon(i int) Photon {
	return r.photons[i]
}

func (r *RTreeIndex) Built() bool {
	return r.tree != nil
}

func toPoint(v core.Vec3) rtreego.Point {
	return rtreego.Point{v.X, v.Y, v.Z}
}
