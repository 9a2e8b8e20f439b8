package photonmap

import (
	"github.com/df07/go-light-transport/pkg/core"
)

// KDTree is a balanced k-d tree stored implicitly in the photon array.
// The node for the range [lo, hi) is the median element at (lo+hi)/2, split along
// axes[(lo+hi)/2]; its children are the ranges [lo, mid) and [mid+1, hi).
type KDTree struct {
	photons []Photon
	axes    []uint8
	built   bool
}

// NewKDTree creates an empty k-d tree
func NewKDTree() *KDTree {
	return &KDTree{}
}

func (t *KDTree) Reserve(n int) {
	if cap(t.photons)-len(t.photons) >= n {
		return
	}
	grown := make([]Photon, len(t.photons), len(t.photons)+n)
	copy(grown, t.photons)
	t.photons = grown
}

func (t *KDTree) Push(p Photon) {
	if t.built {
		panic(ErrBuilt)
	}
	t.photons = append(t.photons, p)
}

func (t *KDTree) Len() int {
	return len(t.photons)
}

func (t *KDTree) Photon(i int) Photon {
	return t.photons[i]
}

func (t *KDTree) Built() bool {
	return t.built
}

type nodeRange struct {
	lo, hi int
}

// Build reorders the photons into the implicit tree, splitting each range at its
// median along the widest axis of its bounds
func (t *KDTree) Build() {
	if t.built {
		return
	}
	t.axes = make([]uint8, len(t.photons))

	stack := []nodeRange{{0, len(t.photons)}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.hi-r.lo <= 1 {
			continue
		}

		bounds := core.EmptyAABB()
		for _, p := range t.photons[r.lo:r.hi] {
			bounds = bounds.Extend(p.Position)
		}
		axis := bounds.LongestAxis()

		mid := (r.lo + r.hi) / 2
		selectNth(t.photons[r.lo:r.hi], mid-r.lo, axis)
		t.axes[mid] = uint8(axis)

		stack = append(stack, nodeRange{r.lo, mid}, nodeRange{mid + 1, r.hi})
	}
	t.built = true
}

// Search walks the tree iteratively, visiting the far side of a split only when the
// query sphere crosses it
func (t *KDTree) Search(p core.Vec3, radius float64, results []int) []int {
	if !t.built {
		panic(ErrNotBuilt)
	}
	if radius <= 0 || len(t.photons) == 0 {
		return results
	}
	radius2 := radius * radius

	var buf [64]nodeRange
	stack := append(buf[:0], nodeRange{0, len(t.photons)})
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.lo >= r.hi {
			continue
		}

		mid := (r.lo + r.hi) / 2
		node := t.photons[mid].Position
		if node.Subtract(p).LengthSquared() <= radius2 {
			results = append(results, mid)
		}
		if r.hi-r.lo == 1 {
			continue
		}

		axis := int(t.axes[mid])
		delta := p.Axis(axis) - node.Axis(axis)
		near, far := nodeRange{r.lo, mid}, nodeRange{mid + 1, r.hi}
		if delta > 0 {
			near, far = far, near
		}
		if delta*delta <= radius2 {
			stack = append(stack, far)
		}
		stack = append(stack, near)
	}
	return results
}

// selectNth partially sorts photons so that photons[k] holds the element that would be
// there if sorted along axis, with smaller-or-equal elements before it and
// greater-or-equal elements after it
func selectNth(photons []Photon, k, axis int) {
	lo, hi := 0, len(photons)-1
	for hi > lo {
		pivot := photons[(lo+hi)/2].Position.Axis(axis)
		i, j := lo, hi
		for i <= j {
			for photons[i].Position.Axis(axis) < pivot {
				i++
			}
			for photons[j].Position.Axis(axis) > pivot {
				j--
			}
			if i <= j {
				photons[i], photons[j] = photons[j], photons[i]
				i++
				j--
			}
		}
		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return
		}
	}
}
