package geometry

import (
	"github.com/df07/go-light-transport/pkg/core"
)

// bvhItem pairs a shape with its position in the slice the BVH was built from
type bvhItem struct {
	shape Shape
	index int
	box   core.AABB
}

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	items       []bvhItem // leaf contents (nil for internal nodes)
}

// BVH represents a Bounding Volume Hierarchy for fast ray-object intersection
type BVH struct {
	Root   *BVHNode
	Center core.Vec3 // finite scene center, used by environment emitters
	Radius float64   // bounding sphere radius, used by environment emitters
}

// Leaf threshold: if we have this many or fewer shapes, store them in a leaf node
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of shapes. Hit records returned by the
// BVH carry the index of the shape in this slice.
func NewBVH(shapes []Shape) *BVH {
	if len(shapes) == 0 {
		return &BVH{}
	}

	items := make([]bvhItem, len(shapes))
	for i, shape := range shapes {
		items[i] = bvhItem{shape: shape, index: i, box: shape.BoundingBox()}
	}

	root := buildBVH(items)
	center := root.BoundingBox.Center()
	return &BVH{
		Root:   root,
		Center: center,
		Radius: root.BoundingBox.Max.Subtract(center).Length(),
	}
}

// buildBVH recursively splits at the midpoint of the longest axis
func buildBVH(items []bvhItem) *BVHNode {
	box := items[0].box
	for _, item := range items[1:] {
		box = box.Union(item.box)
	}

	if len(items) <= leafThreshold {
		return &BVHNode{BoundingBox: box, items: items}
	}

	axis := box.LongestAxis()
	lo, hi := box.Min.Axis(axis), box.Max.Axis(axis)
	if hi <= lo {
		return &BVHNode{BoundingBox: box, items: items}
	}
	split := (lo + hi) * 0.5

	left, right := partitionItems(items, axis, split)

	// Ensure we don't create empty partitions
	if len(left) == 0 || len(right) == 0 {
		return &BVHNode{BoundingBox: box, items: items}
	}

	return &BVHNode{
		BoundingBox: box,
		Left:        buildBVH(left),
		Right:       buildBVH(right),
	}
}

// partitionItems splits items by bounding box center along axis
func partitionItems(items []bvhItem, axis int, split float64) ([]bvhItem, []bvhItem) {
	var left, right []bvhItem
	for _, item := range items {
		if item.box.Center().Axis(axis) < split {
			left = append(left, item)
		} else {
			right = append(right, item)
		}
	}
	return left, right
}

// Hit returns the closest intersection in (tMin, tMax)
func (bvh *BVH) Hit(ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	if bvh.Root == nil {
		return nil, false
	}
	return bvh.hitNode(bvh.Root, ray, tMin, tMax)
}

func (bvh *BVH) hitNode(node *BVHNode, ray core.Ray, tMin, tMax float64) (*HitRecord, bool) {
	if !node.BoundingBox.Hit(ray, tMin, tMax) {
		return nil, false
	}

	var closest *HitRecord
	closestSoFar := tMax

	if node.items != nil {
		for _, item := range node.items {
			if hit, ok := item.shape.Hit(ray, tMin, closestSoFar); ok {
				hit.Index = item.index
				closest = hit
				closestSoFar = hit.T
			}
		}
		return closest, closest != nil
	}

	for _, child := range [2]*BVHNode{node.Left, node.Right} {
		if child == nil {
			continue
		}
		if hit, ok := bvh.hitNode(child, ray, tMin, closestSoFar); ok {
			closest = hit
			closestSoFar = hit.T
		}
	}
	return closest, closest != nil
}

// HitAny reports whether anything intersects the ray in (tMin, tMax), stopping at the first hit
func (bvh *BVH) HitAny(ray core.Ray, tMin, tMax float64) bool {
	if bvh.Root == nil {
		return false
	}

	stack := []*BVHNode{bvh.Root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.BoundingBox.Hit(ray, tMin, tMax) {
			continue
		}
		if node.items != nil {
			for _, item := range node.items {
				if _, ok := item.shape.Hit(ray, tMin, tMax); ok {
					return true
				}
			}
			continue
		}
		if node.Left != nil {
			stack = append(stack, node.Left)
		}
		if node.Right != nil {
			stack = append(stack, node.Right)
		}
	}
	return false
}

// BoundingBox returns the overall bounding box of the BVH
func (bvh *BVH) BoundingBox() core.AABB {
	if bvh.Root == nil {
		return core.EmptyAABB()
	}
	return bvh.Root.BoundingBox
}

// bvhStats contains statistics about the BVH structure
type bvhStats struct {
	totalNodes  int
	leafNodes   int
	maxDepth    int
	totalShapes int
}

// getStats walks the tree and collects structural statistics
func (bvh *BVH) getStats() bvhStats {
	var stats bvhStats
	if bvh.Root != nil {
		collectStats(bvh.Root, 0, &stats)
	}
	return stats
}

func collectStats(node *BVHNode, depth int, stats *bvhStats) {
	stats.totalNodes++
	if depth > stats.maxDepth {
		stats.maxDepth = depth
	}
	if node.items != nil {
		stats.leafNodes++
		stats.totalShapes += len(node.items)
		return
	}
	if node.Left != nil {
		collectStats(node.Left, depth+1, stats)
	}
	if node.Right != nil {
		collectStats(node.Right, depth+1, stats)
	}
}
