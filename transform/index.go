package transform

import (
	"math"

	"github.com/paulmach/orb"
)

// gridIndex is a uniform-grid spatial index over triangle bounding boxes,
// used to skip triangles that cannot possibly contain a query point
// instead of scanning every one of them. It is an optional optimisation
// (section 4.5 permits a spatial index "provided it preserves the
// first-match ordering") and is never required for correctness: Engine
// falls back to a linear scan whenever the index is absent.
//
// orb.Point/orb.Bound are used here purely as the coordinate and
// rectangle representation the teacher's map-layer code already uses
// (mesh.Config's reference/vacuum geometry is expressed with paulmach/orb
// elsewhere in the corpus); the bucketing and query logic is hand-written
// rather than borrowed from orb/quadtree, whose API expects to own point
// insertion order and returns candidates without the per-triangle index
// bookkeeping this engine's first-match contract needs.
type gridIndex struct {
	bound    orb.Bound
	cellW    float64
	cellH    float64
	cols     int
	rows     int
	buckets  map[int][]int // cell key -> sorted triangle indices
}

func cellKey(col, row int) int { return col*1_000_003 + row }

// buildGridIndex partitions the plane covered by triangle vertices in src
// (R for to_robot lookups, Q for to_ref lookups) into roughly
// sqrt(len(triangles)) columns and rows, and records which triangles'
// bounding boxes overlap each cell.
func buildGridIndex(triangles []Triangle, src []Point) *gridIndex {
	if len(triangles) == 0 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range src {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if minX > maxX || minY > maxY {
		return nil
	}

	n := int(math.Ceil(math.Sqrt(float64(len(triangles)))))
	if n < 1 {
		n = 1
	}
	cellW := (maxX - minX) / float64(n)
	cellH := (maxY - minY) / float64(n)
	if cellW <= 0 {
		cellW = 1
	}
	if cellH <= 0 {
		cellH = 1
	}

	idx := &gridIndex{
		bound:   orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}},
		cellW:   cellW,
		cellH:   cellH,
		cols:    n,
		rows:    n,
		buckets: make(map[int][]int),
	}

	for ti, t := range triangles {
		a, b, c := src[t.A], src[t.B], src[t.C]
		bx0, bx1 := math.Min(a.X, math.Min(b.X, c.X)), math.Max(a.X, math.Max(b.X, c.X))
		by0, by1 := math.Min(a.Y, math.Min(b.Y, c.Y)), math.Max(a.Y, math.Max(b.Y, c.Y))

		c0, r0 := idx.cellOf(bx0, by0)
		c1, r1 := idx.cellOf(bx1, by1)
		for col := c0; col <= c1; col++ {
			for row := r0; row <= r1; row++ {
				key := cellKey(col, row)
				idx.buckets[key] = append(idx.buckets[key], ti)
			}
		}
	}

	return idx
}

func (idx *gridIndex) cellOf(x, y float64) (col, row int) {
	col = int((x - idx.bound.Min[0]) / idx.cellW)
	row = int((y - idx.bound.Min[1]) / idx.cellH)
	if col < 0 {
		col = 0
	}
	if col >= idx.cols {
		col = idx.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= idx.rows {
		row = idx.rows - 1
	}
	return
}

// candidates returns the triangle indices whose bounding box might contain
// p, in ascending original-emission order so the caller's first-match scan
// behaves identically to a full linear scan.
func (idx *gridIndex) candidates(p Point) []int {
	col, row := idx.cellOf(p.X, p.Y)
	bucket := idx.buckets[cellKey(col, row)]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]int, len(bucket))
	copy(out, bucket)
	// buckets are appended in triangle-index order already; a point whose
	// cell spans multiple insertions stays sorted because triangles are
	// visited in order when buckets are built.
	return out
}
