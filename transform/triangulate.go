package transform

import "sort"

// Triangulate computes the Delaunay triangulation of the midpoint set M
// derived from paired R/Q correspondence points, per section 4.4. It
// returns triangles as index triples into R/Q (equivalently M), discarding
// any triangle that touches one of the synthetic boundary corners used to
// seed the construction.
//
// The reference implementation seeds its subdivision with the rectangle
// B = ([0,0], [max(Wref,Wrobot+tx), max(Href,Hrobot+ty)]) and treats
// midpoints falling outside it as undefined behaviour. This implementation
// takes the documented alternative (see section 9, "subdivision seed
// rectangle"): it widens B as needed so every midpoint lies strictly
// inside before seeding, rather than rejecting or silently clipping.
//
// Unlike a triangulation library that hands back vertex coordinates which
// must then be matched to M by exact float equality (section 4.4 step 4),
// this implementation works natively in index space: the four boundary
// corners and the n midpoints all carry stable integer identities
// throughout, so recovering "which M index is this vertex" never needs a
// coordinate comparison. The corner-discarding step is the same idea the
// section describes, just applied to indices instead of floats.
func Triangulate(m []Point, refW, refH, robotW, robotH, tx, ty float64) []Triangle {
	n := len(m)
	if n == 0 {
		return nil
	}

	corners := seedCorners(m, refW, refH, robotW, robotH, tx, ty)
	pts := make([]Point, 0, 4+n)
	pts = append(pts, corners[:]...)
	pts = append(pts, m...)

	tris := bowyerWatson(pts, 4)

	out := make([]Triangle, 0, len(tris))
	for _, t := range tris {
		if t.A < 4 || t.B < 4 || t.C < 4 {
			continue // touches a synthetic boundary corner, not a real triangle
		}
		out = append(out, Triangle{A: t.A - 4, B: t.B - 4, C: t.C - 4})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		if out[i].B != out[j].B {
			return out[i].B < out[j].B
		}
		return out[i].C < out[j].C
	})
	return out
}

// seedCorners returns the four corners of a rectangle that strictly
// contains both the declared bounding box B and every midpoint.
func seedCorners(m []Point, refW, refH, robotW, robotH, tx, ty float64) [4]Point {
	minX, minY := 0.0, 0.0
	maxX := refW
	if v := robotW + tx; v > maxX {
		maxX = v
	}
	maxY := refH
	if v := robotH + ty; v > maxY {
		maxY = v
	}

	for _, p := range m {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	w, h := maxX-minX, maxY-minY
	margin := w + h + 10 // generous, keeps every real point strictly interior
	if margin <= 0 {
		margin = 10
	}

	return [4]Point{
		{X: minX - margin, Y: minY - margin},
		{X: maxX + margin, Y: minY - margin},
		{X: maxX + margin, Y: maxY + margin},
		{X: minX - margin, Y: maxY + margin},
	}
}

// indexTriangle is a Bowyer-Watson working triangle over the combined
// corners+midpoints point list, oriented counter-clockwise.
type indexTriangle struct {
	A, B, C int
}

type triEdge struct {
	U, V int // canonicalised, U < V
}

func canonEdge(u, v int) triEdge {
	if u > v {
		u, v = v, u
	}
	return triEdge{U: u, V: v}
}

// bowyerWatson triangulates pts[nCorners:] incrementally, starting from the
// two triangles formed by the first nCorners points (expected to be the
// four corners of a rectangle, split along one diagonal).
func bowyerWatson(pts []Point, nCorners int) []indexTriangle {
	tris := []indexTriangle{
		orient(pts, indexTriangle{0, 1, 2}),
		orient(pts, indexTriangle{0, 2, 3}),
	}

	for i := nCorners; i < len(pts); i++ {
		p := pts[i]

		var bad []indexTriangle
		for _, t := range tris {
			if inCircumcircle(pts[t.A], pts[t.B], pts[t.C], p) {
				bad = append(bad, t)
			}
		}

		// Boundary of the union of bad triangles: edges that appear in
		// exactly one bad triangle.
		edgeCount := map[triEdge]int{}
		edgeOf := map[triEdge][2]int{}
		addEdge := func(u, v int) {
			e := canonEdge(u, v)
			edgeCount[e]++
			edgeOf[e] = [2]int{u, v}
		}
		for _, t := range bad {
			addEdge(t.A, t.B)
			addEdge(t.B, t.C)
			addEdge(t.C, t.A)
		}

		keep := tris[:0:0]
		badSet := map[indexTriangle]bool{}
		for _, t := range bad {
			badSet[t] = true
		}
		for _, t := range tris {
			if !badSet[t] {
				keep = append(keep, t)
			}
		}

		for e, count := range edgeCount {
			if count != 1 {
				continue
			}
			uv := edgeOf[e]
			nt := orient(pts, indexTriangle{uv[0], uv[1], i})
			keep = append(keep, nt)
		}

		tris = keep
	}

	return tris
}

// orient returns t with vertices reordered counter-clockwise.
func orient(pts []Point, t indexTriangle) indexTriangle {
	if signedArea2(pts[t.A], pts[t.B], pts[t.C]) < 0 {
		t.B, t.C = t.C, t.B
	}
	return t
}

// inCircumcircle reports whether d lies strictly inside the circumcircle
// of counter-clockwise triangle (a,b,c), using the standard determinant
// test.
func inCircumcircle(a, b, c, d Point) bool {
	ax, ay := a.X-d.X, a.Y-d.Y
	bx, by := b.X-d.X, b.Y-d.Y
	cx, cy := c.X-d.X, c.Y-d.Y

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)

	return det > 1e-9
}
