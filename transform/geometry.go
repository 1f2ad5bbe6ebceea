package transform

import "math"

// Point is a location in a single map's 2D coordinate frame, in map pixels.
type Point struct {
	X, Y float64
}

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

func dot(a, b Point) float64 { return a.X*b.X + a.Y*b.Y }

func cross(a, b Point) float64 { return a.X*b.Y - a.Y*b.X }

func distSq(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// Midpoint returns the average of two points.
func Midpoint(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// Affine2x3 is an affine map p' = A*p + t expressed as the six coefficients
//
//	x' = A*x + B*y + Tx
//	y' = C*x + D*y + Ty
//
// This mirrors the teacher's AffineMatrix layout (mesh.AffineMatrix) but is
// renamed to make clear it is a 2x3 map, not a full 3x3 homogeneous matrix.
type Affine2x3 struct {
	A, B, Tx float64
	C, D, Ty float64
}

// IdentityAffine returns the affine map that leaves every point unchanged.
func IdentityAffine() Affine2x3 {
	return Affine2x3{A: 1, D: 1}
}

// Apply maps p through the affine transform.
func (m Affine2x3) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.Tx,
		Y: m.C*p.X + m.D*p.Y + m.Ty,
	}
}

// Determinant returns A*D - B*C.
func (m Affine2x3) Determinant() float64 {
	return m.A*m.D - m.B*m.C
}

// Invert returns the algebraic inverse of m. It returns false if m is
// singular (determinant within epsilon of zero) rather than panicking or
// returning a garbage matrix, matching the teacher's InvertMatrix guard.
func (m Affine2x3) Invert() (Affine2x3, bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return Affine2x3{}, false
	}
	invA := m.D / det
	invB := -m.B / det
	invC := -m.C / det
	invD := m.A / det
	return Affine2x3{
		A: invA, B: invB,
		C: invC, D: invD,
		Tx: -(invA*m.Tx + invB*m.Ty),
		Ty: -(invC*m.Tx + invD*m.Ty),
	}, true
}

// GlobalAffine is the similarity transform rotation+anisotropic-scale+translate
// used as the fallback outside the triangulated hull: p' = R(theta)*diag(Sx,Sy)*p + T.
type GlobalAffine struct {
	Sx, Sy   float64
	Rotation float64 // radians
	Tx, Ty   float64
}

// ToRef maps a robot-frame point into the reference frame.
func (g GlobalAffine) ToRef(p Point) Point {
	sx, sy := g.Sx*p.X, g.Sy*p.Y
	cosT, sinT := math.Cos(g.Rotation), math.Sin(g.Rotation)
	return Point{
		X: cosT*sx - sinT*sy + g.Tx,
		Y: sinT*sx + cosT*sy + g.Ty,
	}
}

// ToRobot maps a reference-frame point back into the robot frame. It uses
// the direct algebraic inverse (scale and rotation undone in the correct
// order) rather than re-deriving a matrix inverse, so the round trip is
// exact to floating point precision regardless of how ToRef is implemented.
func (g GlobalAffine) ToRobot(p Point) Point {
	dx, dy := p.X-g.Tx, p.Y-g.Ty
	cosT, sinT := math.Cos(-g.Rotation), math.Sin(-g.Rotation)
	rx := cosT*dx - sinT*dy
	ry := sinT*dx + cosT*dy
	sx := g.Sx
	sy := g.Sy
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return Point{X: rx / sx, Y: ry / sy}
}

// affineFromTriangles solves for the unique affine map taking src[i] to
// dst[i] for i in 0..2. The system is exact (three non-collinear point
// pairs determine an affine map uniquely), solved by Cramer's rule on the
// same row layout the teacher's calculateAffineTransform uses for its
// least-squares fit, specialised to n=3 so the normal equations collapse
// to the exact interpolating solution.
func affineFromTriangles(src, dst [3]Point) (Affine2x3, bool) {
	x0, y0 := src[0].X, src[0].Y
	x1, y1 := src[1].X, src[1].Y
	x2, y2 := src[2].X, src[2].Y

	det := (x1-x0)*(y2-y0) - (x2-x0)*(y1-y0)
	if math.Abs(det) < 1e-9 {
		return Affine2x3{}, false
	}

	solveRow := func(u0, u1, u2 float64) (coeffA, coeffB, coeffC float64) {
		du1 := u1 - u0
		du2 := u2 - u0
		// Cramer's rule for [a b] in:
		//   (x1-x0)*a + (y1-y0)*b = du1
		//   (x2-x0)*a + (y2-y0)*b = du2
		a := (du1*(y2-y0) - du2*(y1-y0)) / det
		b := ((x1-x0)*du2 - (x2-x0)*du1) / det
		c := u0 - a*x0 - b*y0
		return a, b, c
	}

	a, b, tx := solveRow(dst[0].X, dst[1].X, dst[2].X)
	c, d, ty := solveRow(dst[0].Y, dst[1].Y, dst[2].Y)

	return Affine2x3{A: a, B: b, Tx: tx, C: c, D: d, Ty: ty}, true
}

// signedArea2 returns twice the signed area of triangle (a,b,c). Positive
// when a,b,c are ordered counter-clockwise.
func signedArea2(a, b, c Point) float64 {
	return cross(b.Sub(a), c.Sub(a))
}

// barycentric computes the barycentric weights of p with respect to
// triangle (a,b,c). The weights sum to 1.
func barycentric(p, a, b, c Point) (u, v, w float64) {
	areaABC := signedArea2(a, b, c)
	if areaABC == 0 {
		return 0, 0, 0
	}
	u = signedArea2(p, b, c) / areaABC
	v = signedArea2(a, p, c) / areaABC
	w = 1 - u - v
	return
}

const insideEpsilon = 1e-9

// pointInTriangle reports whether p lies inside or on the boundary of
// triangle (a,b,c). Points on an edge count as inside, per the engine's
// deterministic first-match lookup contract.
func pointInTriangle(p, a, b, c Point) bool {
	u, v, w := barycentric(p, a, b, c)
	return u >= -insideEpsilon && v >= -insideEpsilon && w >= -insideEpsilon
}
