package transform

import "fmt"

// precomputeAffines builds, for every triangle, the pair of affine maps
// described in section 4.4's final paragraph: A_to_ref from the robot
// vertices onto the reference vertices, and A_to_robot for the reverse
// direction. Triangulate only sees the midpoints, so a triangle that is
// non-degenerate over M can still have collinear vertices in R or in Q;
// precomputeAffines then returns an error naming that triangle, and Load
// reports it as an input fault.
func precomputeAffines(triangles []Triangle, r, q []Point) (toRef, toRobot []Affine2x3, err error) {
	toRef = make([]Affine2x3, len(triangles))
	toRobot = make([]Affine2x3, len(triangles))

	for i, t := range triangles {
		src := [3]Point{q[t.A], q[t.B], q[t.C]}
		dst := [3]Point{r[t.A], r[t.B], r[t.C]}

		fwd, ok := affineFromTriangles(src, dst)
		if !ok {
			return nil, nil, fmt.Errorf("triangle %d: robot-frame vertices are collinear", i)
		}
		inv, ok := affineFromTriangles(dst, src)
		if !ok {
			return nil, nil, fmt.Errorf("triangle %d: reference-frame vertices are collinear", i)
		}

		toRef[i] = fwd
		toRobot[i] = inv
	}

	return toRef, toRobot, nil
}
