package transform

// state is the two-value lifecycle from section 3's "Lifecycle" and
// section 4.5's "State machine": an Engine is either empty or loaded.
type state int

const (
	stateEmpty state = iota
	stateLoaded
)

// Engine is the configuration record (C2) and transformer (C5) combined
// into one owner: the validated snapshot of both maps plus the
// precomputed triangulation and per-triangle affines, and the two query
// operations that read them. The spec describes C2 and C5 as separate
// components, but nothing in the host program ever holds one without the
// other, so here they are one type with its public surface split across
// this file (queries/lifecycle) and the getters in accessors.go
// (configuration record), the way mesh.StateTracker bundles its snapshot
// data and its query methods together.
//
// An Engine is not safe for concurrent use by a writer (Load/Reset)
// alongside any other method; concurrent readers are fine once Load has
// returned successfully (section 5).
type Engine struct {
	st state

	ref    MapDescriptor
	robot  MapDescriptor
	global GlobalAffine

	triangles []Triangle
	toRef     []Affine2x3
	toRobot   []Affine2x3

	refIndex   *gridIndex // built over R, used by to_robot
	robotIndex *gridIndex // built over Q, used by to_ref
}

// NewEngine returns a freshly constructed, empty instance: all strings
// empty, sizes zero, scale (1,1), no points, no triangles.
func NewEngine() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// Reset returns the instance to empty. Always legal.
func (e *Engine) Reset() {
	e.st = stateEmpty
	e.ref = MapDescriptor{}
	e.robot = MapDescriptor{}
	e.global = GlobalAffine{Sx: 1, Sy: 1}
	e.triangles = nil
	e.toRef = nil
	e.toRobot = nil
	e.refIndex = nil
	e.robotIndex = nil
}

// Loaded reports whether the instance currently holds a validated
// calibration.
func (e *Engine) Loaded() bool { return e.st == stateLoaded }

// Load validates doc, triangulates its correspondence points, precomputes
// per-triangle affines, and transitions the instance from empty to
// loaded. It is only legal when the instance is empty; calling it on a
// loaded instance is a logic fault and leaves the instance unchanged.
// checker may be nil to skip the image-dimension cross-check. useIndex
// opts into the grid spatial index optimisation described in index.go.
func (e *Engine) Load(doc *Document, checker ImageDimensionChecker, useIndex bool) error {
	if e.st == stateLoaded {
		return logicFault("engine.load", ErrLoadOnLoaded)
	}

	v, err := validateDocument(doc, checker)
	if err != nil {
		return err // already a *Fault from validateDocument
	}

	m := make([]Point, len(v.R))
	for i := range v.R {
		m[i] = Midpoint(v.R[i], v.Q[i])
	}

	triangles := Triangulate(m, v.ref.Width, v.ref.Height, v.robot.Width, v.robot.Height, v.global.Tx, v.global.Ty)

	toRef, toRobot, err := precomputeAffines(triangles, v.R, v.Q)
	if err != nil {
		return inputFault("engine.load", err)
	}

	e.ref = v.ref
	e.robot = v.robot
	e.global = v.global
	e.triangles = triangles
	e.toRef = toRef
	e.toRobot = toRobot
	e.refIndex = nil
	e.robotIndex = nil
	if useIndex {
		e.refIndex = buildGridIndex(triangles, v.R)
		e.robotIndex = buildGridIndex(triangles, v.Q)
	}
	e.st = stateLoaded

	return nil
}

// ToRef maps a robot-frame point into the reference frame, per section
// 4.5's four-step skeleton: exact-match shortcut, triangle search,
// piecewise-affine apply, convex-hull fallback to the global affine.
func (e *Engine) ToRef(p Point) (Point, error) {
	if e.st != stateLoaded {
		return Point{}, logicFault("engine.to_ref", ErrQueryOnEmpty)
	}

	if i, ok := exactIndex(e.robot.Points, p); ok {
		return e.ref.Points[i], nil
	}

	if ti, ok := e.findTriangle(p, e.robot.Points, e.robotIndex); ok {
		return e.toRef[ti].Apply(p), nil
	}

	return e.global.ToRef(p), nil
}

// ToRobot maps a reference-frame point back into the robot frame, the
// mirror image of ToRef.
func (e *Engine) ToRobot(p Point) (Point, error) {
	if e.st != stateLoaded {
		return Point{}, logicFault("engine.to_robot", ErrQueryOnEmpty)
	}

	if i, ok := exactIndex(e.ref.Points, p); ok {
		return e.robot.Points[i], nil
	}

	if ti, ok := e.findTriangle(p, e.ref.Points, e.refIndex); ok {
		return e.toRobot[ti].Apply(p), nil
	}

	return e.global.ToRobot(p), nil
}

// exactIndex returns the index of the first point in pts exactly
// (component-wise) equal to p.
func exactIndex(pts []Point, p Point) (int, bool) {
	for i, q := range pts {
		if q.X == p.X && q.Y == p.Y {
			return i, true
		}
	}
	return 0, false
}

// findTriangle runs the first-match linear scan over e.triangles, using
// idx to narrow the candidate set when present. Using the index never
// changes which triangle wins: candidates are still tested in ascending
// original triangle-index order, and any triangle containing p is
// guaranteed to appear in p's cell bucket (its bounding box must cover
// that cell).
func (e *Engine) findTriangle(p Point, src []Point, idx *gridIndex) (int, bool) {
	if idx == nil {
		for i, t := range e.triangles {
			if pointInTriangle(p, src[t.A], src[t.B], src[t.C]) {
				return i, true
			}
		}
		return 0, false
	}

	for _, i := range idx.candidates(p) {
		t := e.triangles[i]
		if pointInTriangle(p, src[t.A], src[t.B], src[t.C]) {
			return i, true
		}
	}
	return 0, false
}
