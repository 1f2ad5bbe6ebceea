package transform

// This file holds the configuration-record getters (C2): total functions
// once loaded, illegal on an empty instance. Every getter here signals a
// logic fault instead of returning a zero value when called on an empty
// engine, per section 4.2's note about the historical variant that
// returned defaults instead.

// RefMap returns the reference map's descriptor.
func (e *Engine) RefMap() (MapDescriptor, error) {
	if e.st != stateLoaded {
		return MapDescriptor{}, logicFault("engine.ref_map", ErrQueryOnEmpty)
	}
	return e.ref, nil
}

// RobotMap returns the robot map's descriptor.
func (e *Engine) RobotMap() (MapDescriptor, error) {
	if e.st != stateLoaded {
		return MapDescriptor{}, logicFault("engine.robot_map", ErrQueryOnEmpty)
	}
	return e.robot, nil
}

// Global returns the robot-to-reference global affine (scale, rotation,
// translation).
func (e *Engine) Global() (GlobalAffine, error) {
	if e.st != stateLoaded {
		return GlobalAffine{}, logicFault("engine.global", ErrQueryOnEmpty)
	}
	return e.global, nil
}

// Correspondences returns the parallel R and Q arrays.
func (e *Engine) Correspondences() (r, q []Point, err error) {
	if e.st != stateLoaded {
		return nil, nil, logicFault("engine.correspondences", ErrQueryOnEmpty)
	}
	return e.ref.Points, e.robot.Points, nil
}

// Triangles returns the triangulation's index triples, in emission order.
func (e *Engine) Triangles() ([]Triangle, error) {
	if e.st != stateLoaded {
		return nil, logicFault("engine.triangles", ErrQueryOnEmpty)
	}
	return e.triangles, nil
}

// BoundingBox returns the pixel rectangle that must hold both maps when
// rendered in the reference frame, per section 4.5:
// ((min(0,tx), min(0,ty)), (max(Wref, Wrobot+tx), max(Href, Hrobot+ty))).
func (e *Engine) BoundingBox() (min, max Point, err error) {
	if e.st != stateLoaded {
		return Point{}, Point{}, logicFault("engine.bounding_box", ErrQueryOnEmpty)
	}
	tx, ty := e.global.Tx, e.global.Ty

	minX, minY := 0.0, 0.0
	if tx < 0 {
		minX = tx
	}
	if ty < 0 {
		minY = ty
	}

	maxX := e.ref.Width
	if v := e.robot.Width + tx; v > maxX {
		maxX = v
	}
	maxY := e.ref.Height
	if v := e.robot.Height + ty; v > maxY {
		maxY = v
	}

	return Point{X: minX, Y: minY}, Point{X: maxX, Y: maxY}, nil
}
