package transform

// validated is the result of checking a Document for internal consistency:
// parallel robot/reference point arrays and their owning descriptors plus
// the resolved global affine, ready to be handed to Triangulate. Mirrors
// the ordered, fail-on-first-problem validation style of
// mesh.ValidateMapForCalibration, generalised from a single map to the
// ref/robot pair C3 describes.
type validated struct {
	ref    MapDescriptor
	robot  MapDescriptor
	global GlobalAffine
	R      []Point // reference-frame correspondence points
	Q      []Point // robot-frame correspondence points, Q[i] paired with R[i]
}

// ImageDimensionChecker decodes an image file far enough to report its
// pixel dimensions, used by validation step 6 to cross-check a map's
// declared size against its backing image. This is the pluggable seam the
// core spec calls out as an external collaborator (the raster loader),
// kept as an interface so tests can stub it out without touching disk.
type ImageDimensionChecker interface {
	ImageDimensions(path string) (width, height int, err error)
}

// validateDocument runs C3's six ordered checks and returns a ready-to-
// triangulate record, or the first check that failed wrapped as an input
// fault. checker may be nil, in which case image-file checks are skipped
// entirely (useful for document-only validation without disk access).
func validateDocument(doc *Document, checker ImageDimensionChecker) (*validated, error) {
	ref, err := doc.refDescriptor()
	if err != nil {
		return nil, inputFault("validate.ref", err)
	}
	robot, err := doc.robotDescriptor()
	if err != nil {
		return nil, inputFault("validate.robot", err)
	}
	global := doc.globalAffine()

	// 1. Both correspondence lists present and non-empty.
	if len(ref.Points) == 0 {
		return nil, inputFault("validate.ref", ErrEmptyCorrespondence)
	}
	if len(robot.Points) == 0 {
		return nil, inputFault("validate.robot", ErrEmptyCorrespondence)
	}

	// 2. |R| = |Q|.
	if len(ref.Points) != len(robot.Points) {
		return nil, inputFault("validate.pairs", ErrLengthMismatch)
	}

	// 3. Both map sizes present and positive.
	if ref.Width <= 0 || ref.Height <= 0 {
		return nil, inputFault("validate.ref", ErrBadImageSize)
	}
	if robot.Width <= 0 || robot.Height <= 0 {
		return nil, inputFault("validate.robot", ErrBadImageSize)
	}

	// 4. Scales non-zero.
	if global.Sx == 0 || global.Sy == 0 {
		return nil, inputFault("validate.global", ErrZeroScale)
	}

	// 5. Rectangles overlap, translation only (rotation and scale are
	// deliberately ignored here, matching the reference implementation's
	// documented quirk rather than the geometrically "correct" test).
	if !rectanglesOverlap(ref, robot, global) {
		return nil, inputFault("validate.pairs", ErrNoOverlap)
	}

	// 6. For each image path supplied: exists, decodes, dimensions match.
	if checker != nil {
		if err := checkImageMatchesSize(checker, ref); err != nil {
			return nil, inputFault("validate.ref", err)
		}
		if err := checkImageMatchesSize(checker, robot); err != nil {
			return nil, inputFault("validate.robot", err)
		}
	}

	return &validated{ref: ref, robot: robot, global: global, R: ref.Points, Q: robot.Points}, nil
}

// rectanglesOverlap implements the translation-only overlap test from
// section 3: the reference map's rectangle is [0,Wref]x[0,Href]; the
// robot map's rectangle is translated by (tx,ty) but not scaled or
// rotated. Touching edges count as overlapping.
func rectanglesOverlap(ref, robot MapDescriptor, g GlobalAffine) bool {
	robotMinX, robotMaxX := g.Tx, g.Tx+robot.Width
	robotMinY, robotMaxY := g.Ty, g.Ty+robot.Height

	overlapX := robotMinX <= ref.Width && robotMaxX >= 0
	overlapY := robotMinY <= ref.Height && robotMaxY >= 0
	return overlapX && overlapY
}

func checkImageMatchesSize(checker ImageDimensionChecker, m MapDescriptor) error {
	if m.ImageFile == "" {
		return nil
	}
	w, h, err := checker.ImageDimensions(m.ImageFile)
	if err != nil {
		return wrapImageError(m.ImageFile, err)
	}
	if float64(w) != m.Width || float64(h) != m.Height {
		return wrapImageMismatch(m.ImageFile, w, h, m.Width, m.Height)
	}
	return nil
}
