package transform

import "math"

// FitReport summarises how well a single global affine would explain all
// correspondence pairs, for diagnostic display only (e.g. a CLI
// "fit-report" subcommand). It has no effect on ToRef/ToRobot: those
// always use the declared global affine plus the piecewise triangulation,
// never a best fit derived from the data. Deriving one here is not the
// "automatic correspondence detection" the core spec rules out — the
// correspondence points are still hand-supplied; this only reports how
// close a single affine map would have come.
type FitReport struct {
	Fit         GlobalAffine
	RMSErrorRef float64 // root-mean-square residual in the reference frame, pixels
	MaxErrorRef float64
}

// FitGlobalAffine computes the least-squares affine mapping Q onto R,
// generalising affineFromTriangles's exact 3-point solve to n>=3 pairs via
// the normal equations, in the same layout as the teacher's
// calculateAffineTransform (sums of x, y, xx, xy, yy, x', y', xx', xy').
// It returns false if fewer than 3 pairs are supplied or the system is
// singular (all points collinear).
func FitGlobalAffine(r, q []Point) (Affine2x3, bool) {
	n := len(q)
	if n < 3 || len(r) != n {
		return Affine2x3{}, false
	}

	var sx, sy, sxx, sxy, syy float64
	var sxp, syp, sxxp, sxyp float64 // x', paired with x
	var sypp, syyp float64

	for i := 0; i < n; i++ {
		x, y := q[i].X, q[i].Y
		xp, yp := r[i].X, r[i].Y

		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
		syy += y * y

		sxp += xp
		syp += yp
		sxxp += x * xp
		sxyp += y * xp
		sypp += x * yp
		syyp += y * yp
	}
	fn := float64(n)

	solve := func(targetSumU, sumXU, sumYU float64) (a, b, c float64, ok bool) {
		// Normal equations for a*x + b*y + c = u:
		//   sxx*a + sxy*b + sx*c = sumXU
		//   sxy*a + syy*b + sy*c = sumYU
		//   sx*a  + sy*b  + n*c  = targetSumU
		det := sxx*(syy*fn-sy*sy) - sxy*(sxy*fn-sy*sx) + sx*(sxy*sy-syy*sx)
		if math.Abs(det) < 1e-9 {
			return 0, 0, 0, false
		}

		detA := sumXU*(syy*fn-sy*sy) - sxy*(sumYU*fn-sy*targetSumU) + sx*(sumYU*sy-syy*targetSumU)
		detB := sxx*(sumYU*fn-sy*targetSumU) - sumXU*(sxy*fn-sy*sx) + sx*(sxy*targetSumU-sumYU*sx)
		detC := sxx*(syy*targetSumU-sumYU*sy) - sxy*(sxy*targetSumU-sumYU*sx) + sumXU*(sxy*sy-syy*sx)

		return detA / det, detB / det, detC / det, true
	}

	a, b, tx, ok := solve(sxp, sxxp, sxyp)
	if !ok {
		return Affine2x3{}, false
	}
	c, d, ty, ok := solve(syp, sypp, syyp)
	if !ok {
		return Affine2x3{}, false
	}

	return Affine2x3{A: a, B: b, Tx: tx, C: c, D: d, Ty: ty}, true
}

// Report builds a FitReport from a least-squares affine fit of the loaded
// engine's correspondence pairs, measuring each pair's residual against
// that fit. The declared global affine is not used.
func (e *Engine) Report() (FitReport, error) {
	if e.st != stateLoaded {
		return FitReport{}, logicFault("engine.report", ErrQueryOnEmpty)
	}

	r, q := e.ref.Points, e.robot.Points
	aff, ok := FitGlobalAffine(r, q)
	if !ok {
		return FitReport{}, inputFault("engine.report", ErrEmptyCorrespondence)
	}

	var sumSq, maxErr float64
	for i := range q {
		got := aff.Apply(q[i])
		dx, dy := got.X-r[i].X, got.Y-r[i].Y
		e2 := dx*dx + dy*dy
		sumSq += e2
		if d := math.Sqrt(e2); d > maxErr {
			maxErr = d
		}
	}
	rms := math.Sqrt(sumSq / float64(len(q)))

	fit := GlobalAffine{
		Sx:       math.Hypot(aff.A, aff.C),
		Sy:       math.Hypot(aff.B, aff.D),
		Rotation: math.Atan2(aff.C, aff.A),
		Tx:       aff.Tx,
		Ty:       aff.Ty,
	}

	return FitReport{Fit: fit, RMSErrorRef: rms, MaxErrorRef: maxErr}, nil
}
