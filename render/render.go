// Package render draws a static, non-interactive view of a loaded map
// transform: the correspondence points, the Delaunay triangulation built
// over them, and the map's declared extent, in either the reference or
// robot frame. It is the one piece of the interactive viewer the core
// spec calls out of scope that is still useful as a debugging aid, built
// the way the teacher's VectorRenderer builds static exports: vector
// paths pushed through tdewolff/canvas, rendered to SVG or rasterised to
// PNG.
package render

import (
	"fmt"
	"image/png"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/kwv/maptransform/transform"
)

// Frame selects which of the two coordinate spaces to draw the
// triangulation in.
type Frame int

const (
	FrameRef Frame = iota
	FrameRobot
)

// Overlay holds the styling knobs for a triangulation render, defaulted
// the way NewVectorRenderer seeds VectorRenderer.
type Overlay struct {
	Padding      float64 // world-unit padding around the map extent
	PointRadius  float64
	EdgeWidth    float64
	PointColor   canvas.Paint
	EdgeColor    canvas.Paint
	BackgroundOn bool
}

// DefaultOverlay returns sane defaults for a typical pixel-scale map.
func DefaultOverlay() Overlay {
	return Overlay{
		Padding:      50,
		PointRadius:  6,
		EdgeWidth:    1.5,
		PointColor:   canvas.Paint{Color: canvas.Red},
		EdgeColor:    canvas.Paint{Color: canvas.Black},
		BackgroundOn: true,
	}
}

// canvasRenderer is the interface both svg.SVG and rasterizer.Rasterizer
// satisfy, the same seam VectorRenderer uses to share render logic
// between its SVG and PNG code paths.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// ToSVG writes frame's triangulation overlay as SVG to w.
func ToSVG(e *transform.Engine, frame Frame, opts Overlay, w io.Writer) error {
	width, height, err := frameExtent(e, frame)
	if err != nil {
		return err
	}
	width += 2 * opts.Padding
	height += 2 * opts.Padding

	svgRenderer := svg.New(w, width, height, nil)
	if err := draw(e, frame, opts, svgRenderer, width, height); err != nil {
		return err
	}
	return svgRenderer.Close()
}

// ToPNG rasterises frame's triangulation overlay to w at the given DPI.
func ToPNG(e *transform.Engine, frame Frame, opts Overlay, dpi float64, w io.Writer) error {
	width, height, err := frameExtent(e, frame)
	if err != nil {
		return err
	}
	width += 2 * opts.Padding
	height += 2 * opts.Padding

	rast := rasterizer.New(width, height, canvas.DPI(dpi), canvas.DefaultColorSpace)
	if err := draw(e, frame, opts, rast, width, height); err != nil {
		return err
	}
	return png.Encode(w, rast)
}

func frameExtent(e *transform.Engine, frame Frame) (w, h float64, err error) {
	switch frame {
	case FrameRef:
		m, err := e.RefMap()
		if err != nil {
			return 0, 0, err
		}
		return m.Width, m.Height, nil
	case FrameRobot:
		m, err := e.RobotMap()
		if err != nil {
			return 0, 0, err
		}
		return m.Width, m.Height, nil
	default:
		return 0, 0, fmt.Errorf("render: unknown frame %d", frame)
	}
}

func draw(e *transform.Engine, frame Frame, opts Overlay, renderer canvasRenderer, width, height float64) error {
	var pts []transform.Point
	switch frame {
	case FrameRef:
		r, _, err := e.Correspondences()
		if err != nil {
			return err
		}
		pts = r
	case FrameRobot:
		_, q, err := e.Correspondences()
		if err != nil {
			return err
		}
		pts = q
	}

	triangles, err := e.Triangles()
	if err != nil {
		return err
	}

	if opts.BackgroundOn {
		bgStyle := canvas.DefaultStyle
		bgStyle.Fill = canvas.Paint{Color: canvas.White}
		renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)
	}

	toCanvas := func(p transform.Point) (float64, float64) {
		return p.X + opts.Padding, p.Y + opts.Padding
	}

	edgeStyle := canvas.DefaultStyle
	edgeStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	edgeStyle.Stroke = opts.EdgeColor
	edgeStyle.StrokeWidth = opts.EdgeWidth
	edgeStyle.StrokeCapper = canvas.RoundCapper{}
	edgeStyle.StrokeJoiner = canvas.RoundJoiner{}

	for _, t := range triangles {
		a, b, c := pts[t.A], pts[t.B], pts[t.C]
		path := &canvas.Path{}
		ax, ay := toCanvas(a)
		bx, by := toCanvas(b)
		cx, cy := toCanvas(c)
		path.MoveTo(ax, ay)
		path.LineTo(bx, by)
		path.LineTo(cx, cy)
		path.Close()
		renderer.RenderPath(path, edgeStyle, canvas.Identity)
	}

	pointStyle := canvas.DefaultStyle
	pointStyle.Fill = opts.PointColor
	pointStyle.Stroke = canvas.Paint{Color: canvas.Black}
	pointStyle.StrokeWidth = opts.EdgeWidth

	for _, p := range pts {
		cx, cy := toCanvas(p)
		circle := canvas.Circle(opts.PointRadius)
		circle = circle.Translate(cx, cy)
		renderer.RenderPath(circle, pointStyle, canvas.Identity)
	}

	return nil
}
