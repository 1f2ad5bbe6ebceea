package transform

// MapDescriptor carries a single map's declared size and its correspondence
// points, in that map's own coordinate frame. It mirrors the role of
// mesh.ValetudoMap's metadata but strips everything the teacher's map model
// carried that this engine does not need (layers, entities, pixel grids).
type MapDescriptor struct {
	Name      string
	ImageFile string
	Width     float64
	Height    float64
	Points    []Point
}

// Triangle is a set of three indices into the shared correspondence-point
// list M (see Engine). Index order is not significant for containment
// tests but is kept stable (as emitted by triangulation) for affine lookup.
type Triangle struct {
	A, B, C int
}

