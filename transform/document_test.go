package transform

import "testing"

const sampleDoc = `
ref_map:
  name: reference
  image_file: reference.png
  size: [694, 386]
  correspondence_points: [[0,0], [694,0], [694,386], [0,386]]
robot_map:
  name: vacuum-01
  size: [694, 386]
  correspondence_points: [[0,0], [694,0], [694,386], [0,386]]
`

func TestParseDocumentBasic(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	ref, err := doc.refDescriptor()
	if err != nil {
		t.Fatalf("refDescriptor: %v", err)
	}
	if ref.Name != "reference" || ref.Width != 694 || ref.Height != 386 {
		t.Fatalf("unexpected ref descriptor: %+v", ref)
	}
	if len(ref.Points) != 4 {
		t.Fatalf("got %d ref points, want 4", len(ref.Points))
	}
}

func TestParseDocumentLegacyBaseMap(t *testing.T) {
	const doc = `
base_map:
  name: legacy
  size: [10, 10]
  correspondence_points: [[0,0],[10,0],[10,10]]
robot_map:
  name: robot
  size: [10, 10]
  correspondence_points: [[0,0],[10,0],[10,10]]
`
	d, err := ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	ref, err := d.refDescriptor()
	if err != nil {
		t.Fatalf("refDescriptor via legacy base_map: %v", err)
	}
	if ref.Name != "legacy" {
		t.Fatalf("got name %q, want legacy", ref.Name)
	}
}

func TestParseDocumentEmpty(t *testing.T) {
	if _, err := ParseDocument([]byte("{}")); err == nil {
		t.Fatal("expected error for empty document")
	} else if !IsInputFault(err) {
		t.Fatalf("expected input fault, got %v", err)
	}
}

func TestGlobalAffineDefaultsToIdentity(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	g := doc.globalAffine()
	if g.Sx != 1 || g.Sy != 1 || g.Rotation != 0 || g.Tx != 0 || g.Ty != 0 {
		t.Fatalf("expected identity default, got %+v", g)
	}
}

func TestGlobalAffineFromTransformBlock(t *testing.T) {
	const doc = `
ref_map:
  name: reference
  size: [100, 100]
  correspondence_points: [[0,0],[10,0],[10,10]]
robot_map:
  name: robot
  size: [80, 110]
  correspondence_points: [[0,0],[10,0],[10,10]]
  transform:
    scale: [1, 1]
    rotation: 0
    translation: [30, 20]
`
	d, err := ParseDocument([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	g := d.globalAffine()
	if g.Tx != 30 || g.Ty != 20 {
		t.Fatalf("got %+v, want Tx=30 Ty=20", g)
	}
}
