package httpapi

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kwv/maptransform/transform"
)

const alignedFixtureYAML = `
ref_map:
  name: r
  size: [694, 386]
  correspondence_points: [[0,0],[694,0],[694,386],[0,386],[262.00017448961785,180],[152.42000713085707,110.0511933488288],[432.9993740033606,0],[261.99979962981183,138.03967383461145],[600,330],[50,300],[433,138],[433,241]]
robot_map:
  name: q
  size: [694, 386]
  correspondence_points: [[0,0],[694,0],[694,386],[0,386],[262.00017448961785,180],[152.42000713085707,110.0511933488288],[432.9993740033606,0],[261.99979962981183,138.03967383461145],[600,330],[50,300],[433,201],[433,304]]
`

const offsetFixtureYAML = `
ref_map:
  name: r
  size: [100, 100]
  correspondence_points: [[40,40],[70,40],[70,90],[40,90],[55,65],[52.9979865946761,83.2109062709362],[49.222406771315306,85.51352652683832],[45,50],[65,55],[60,80],[45,85],[50,75],[60,45]]
robot_map:
  name: q
  size: [80, 110]
  correspondence_points: [[10,20],[40,20],[40,70],[10,70],[25,45],[19.478713853792346,63.96097188372319],[13.594849173706002,65.97513259673997],[15,30],[35,35],[30,60],[15,65],[20,55],[30,25]]
  transform:
    translation: [30, 20]
`

func engineFromYAML(t *testing.T, src string) *transform.Engine {
	t.Helper()
	doc, err := transform.ParseDocument([]byte(src))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	e, err := transform.LoadEngineDocument(doc, false, false)
	if err != nil {
		t.Fatalf("LoadEngineDocument: %v", err)
	}
	return e
}

// TestFixtureEndpointsMatchPublishedValues runs the aligned and offset
// end-to-end scenarios through the real HTTP surface (httptest.NewServer,
// not ServeHTTP against a recorder) to check that to-ref answers with the
// same literal values the engine package asserts directly. The bbox
// endpoint is checked by TestFixtureBBoxEndpoint.
func TestFixtureEndpointsMatchPublishedValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		path    string
		wantX   float64
		wantY   float64
		wantTol float64
	}{
		{name: "aligned corner", yaml: alignedFixtureYAML, path: "/to-ref?x=0&y=0", wantX: 0, wantY: 0, wantTol: 1e-9},
		{name: "aligned interior", yaml: alignedFixtureYAML, path: "/to-ref?x=341&y=168", wantX: 341, wantY: 138.8947, wantTol: 1e-4},
		{name: "aligned cross-edge a", yaml: alignedFixtureYAML, path: "/to-ref?x=433&y=108", wantX: 433, wantY: 74.14925, wantTol: 1e-4},
		{name: "aligned cross-edge b", yaml: alignedFixtureYAML, path: "/to-ref?x=432&y=108", wantX: 432, wantY: 74.402199, wantTol: 1e-4},
		{name: "offset fallback", yaml: offsetFixtureYAML, path: "/to-ref?x=0&y=0", wantX: 30, wantY: 20, wantTol: 1e-9},
		{name: "offset interior", yaml: offsetFixtureYAML, path: "/to-ref?x=23&y=66", wantX: 56.209679, wantY: 85.51344, wantTol: 1e-4},
		{name: "offset far-edge fallback", yaml: offsetFixtureYAML, path: "/to-ref?x=69&y=0", wantX: 99, wantY: 20, wantTol: 1e-9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHolder(engineFromYAML(t, tt.yaml), "")
			srv := httptest.NewServer(NewServer(h))
			defer srv.Close()

			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET %s: %v", tt.path, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("GET %s: expected 200, got %d", tt.path, resp.StatusCode)
			}

			var p transform.Point
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if math.Abs(p.X-tt.wantX) > tt.wantTol || math.Abs(p.Y-tt.wantY) > tt.wantTol {
				t.Fatalf("GET %s = %+v, want (%g,%g)", tt.path, p, tt.wantX, tt.wantY)
			}
		})
	}
}

// TestFixtureBBoxEndpoint checks /bbox against the two fixtures'
// published bounding boxes.
func TestFixtureBBoxEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		min, max transform.Point
	}{
		{name: "aligned", yaml: alignedFixtureYAML, min: transform.Point{X: 0, Y: 0}, max: transform.Point{X: 694, Y: 386}},
		{name: "offset", yaml: offsetFixtureYAML, min: transform.Point{X: 0, Y: 0}, max: transform.Point{X: 110, Y: 130}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHolder(engineFromYAML(t, tt.yaml), "")
			srv := httptest.NewServer(NewServer(h))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/bbox")
			if err != nil {
				t.Fatalf("GET /bbox: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("GET /bbox: expected 200, got %d", resp.StatusCode)
			}

			var body struct {
				Min transform.Point `json:"min"`
				Max transform.Point `json:"max"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Min != tt.min || body.Max != tt.max {
				t.Fatalf("bbox = (%v,%v), want (%v,%v)", body.Min, body.Max, tt.min, tt.max)
			}
		})
	}
}

func testEngine(t *testing.T) *transform.Engine {
	t.Helper()
	doc, err := transform.ParseDocument([]byte(`
ref_map:
  name: r
  size: [200, 200]
  correspondence_points: [[10,10],[190,5],[195,195],[5,190],[100,100]]
robot_map:
  name: q
  size: [200, 200]
  correspondence_points: [[12,8],[188,7],[193,193],[7,188],[102,98]]
`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	e, err := transform.LoadEngineDocument(doc, false, false)
	if err != nil {
		t.Fatalf("LoadEngineDocument: %v", err)
	}
	return e
}

func TestHealthReportsLoaded(t *testing.T) {
	h := NewHolder(testEngine(t), "")
	srv := NewServer(h)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded, _ := body["loaded"].(bool); !loaded {
		t.Fatal("expected loaded=true")
	}
}

func TestToRefQuery(t *testing.T) {
	h := NewHolder(testEngine(t), "")
	srv := NewServer(h)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/to-ref?x=12&y=8", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var p transform.Point
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.X != 10 || p.Y != 10 {
		t.Fatalf("expected exact correspondence round-trip, got %+v", p)
	}
}

func TestToRefMissingQueryParamIsBadRequest(t *testing.T) {
	h := NewHolder(testEngine(t), "")
	srv := NewServer(h)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/to-ref?x=10", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBBoxReportsRectangle(t *testing.T) {
	h := NewHolder(testEngine(t), "")
	srv := NewServer(h)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bbox", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestQueryOnEmptyHolderReportsConflict(t *testing.T) {
	h := NewHolder(transform.NewEngine(), "")
	srv := NewServer(h)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/to-ref?x=0&y=0", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestReloadWithoutSourceFails(t *testing.T) {
	h := NewHolder(testEngine(t), "")
	if err := h.Reload(false, false); err == nil {
		t.Fatal("expected Reload to fail without a source path")
	}
}

func TestReloadEndpointRejectsGet(t *testing.T) {
	h := NewHolder(testEngine(t), "")
	srv := NewServer(h)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reload", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestMapSVGRenders(t *testing.T) {
	h := NewHolder(testEngine(t), "")
	srv := NewServer(h)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/map.svg", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("expected non-empty SVG body")
	}
}
