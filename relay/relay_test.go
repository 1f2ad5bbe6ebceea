package relay

import (
	"encoding/json"
	"testing"

	"github.com/kwv/maptransform/transform"
)

func testLoadedEngine(t *testing.T) *transform.Engine {
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

// newTestRelay builds a Relay directly around a mock client, bypassing New's
// mqtt.ClientOptions wiring since the mock has no broker to dial.
func newTestRelay(cfg Config, e *transform.Engine, mc *MockClient) *Relay {
	return &Relay{cfg: cfg, engine: e, client: mc}
}

func TestHandleMessageTransformsAndPublishes(t *testing.T) {
	e := testLoadedEngine(t)
	mc := NewMockClient()
	cfg := Config{
		Broker:      "tcp://example.invalid:1883",
		InputTopic:  "points/in",
		OutputTopic: "points/out",
		Direction:   ToRef,
	}
	rel := newTestRelay(cfg, e, mc)

	in := PointMessage{Label: "a", X: 12, Y: 8}
	payload, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}

	rel.handleMessage(mc, &mockMessage{topic: cfg.InputTopic, payload: payload})

	published := mc.Published()
	if len(published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(published))
	}
	if published[0].Topic != cfg.OutputTopic {
		t.Fatalf("expected publish to %s, got %s", cfg.OutputTopic, published[0].Topic)
	}

	var out PointMessage
	if err := json.Unmarshal(published[0].Payload, &out); err != nil {
		t.Fatalf("unmarshal published payload: %v", err)
	}
	if out.Label != "a" {
		t.Fatalf("expected label to pass through, got %q", out.Label)
	}
	// (12,8) is an exact robot-frame correspondence point, so to_ref must
	// return its paired reference point (10,10).
	if !almostEqual(out.X, 10) || !almostEqual(out.Y, 10) {
		t.Fatalf("expected exact correspondence round-trip, got (%v,%v)", out.X, out.Y)
	}

	last, ok := rel.LastMessage()
	if !ok {
		t.Fatal("expected LastMessage to be set")
	}
	if last.X != out.X || last.Y != out.Y {
		t.Fatalf("LastMessage mismatch: got %+v want %+v", last, out)
	}
}

func TestHandleMessageDirectionToRobot(t *testing.T) {
	e := testLoadedEngine(t)
	mc := NewMockClient()
	cfg := Config{
		Broker:      "tcp://example.invalid:1883",
		InputTopic:  "points/in",
		OutputTopic: "points/out",
		Direction:   ToRobot,
	}
	rel := newTestRelay(cfg, e, mc)

	in := PointMessage{X: 10, Y: 10}
	payload, _ := json.Marshal(in)
	rel.handleMessage(mc, &mockMessage{topic: cfg.InputTopic, payload: payload})

	published := mc.Published()
	if len(published) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(published))
	}
	var out PointMessage
	if err := json.Unmarshal(published[0].Payload, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !almostEqual(out.X, 12) || !almostEqual(out.Y, 8) {
		t.Fatalf("expected to_robot((10,10)) ~= (12,8), got (%v,%v)", out.X, out.Y)
	}
}

func TestHandleMessageMalformedPayloadIsIgnored(t *testing.T) {
	e := testLoadedEngine(t)
	mc := NewMockClient()
	cfg := Config{
		Broker:      "tcp://example.invalid:1883",
		InputTopic:  "points/in",
		OutputTopic: "points/out",
		Direction:   ToRef,
	}
	rel := newTestRelay(cfg, e, mc)

	rel.handleMessage(mc, &mockMessage{topic: cfg.InputTopic, payload: []byte("not json")})

	if len(mc.Published()) != 0 {
		t.Fatal("expected no publish for malformed payload")
	}
	if _, ok := rel.LastMessage(); ok {
		t.Fatal("expected LastMessage to remain unset")
	}
}

func TestRelayConnectedLifecycle(t *testing.T) {
	e := testLoadedEngine(t)
	mc := NewMockClient()
	cfg := Config{
		Broker:      "tcp://example.invalid:1883",
		InputTopic:  "points/in",
		OutputTopic: "points/out",
	}
	rel := newTestRelay(cfg, e, mc)

	if rel.IsConnected() {
		t.Fatal("expected relay to start disconnected")
	}
	rel.onConnect(mc)
	if !rel.IsConnected() {
		t.Fatal("expected relay to be connected after onConnect")
	}
	rel.onConnectionLost(mc, nil)
	if rel.IsConnected() {
		t.Fatal("expected relay to be disconnected after onConnectionLost")
	}
}

func TestNewRejectsUnloadedEngine(t *testing.T) {
	e := transform.NewEngine()
	_, err := New(Config{InputTopic: "in", OutputTopic: "out"}, e, nil)
	if err == nil {
		t.Fatal("expected New to reject an unloaded engine")
	}
}

func TestNewRejectsMissingTopics(t *testing.T) {
	e := testLoadedEngine(t)
	_, err := New(Config{}, e, nil)
	if err == nil {
		t.Fatal("expected New to reject missing topics")
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}
