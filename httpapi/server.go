// Package httpapi exposes a loaded transform.Engine over HTTP: point
// queries, the bounding box, a diagnostic fit report, and the triangulation
// overlay render. It is built the same way the teacher's newHTTPServer
// wires mesh.StateTracker into a http.ServeMux - a thin mux plus a logging
// wrapper - except the state held behind the mutex here is a whole Engine
// that can be hot-swapped by reloading its source document.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/kwv/maptransform/render"
	"github.com/kwv/maptransform/transform"
)

// Holder guards a *transform.Engine behind a RWMutex so a background
// reload can swap in a freshly loaded engine while requests keep reading
// the old one mid-flight, the same seam mesh.StateTracker gives map
// updates versus HTTP reads.
type Holder struct {
	mu     sync.RWMutex
	engine *transform.Engine
	source string // path last used to (re)load, for Reload with no args
}

// NewHolder wraps an already-loaded engine.
func NewHolder(e *transform.Engine, source string) *Holder {
	return &Holder{engine: e, source: source}
}

// Engine returns the currently active engine.
func (h *Holder) Engine() *transform.Engine {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.engine
}

// Reload re-reads h's source document and, on success, swaps it in as the
// active engine. A failure leaves the previous engine in place.
func (h *Holder) Reload(checkImages, useIndex bool) error {
	h.mu.RLock()
	path := h.source
	h.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("httpapi: holder has no source path to reload from")
	}

	e, err := transform.LoadEngineFile(path, checkImages, useIndex)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.engine = e
	h.mu.Unlock()
	return nil
}

// NewServer builds the HTTP handler: point queries, bounding box, fit
// report, reload trigger, and render endpoints, wrapped in the same
// request-logging middleware the teacher's newHTTPServer applies.
func NewServer(h *Holder) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"loaded": h.Engine().Loaded(),
		})
	})

	mux.HandleFunc("/to-ref", queryHandler(h, (*transform.Engine).ToRef))
	mux.HandleFunc("/to-robot", queryHandler(h, (*transform.Engine).ToRobot))

	mux.HandleFunc("/bbox", func(w http.ResponseWriter, r *http.Request) {
		min, max, err := h.Engine().BoundingBox()
		if err != nil {
			writeFault(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"min": min, "max": max})
	})

	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		report, err := h.Engine().Report()
		if err != nil {
			writeFault(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	mux.HandleFunc("/reload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := h.Reload(false, false); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded"})
	})

	mux.HandleFunc("/map.svg", func(w http.ResponseWriter, r *http.Request) {
		frame := parseFrame(r)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := render.ToSVG(h.Engine(), frame, render.DefaultOverlay(), w); err != nil {
			log.Printf("httpapi: rendering /map.svg: %v", err)
		}
	})

	mux.HandleFunc("/map.png", func(w http.ResponseWriter, r *http.Request) {
		frame := parseFrame(r)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := render.ToPNG(h.Engine(), frame, render.DefaultOverlay(), 96, w); err != nil {
			log.Printf("httpapi: rendering /map.png: %v", err)
		}
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		mux.ServeHTTP(w, r)
	})
}

func parseFrame(r *http.Request) render.Frame {
	if r.URL.Query().Get("frame") == "robot" {
		return render.FrameRobot
	}
	return render.FrameRef
}

// queryHandler builds a handler for ToRef/ToRobot style methods that take
// a transform.Point and return one, reading x/y from the query string.
func queryHandler(h *Holder, method func(*transform.Engine, transform.Point) (transform.Point, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		x, err := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
		if err != nil {
			http.Error(w, "invalid or missing x", http.StatusBadRequest)
			return
		}
		y, err := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
		if err != nil {
			http.Error(w, "invalid or missing y", http.StatusBadRequest)
			return
		}

		out, err := method(h.Engine(), transform.Point{X: x, Y: y})
		if err != nil {
			writeFault(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encoding response: %v", err)
	}
}

// writeFault maps a transform.Fault to an HTTP status: an input fault
// means the request or loaded document was bad (422), a logic fault means
// the engine was used out of sequence, typically queried before loading
// (409).
func writeFault(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case transform.IsInputFault(err):
		status = http.StatusUnprocessableEntity
	case transform.IsLogicFault(err):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
