package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kwv/fieldplanner/planner"
)

// maxBodyBytes bounds edit request bodies
const maxBodyBytes = 64 << 10

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(tracker *planner.Tracker) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		snap := tracker.Snapshot()
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Route     string    `json:"route"`
			GridSize  int       `json:"gridSize"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Route:     snap.Status,
			GridSize:  tracker.Grid().Size(),
		}
		writeJSON(w, http.StatusOK, status)
	})

	mux.HandleFunc("GET /route", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, tracker.Snapshot())
	})

	mux.HandleFunc("GET /route.geojson", func(w http.ResponseWriter, r *http.Request) {
		var data []byte
		var err error
		tracker.View(func(s *planner.Session) {
			data, err = json.Marshal(planner.RouteGeoJSON(s))
		})
		if err != nil {
			log.Printf("[HTTP] Error encoding GeoJSON: %v", err)
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(data)
	})

	// Raster field; ?renderer=vector rasterizes the vector drawing instead
	mux.HandleFunc("GET /field.png", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		var err error
		tracker.View(func(s *planner.Session) {
			if r.URL.Query().Get("renderer") == "vector" {
				err = planner.NewVectorRenderer(s).RenderToPNG(&buf)
				return
			}
			err = png.Encode(&buf, planner.NewFieldRenderer(s).Render())
		})
		if err != nil {
			log.Printf("[HTTP] Error encoding field PNG: %v", err)
			http.Error(w, "rendering failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = buf.WriteTo(w)
	})

	mux.HandleFunc("GET /field.svg", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		var err error
		tracker.View(func(s *planner.Session) {
			err = planner.NewVectorRenderer(s).RenderToSVG(&buf)
		})
		if err != nil {
			log.Printf("[HTTP] Error rendering field SVG: %v", err)
			http.Error(w, "rendering failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = buf.WriteTo(w)
	})

	// Physical point to cell lookup, answered with the cell center
	mux.HandleFunc("GET /gps", func(w http.ResponseWriter, r *http.Request) {
		x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
		y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
		if errX != nil || errY != nil {
			http.Error(w, "x and y must be numbers in mm", http.StatusBadRequest)
			return
		}
		cell := tracker.Grid().GPSToGrid(x, y)
		writeJSON(w, http.StatusOK, struct {
			Cell   planner.Cell  `json:"cell"`
			Center planner.Point `json:"center"`
		}{cell, tracker.GPSFor(cell)})
	})

	mux.Handle("POST /start", editHandler(tracker, planner.OpSetStart))
	mux.Handle("POST /goal", editHandler(tracker, planner.OpSetGoal))
	mux.Handle("POST /waypoints", editHandler(tracker, planner.OpAddWaypoint))
	mux.Handle("POST /obstacles/cell", editHandler(tracker, planner.OpSetObstacle))
	mux.Handle("POST /obstacles/rect", editHandler(tracker, planner.OpAddRect))
	mux.Handle("POST /obstacles/edge", editHandler(tracker, planner.OpAddEdgeMargin))
	mux.Handle("POST /clear", editHandler(tracker, planner.OpClear))
	mux.Handle("POST /reset", editHandler(tracker, planner.OpReset))

	// Text obstacle command: "x y [radius]"
	mux.HandleFunc("POST /obstacles/disk", func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cmd, err := planner.ParseObstacleCommand(string(body), tracker.CollisionRadius())
		if err == nil {
			err = cmd.CheckFits(tracker.Grid())
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, tracker.ApplyObstacle(cmd))
	})

	return logRequests(mux)
}

// editHandler decodes a JSON body into an EditCommand for op. An empty body
// is accepted for operations without arguments.
func editHandler(tracker *planner.Tracker, op string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readBody(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var cmd planner.EditCommand
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &cmd); err != nil {
				http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
				return
			}
		}
		if cmd.Op != "" && cmd.Op != op {
			http.Error(w, fmt.Sprintf("op %q does not match endpoint", cmd.Op), http.StatusBadRequest)
			return
		}
		cmd.Op = op
		if err := cmd.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, tracker.ApplyEdit(cmd))
	})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Error encoding response: %v", err)
	}
}

// logRequests logs every request before dispatching it
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
