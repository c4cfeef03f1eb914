package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kwv/fieldplanner/planner"
)

const defaultConfigFile = "config.yaml"

// App encapsulates the application state and dependencies
type App struct {
	Config     *planner.Config
	Session    *planner.Session
	Tracker    *planner.Tracker
	MQTTClient *planner.MQTTClient
	Publisher  *planner.Publisher

	// Out receives the human-readable plan and service banner
	Out  io.Writer
	// Stop ends RunService; SIGINT/SIGTERM are used when nil
	Stop <-chan os.Signal

	// CLI Flags (effectively dependencies)
	ConfigFile string
	StateFile  string
	OutputFile string
	Start      string
	Goal       string
	Waypoints  []string
	Obstacles  []string
	HttpPort   int
	HttpMode   bool
	MqttMode   bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{
		Out:        os.Stdout,
		ConfigFile: defaultConfigFile,
	}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.StateFile = opts.StateFile
	a.OutputFile = opts.OutputFile
	a.Start = opts.Start
	a.Goal = opts.Goal
	a.Waypoints = opts.Waypoints
	a.Obstacles = opts.Obstacles
	a.HttpPort = opts.HttpPort
	a.HttpMode = opts.HttpMode
	a.MqttMode = opts.MqttMode
}

// setup loads the configuration and builds the session
func (a *App) setup() error {
	config, err := loadConfig(a.ConfigFile)
	if err != nil {
		return err
	}
	a.Config = config

	session, err := planner.NewSession(config.SessionConfig())
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	a.Session = session
	log.Printf("[PLAN] field %gmm in %gmm cells (%dx%d), collision radius %gmm",
		config.Field.Size, config.Field.CellSize, session.Grid().Size(), session.Grid().Size(),
		config.CollisionRadius())
	return nil
}

// loadConfig reads path. A missing default config falls back to the
// built-in field; an explicitly named config must exist.
func loadConfig(path string) (*planner.Config, error) {
	config, err := planner.LoadConfig(path)
	if err == nil {
		log.Printf("Loaded config from %s", path)
		return config, nil
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) && path == defaultConfigFile {
		log.Printf("No config at %s, using built-in field defaults", path)
		return planner.DefaultConfig(), nil
	}
	return nil, fmt.Errorf("failed to load config: %w (looked at %s)", err, path)
}

// RunPlan plans a single route from the flags, prints it and optionally
// renders the field to OutputFile. An infeasible route is reported, not
// returned as an error.
func (a *App) RunPlan() error {
	if a.Start == "" || a.Goal == "" {
		return fmt.Errorf("-plan requires -start and -goal")
	}
	if err := a.setup(); err != nil {
		return err
	}
	s := a.Session
	g := s.Grid()

	for _, text := range a.Obstacles {
		cmd, err := planner.ParseObstacleCommand(text, a.Config.CollisionRadius())
		if err == nil {
			err = cmd.CheckFits(g)
		}
		if err != nil {
			return fmt.Errorf("-obstacle %q: %w", text, err)
		}
		s.AddDisk(planner.Point{X: cmd.X, Y: cmd.Y}, cmd.Radius)
	}
	for _, text := range a.Waypoints {
		p, err := parsePoint(text)
		if err != nil {
			return fmt.Errorf("-waypoint: %w", err)
		}
		s.AddWaypoint(g.PointToGrid(p))
	}
	start, err := parsePoint(a.Start)
	if err != nil {
		return fmt.Errorf("-start: %w", err)
	}
	goal, err := parsePoint(a.Goal)
	if err != nil {
		return fmt.Errorf("-goal: %w", err)
	}
	s.SetStart(g.PointToGrid(start))
	s.SetGoal(g.PointToGrid(goal))

	a.printPlan()

	if a.OutputFile != "" {
		if err := renderToFile(s, a.OutputFile); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "Saved field to %s\n", a.OutputFile)
	}
	return nil
}

// printPlan writes the leg endpoints and every route cell with its GPS
// readback
func (a *App) printPlan() {
	s := a.Session
	snap := s.Snapshot()
	log.Printf("[PLAN] route %s: %d cells", snap.Status, len(snap.Cells))

	fmt.Fprintf(a.Out, "\nRoute: %s", snap.Status)
	if len(snap.Cells) > 0 {
		fmt.Fprintf(a.Out, " (%d cells, %.0f mm)", len(snap.Cells), snap.LengthMM)
	}
	fmt.Fprintln(a.Out)

	legs := planner.RouteLegs(snap.Start, snap.Goal, snap.Waypoints)
	if len(legs) > 0 {
		fmt.Fprintln(a.Out, "\nLegs:")
		for i, c := range legs {
			label := fmt.Sprintf("waypoint %d", i)
			switch i {
			case 0:
				label = "start"
			case len(legs) - 1:
				label = "goal"
			}
			p := s.GPSFor(c)
			fmt.Fprintf(a.Out, "  %-11s %-10s (%.0f, %.0f)\n", label, c, p.X, p.Y)
		}
	}

	if len(snap.Cells) == 0 {
		fmt.Fprintln(a.Out, "\nNo collision-free route exists")
		return
	}
	fmt.Fprintln(a.Out, "\nCells:")
	for i, c := range snap.Cells {
		p := snap.Points[i]
		fmt.Fprintf(a.Out, "  %4d  %-10s (%.0f, %.0f)\n", i, c, p.X, p.Y)
	}
}

// renderToFile picks the raster or vector renderer from the file extension
func renderToFile(s *planner.Session, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return planner.NewFieldRenderer(s).SavePNG(path)
	case ".svg":
		return planner.NewVectorRenderer(s).SaveSVG(path)
	default:
		return fmt.Errorf("unsupported output format %q (use .png or .svg)", filepath.Ext(path))
	}
}

// parsePoint parses "x,y" in mm
func parsePoint(text string) (planner.Point, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return planner.Point{}, fmt.Errorf("expected x,y in mm, got %q", text)
	}
	var v [2]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return planner.Point{}, fmt.Errorf("%q is not a number", strings.TrimSpace(part))
		}
		v[i] = f
	}
	return planner.Point{X: v[0], Y: v[1]}, nil
}

// RunService serves the session over HTTP and/or MQTT until stopped
func (a *App) RunService() error {
	fmt.Fprintln(a.Out, "Starting fieldplanner service...")

	if err := a.setup(); err != nil {
		return err
	}
	a.Tracker = planner.NewTrackerWithState(a.Session, a.StateFile)

	if a.MqttMode {
		mqttClient, err := planner.InitMQTT(a.Config, a.Tracker)
		if err != nil {
			return fmt.Errorf("failed to initialize MQTT: %w", err)
		}
		if mqttClient == nil {
			return fmt.Errorf("MQTT broker not configured (set mqtt.broker or MQTT_BROKER)")
		}
		a.MQTTClient = mqttClient

		a.Publisher = planner.NewPublisher(mqttClient.GetClient(), mqttClient.Prefix())
		a.Tracker.OnRouteChange(a.Publisher.Listener())
		if err := a.Publisher.PublishRoute(a.Tracker.Snapshot()); err != nil {
			log.Printf("[MQTT] initial route not published: %v", err)
		}
		fmt.Fprintln(a.Out, "MQTT route publisher initialized")
	}

	var server *http.Server
	serverErr := make(chan error, 1)
	if a.HttpMode {
		server = &http.Server{
			Addr:              fmt.Sprintf("0.0.0.0:%d", a.HttpPort),
			Handler:           newHTTPServer(a.Tracker),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("[HTTP] Starting server on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	a.printServiceInfo()

	stop := a.Stop
	if stop == nil {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		stop = sigChan
	}

	var runErr error
	select {
	case <-stop:
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server error: %w", err)
	}

	fmt.Fprintln(a.Out, "\nShutting down service...")
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("[HTTP] shutdown: %v", err)
		}
	}
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	fmt.Fprintln(a.Out, "Service stopped")
	return runErr
}

func (a *App) printServiceInfo() {
	fmt.Fprintln(a.Out, "\nService Running")
	fmt.Fprintln(a.Out, "===============")

	if a.MqttMode && a.MQTTClient != nil {
		fmt.Fprintln(a.Out, "\nMQTT:")
		fmt.Fprintf(a.Out, "  Obstacle commands: %s\n", a.MQTTClient.Topic(planner.TopicObstacle))
		fmt.Fprintf(a.Out, "  Edit commands:     %s\n", a.MQTTClient.Topic(planner.TopicCommand))
		fmt.Fprintf(a.Out, "  Publishing to:     %s\n", a.Publisher.Topic())
	}

	if a.HttpMode {
		fmt.Fprintf(a.Out, "\nHTTP endpoints (port %d):\n", a.HttpPort)
		fmt.Fprintln(a.Out, "  GET  /health          - Health check")
		fmt.Fprintln(a.Out, "  GET  /route           - Current route (JSON)")
		fmt.Fprintln(a.Out, "  GET  /route.geojson   - Current route (GeoJSON)")
		fmt.Fprintln(a.Out, "  GET  /field.png       - Rendered field")
		fmt.Fprintln(a.Out, "  GET  /field.svg       - Rendered field (vector)")
		fmt.Fprintln(a.Out, "  GET  /gps?x=&y=       - Cell for a physical point")
		fmt.Fprintln(a.Out, "  POST /start /goal /waypoints /clear /reset")
		fmt.Fprintln(a.Out, "  POST /obstacles/cell /obstacles/rect /obstacles/disk /obstacles/edge")
	}

	if a.StateFile != "" {
		fmt.Fprintf(a.Out, "\nField state: %s\n", a.StateFile)
	}
	fmt.Fprintln(a.Out, "\nPress Ctrl+C to stop")
}
