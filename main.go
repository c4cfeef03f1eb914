package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Version is set at build time via -ldflags
var Version = "dev"

// AppOptions carries parsed command-line flags into the App
type AppOptions struct {
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
	PlanOnly   bool
}

// Runner is the set of modes run can dispatch to
type Runner interface {
	ApplyOptions(opts AppOptions)
	RunPlan() error
	RunService() error
}

// listFlag collects a repeatable string flag
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, "; ") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("fieldplanner: %v", err)
	}
}

// run parses args and dispatches to the selected mode. Without -plan it runs
// the service, with HTTP enabled when neither -http nor -mqtt is given.
func run(args []string, out io.Writer, app Runner) error {
	fs := flag.NewFlagSet("fieldplanner", flag.ContinueOnError)
	fs.SetOutput(out)

	var waypoints, obstacles listFlag
	configFile := fs.String("config", "config.yaml", "Path to configuration file")
	plan := fs.Bool("plan", false, "Plan one route, print it and exit")
	start := fs.String("start", "", "Start position in mm: x,y")
	goal := fs.String("goal", "", "Goal position in mm: x,y")
	fs.Var(&waypoints, "waypoint", "Waypoint in mm: x,y (repeatable, visited in order)")
	fs.Var(&obstacles, "obstacle", "Disk obstacle in mm: \"x y [radius]\" (repeatable)")
	outputFile := fs.String("output", "", "Render the planned field to a .png or .svg file")
	httpMode := fs.Bool("http", false, "Enable HTTP server")
	httpPort := fs.Int("http-port", 4040, "HTTP server port")
	mqttMode := fs.Bool("mqtt", false, "Enable MQTT command and route topics")
	stateFile := fs.String("state-file", "", "Persist field edits to this JSON file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintf(out, "fieldplanner version: %s\n", Version)

	opts := AppOptions{
		ConfigFile: *configFile,
		StateFile:  *stateFile,
		OutputFile: *outputFile,
		Start:      *start,
		Goal:       *goal,
		Waypoints:  waypoints,
		Obstacles:  obstacles,
		HttpPort:   *httpPort,
		HttpMode:   *httpMode,
		MqttMode:   *mqttMode,
		PlanOnly:   *plan,
	}
	if !opts.PlanOnly && !opts.HttpMode && !opts.MqttMode {
		opts.HttpMode = true
	}
	app.ApplyOptions(opts)

	if opts.PlanOnly {
		return app.RunPlan()
	}

	fmt.Fprintln(out, "fieldplanner service starting...")
	return app.RunService()
}
