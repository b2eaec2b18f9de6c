// Package searoute runs the SeaRoute engine (a Java command-line tool that
// computes shipping lanes over a maritime network) and turns its GeoJSON
// output into distance results.
package searoute

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
)

const (
	inputFile  = "input.csv"
	outputFile = "output.geojson"

	// waitDelay bounds how long Run waits for the engine's output pipes
	// after the process has been killed.
	waitDelay = 2 * time.Second

	// stderrTail is how much of the engine's stderr is kept for error messages.
	stderrTail = 512
)

var (
	// ErrTimeout is returned when the engine exceeds its time budget.
	ErrTimeout = errors.New("searoute timed out")

	// ErrNoRoute is returned when the engine produced no route features.
	ErrNoRoute = errors.New("searoute returned no route")

	// ErrMalformedOutput is returned for output the client cannot interpret.
	ErrMalformedOutput = errors.New("malformed searoute output")
)

// Options configures the engine invocation.
type Options struct {
	JavaBin    string
	JarPath    string
	Timeout    time.Duration
	Resolution float64 // km
	LengthUnit string  // "km" or "m"
}

// RoutePair is one row of a batch request.
type RoutePair struct {
	Name   string
	Origin domain.Coordinate
	Dest   domain.Coordinate
}

// commandFunc matches exec.CommandContext.
type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Client implements domain.DistanceStrategy by running one engine process per call.
type Client struct {
	opts    Options
	command commandFunc
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a SeaRoute client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if opts.JavaBin == "" {
		opts.JavaBin = "java"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Resolution <= 0 {
		opts.Resolution = 20
	}
	if opts.LengthUnit == "" {
		opts.LengthUnit = "km"
	}
	return &Client{
		opts:    opts,
		command: exec.CommandContext,
		metrics: metrics,
		logger:  logger,
	}
}

// Name implements domain.DistanceStrategy.
func (c *Client) Name() string { return domain.MethodRouted }

// Resolve implements domain.DistanceStrategy.
func (c *Client) Resolve(ctx context.Context, origin, dest domain.Coordinate) (domain.RouteDistanceResult, error) {
	results, err := c.ResolveBatch(ctx, []RoutePair{{Name: "route", Origin: origin, Dest: dest}})
	if err != nil {
		return domain.FailedRouteResult(domain.MethodRouted, err.Error()), err
	}
	return results[0], nil
}

// ResolveBatch routes every pair with a single engine run. Results are
// positionally aligned with pairs; a row the engine did not answer gets a
// failed result. A returned error means the whole run failed.
func (c *Client) ResolveBatch(ctx context.Context, pairs []RoutePair) ([]domain.RouteDistanceResult, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	dir, err := os.MkdirTemp("", "searoute-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Warn("remove searoute work dir", "dir", dir, "error", err)
		}
	}()

	in := filepath.Join(dir, inputFile)
	out := filepath.Join(dir, outputFile)
	if err := writeInput(in, pairs); err != nil {
		return nil, err
	}

	if err := c.run(ctx, dir, in, out); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrMalformedOutput, err)
	}
	return c.parseOutput(data, pairs)
}

func (c *Client) run(parent context.Context, dir, in, out string) error {
	ctx, cancel := context.WithTimeout(parent, c.opts.Timeout)
	defer cancel()

	cmd := c.command(ctx, c.opts.JavaBin,
		"-jar", c.opts.JarPath,
		"-i", in,
		"-o", out,
		"-res", strconv.FormatFloat(c.opts.Resolution, 'f', -1, 64),
	)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	c.metrics.RouteEngineDuration.Observe(time.Since(start).Seconds())

	switch {
	case parent.Err() != nil:
		return fmt.Errorf("searoute engine: %w", parent.Err())
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrTimeout, c.opts.Timeout)
	case err != nil:
		return fmt.Errorf("searoute engine: %w: %s", err, tail(stderr.String(), stderrTail))
	}
	return nil
}

func writeInput(path string, pairs []RoutePair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create input: %w", err)
	}

	w := csv.NewWriter(f)
	rows := make([][]string, 0, len(pairs)+1)
	rows = append(rows, []string{"route name", "olon", "olat", "dlon", "dlat"})
	for _, p := range pairs {
		rows = append(rows, []string{p.Name, ftoa(p.Origin.Lon), ftoa(p.Origin.Lat), ftoa(p.Dest.Lon), ftoa(p.Dest.Lat)})
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write input: %w", err)
	}
	return f.Close()
}

func (c *Client) parseOutput(data []byte, pairs []RoutePair) ([]domain.RouteDistanceResult, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(fc.Features) == 0 {
		return nil, ErrNoRoute
	}

	results := make([]domain.RouteDistanceResult, len(pairs))
	for i, p := range pairs {
		if i >= len(fc.Features) {
			results[i] = domain.FailedRouteResult(domain.MethodRouted, fmt.Sprintf("no route returned for %q", p.Name))
			continue
		}
		r, err := c.featureResult(fc.Features[i], p.Name)
		if err != nil {
			results[i] = domain.FailedRouteResult(domain.MethodRouted, err.Error())
			continue
		}
		results[i] = r
	}
	return results, nil
}

func (c *Client) featureResult(f *geojson.Feature, name string) (domain.RouteDistanceResult, error) {
	length, ok := numberProperty(f.Properties, "distKM")
	if !ok {
		return domain.RouteDistanceResult{}, fmt.Errorf("%w: missing or non-numeric distKM", ErrMalformedOutput)
	}
	km := c.toKM(length)
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return domain.RouteDistanceResult{}, fmt.Errorf("%w: invalid length %v", ErrMalformedOutput, length)
	}

	waypoints, err := countVertices(f.Geometry)
	if err != nil {
		return domain.RouteDistanceResult{}, err
	}
	c.metrics.RouteWaypoints.Observe(float64(waypoints))

	r := domain.NewRouteResult(domain.MethodRouted, km, waypoints)
	r.RouteName = name
	if v, ok := f.Properties["route name"].(string); ok && v != "" {
		r.RouteName = v
	}
	if v, ok := numberProperty(f.Properties, "dFromKM"); ok {
		r.OriginApproachKM = c.toKM(v)
	}
	if v, ok := numberProperty(f.Properties, "dToKM"); ok {
		r.DestApproachKM = c.toKM(v)
	}
	return r, nil
}

func (c *Client) toKM(v float64) float64 {
	if c.opts.LengthUnit == "m" {
		return v / 1000
	}
	return v
}

// countVertices sums the vertices of every part of a line geometry.
func countVertices(g orb.Geometry) (int, error) {
	switch g := g.(type) {
	case orb.LineString:
		return len(g), nil
	case orb.MultiLineString:
		n := 0
		for _, part := range g {
			n += len(part)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("%w: feature has no geometry", ErrMalformedOutput)
	default:
		return 0, fmt.Errorf("%w: unexpected geometry %s", ErrMalformedOutput, g.GeoJSONType())
	}
}

// numberProperty reads a numeric property; the engine writes some lengths as strings.
func numberProperty(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
