package searoute

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
)

const (
	envHelper = "GO_WANT_HELPER_PROCESS"
	envMode   = "SEAROUTE_FAKE_MODE"
)

var (
	rotterdam = domain.Coordinate{Lon: 4.48, Lat: 51.92}
	singapore = domain.Coordinate{Lon: 103.82, Lat: 1.26}
)

// fakeClient returns a Client whose engine is this test binary running
// TestHelperProcess in the given mode. TMPDIR is redirected so tests can
// check that work directories are cleaned up.
func fakeClient(t *testing.T, mode string, opts Options) (*Client, string) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	if opts.JarPath == "" {
		opts.JarPath = "searoute.jar"
	}
	c := NewClient(opts, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.command = func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), envHelper+"=1", envMode+"="+mode)
		return cmd
	}
	return c, tmp
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work directory must be removed")
}

// TestHelperProcess is not a real test; it stands in for the SeaRoute engine.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(envHelper) != "1" {
		return
	}
	os.Exit(fakeEngine(os.Getenv(envMode), os.Args))
}

func fakeEngine(mode string, argv []string) int {
	args := map[string]string{}
	for i, a := range argv {
		if a == "--" {
			rest := argv[i+1:]
			for j := 0; j+1 < len(rest); j++ {
				args[rest[j]] = rest[j+1]
			}
			break
		}
	}

	rows, err := readRows(args["-i"])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	var out any
	switch mode {
	case "fail":
		fmt.Fprintln(os.Stderr, "Exception in thread \"main\" java.lang.IllegalArgumentException: bad input")
		return 3
	case "sleep":
		time.Sleep(30 * time.Second)
		return 0
	case "no-output":
		return 0
	case "bad-json":
		return writeRaw(args["-o"], []byte("{not geojson"))
	case "empty":
		out = featureCollection()
	case "missing-length":
		out = featureCollection(feature(lineString(3), map[string]any{"dFromKM": 1.0}))
	case "point":
		out = featureCollection(feature(map[string]any{"type": "Point", "coordinates": []float64{1, 2}}, map[string]any{"distKM": 10.0}))
	case "short":
		out = featureCollection(feature(lineString(2), map[string]any{"distKM": 100.0}))
	case "multi":
		geom := map[string]any{
			"type":        "MultiLineString",
			"coordinates": [][][]float64{{{0, 0}, {1, 1}}, {{1, 1}, {2, 2}, {3, 3}}},
		}
		out = featureCollection(feature(geom, map[string]any{"distKM": "987.6"}))
	default: // "ok"
		var fs []map[string]any
		for i, row := range rows {
			fs = append(fs, feature(lineString(3+i), map[string]any{
				"route name": row[0],
				"distKM":     19420.04 + float64(i),
				"dFromKM":    1.5,
				"dToKM":      2.5,
				"res":        args["-res"],
			}))
		}
		out = featureCollection(fs...)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return 2
	}
	return writeRaw(args["-o"], data)
}

func readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 || all[0][0] != "route name" {
		return nil, fmt.Errorf("unexpected header %v", all)
	}
	return all[1:], nil
}

func writeRaw(path string, data []byte) int {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return 2
	}
	return 0
}

func featureCollection(fs ...map[string]any) map[string]any {
	if fs == nil {
		fs = []map[string]any{}
	}
	return map[string]any{"type": "FeatureCollection", "features": fs}
}

func feature(geom, props map[string]any) map[string]any {
	return map[string]any{"type": "Feature", "geometry": geom, "properties": props}
}

func lineString(n int) map[string]any {
	coords := make([][]float64, n)
	for i := range coords {
		coords[i] = []float64{float64(i), float64(i)}
	}
	return map[string]any{"type": "LineString", "coordinates": coords}
}

// --- Client tests ---

func TestClient_Resolve_Success(t *testing.T) {
	c, tmp := fakeClient(t, "ok", Options{})

	result, err := c.Resolve(context.Background(), rotterdam, singapore)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, domain.MethodRouted, result.Method)
	assert.Equal(t, 19420.0, result.DistanceKM)
	assert.Equal(t, 19420.04, result.RawDistanceKM)
	assert.Equal(t, 19420.04/domain.KilometresPerNauticalMile, result.NauticalMiles())
	assert.Equal(t, 3, result.WaypointCount)
	assert.Equal(t, "route", result.RouteName)
	assert.Equal(t, 1.5, result.OriginApproachKM)
	assert.Equal(t, 2.5, result.DestApproachKM)
	assertDirEmpty(t, tmp)
}

func TestClient_Name(t *testing.T) {
	c, _ := fakeClient(t, "ok", Options{})
	assert.Equal(t, domain.MethodRouted, c.Name())
}

func TestClient_MultiLineStringAndStringLength(t *testing.T) {
	c, _ := fakeClient(t, "multi", Options{})

	result, err := c.Resolve(context.Background(), rotterdam, singapore)
	require.NoError(t, err)

	assert.Equal(t, 5, result.WaypointCount, "vertices summed across parts")
	assert.Equal(t, 987.6, result.RawDistanceKM)
}

func TestClient_MetreLengthUnit(t *testing.T) {
	c, _ := fakeClient(t, "ok", Options{LengthUnit: "m"})

	result, err := c.Resolve(context.Background(), rotterdam, singapore)
	require.NoError(t, err)
	assert.InDelta(t, 19.42004, result.RawDistanceKM, 1e-9)
	assert.InDelta(t, 0.0015, result.OriginApproachKM, 1e-12)
}

func TestClient_EngineFailure(t *testing.T) {
	c, tmp := fakeClient(t, "fail", Options{})

	result, err := c.Resolve(context.Background(), rotterdam, singapore)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IllegalArgumentException")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assertDirEmpty(t, tmp)
}

func TestClient_Timeout(t *testing.T) {
	c, tmp := fakeClient(t, "sleep", Options{Timeout: 300 * time.Millisecond})

	start := time.Now()
	result, err := c.Resolve(context.Background(), rotterdam, singapore)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second, "process killed at the deadline")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "timed out")
	assertDirEmpty(t, tmp)
}

func TestClient_CallerCancellation(t *testing.T) {
	c, tmp := fakeClient(t, "sleep", Options{Timeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.Resolve(ctx, rotterdam, singapore)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrTimeout, "caller deadline is not the engine timeout")
	assertDirEmpty(t, tmp)
}

func TestClient_MalformedOutputs(t *testing.T) {
	tests := []struct {
		mode    string
		wantErr error
	}{
		{"no-output", ErrMalformedOutput},
		{"bad-json", ErrMalformedOutput},
		{"empty", ErrNoRoute},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			c, tmp := fakeClient(t, tt.mode, Options{})
			result, err := c.Resolve(context.Background(), rotterdam, singapore)
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, result.Success)
			assertDirEmpty(t, tmp)
		})
	}
}

func TestClient_BadFeatureIsFailedResult(t *testing.T) {
	for _, mode := range []string{"missing-length", "point"} {
		t.Run(mode, func(t *testing.T) {
			c, _ := fakeClient(t, mode, Options{})
			result, err := c.Resolve(context.Background(), rotterdam, singapore)
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, "malformed")
		})
	}
}

func TestClient_PassesResolution(t *testing.T) {
	c, _ := fakeClient(t, "ok", Options{Resolution: 5})

	var gotArgs []string
	inner := c.command
	c.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = args
		return inner(ctx, name, args...)
	}

	_, err := c.Resolve(context.Background(), rotterdam, singapore)
	require.NoError(t, err)
	require.Len(t, gotArgs, 8)
	assert.Equal(t, []string{"-jar", "searoute.jar"}, gotArgs[:2])
	assert.Equal(t, []string{"-res", "5"}, gotArgs[6:])
}

func TestClient_ResolveBatch(t *testing.T) {
	c, tmp := fakeClient(t, "ok", Options{})

	pairs := []RoutePair{
		{Name: "RTM-SIN", Origin: rotterdam, Dest: singapore},
		{Name: "SIN-RTM", Origin: singapore, Dest: rotterdam},
		{Name: "RTM-RTM", Origin: rotterdam, Dest: rotterdam},
	}
	results, err := c.ResolveBatch(context.Background(), pairs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.True(t, r.Success)
		assert.Equal(t, pairs[i].Name, r.RouteName)
		assert.Equal(t, 3+i, r.WaypointCount)
	}
	assertDirEmpty(t, tmp)
}

func TestClient_ResolveBatch_MissingRows(t *testing.T) {
	c, _ := fakeClient(t, "short", Options{})

	results, err := c.ResolveBatch(context.Background(), []RoutePair{
		{Name: "a", Origin: rotterdam, Dest: singapore},
		{Name: "b", Origin: singapore, Dest: rotterdam},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, `"b"`)
}

func TestClient_ResolveBatch_Empty(t *testing.T) {
	c, _ := fakeClient(t, "ok", Options{})
	results, err := c.ResolveBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_MissingJava(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	c := NewClient(Options{JavaBin: "/nonexistent/java", JarPath: "searoute.jar"},
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	result, err := c.Resolve(context.Background(), rotterdam, singapore)
	require.Error(t, err)
	assert.False(t, result.Success)
	assertDirEmpty(t, tmp)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Options{JarPath: "x.jar"}, observability.NewMetricsForTesting(), slog.Default())
	assert.Equal(t, "java", c.opts.JavaBin)
	assert.Equal(t, 60*time.Second, c.opts.Timeout)
	assert.Equal(t, 20.0, c.opts.Resolution)
	assert.Equal(t, "km", c.opts.LengthUnit)
}
