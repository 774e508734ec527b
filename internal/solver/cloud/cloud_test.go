package cloud

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/layout"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
	"github.com/photonlab/fdtdbench/internal/testutil"
)

type fixedIndex struct{ n float64 }

func (f fixedIndex) Material() string              { return "silicon" }
func (f fixedIndex) Index(_, _ float64) complex128 { return complex(f.n, 0) }

func testPrimitives() *layout.Primitives {
	return &layout.Primitives{
		Name: "wg",
		Core: []layout.Polygon{
			{Name: "core", Layer: 1, Points: []layout.Point{{X: 0, Y: -0.25}, {X: 10, Y: -0.25}, {X: 10, Y: 0.25}, {X: 0, Y: 0.25}}},
		},
		Ports: []layout.Port{
			{Name: "o1", Center: layout.Point{X: 0, Y: 0}, Direction: 180, Width: 0.5},
			{Name: "o2", Center: layout.Point{X: 10, Y: 0}, Direction: 0, Width: 0.5},
		},
		Bounds: layout.Rect{MinX: 0, MinY: -2, MaxX: 10, MaxY: 2},
	}
}

func testSettings() config.Settings {
	return config.Settings{
		Wavelength:  1.55,
		WavStep:     0.01,
		Temperature: 300,
		SolverZMin:  -1,
		SolverZMax:  1,
		Margin:      1.0,
	}
}

func testDevice(run bool) *config.Device {
	return &config.Device{
		Name:       "wg",
		Solver:     config.SolverCloud,
		Resolution: 10,
		SpanNm:     100,
		ModeIndex:  0,
		Run:        run,
	}
}

func testBackend(fc *testutil.CloudAPI) *Backend {
	return &Backend{
		BaseURL:      fc.Server.URL,
		APIKey:       fc.APIKey,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
		HTTPClient:   &http.Client{Timeout: 5 * time.Second},
	}
}

func buildSetup(t *testing.T, b *Backend, run bool) *solver.Setup {
	t.Helper()
	setup, err := b.BuildSetup(testutil.Context(t), testPrimitives(), testSettings(), testDevice(run), fixedIndex{n: 3.48}, nil)
	require.NoError(t, err)
	return setup
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv(envAPIKey, "")
	_, err := New(testSettings())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), envAPIKey)
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv(envAPIKey, "k-123")
	t.Setenv(envEndpoint, "https://api.example.test/v2")

	b, err := New(testSettings())
	require.NoError(t, err)
	backend := b.(*Backend)
	assert.Equal(t, "k-123", backend.APIKey)
	assert.Equal(t, "https://api.example.test/v2", backend.BaseURL)
	assert.Equal(t, solver.ModeConvention{Base: 0}, backend.Convention())
}

func TestNewDefaultsEndpoint(t *testing.T) {
	t.Setenv(envAPIKey, "k-123")
	t.Setenv(envEndpoint, "")

	b, err := New(testSettings())
	require.NoError(t, err)
	assert.Equal(t, defaultEndpoint, b.(*Backend).BaseURL)
}

func TestBuildSetupNativeMesh(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	b := testBackend(fc)
	setup := buildSetup(t, b, false)

	assert.InDelta(t, 0.155, setup.Mesh.CellUm, 1e-12)
	assert.Equal(t, 10, setup.Mesh.CloudStepsPerWvl, "native mesh is steps per wavelength")
	assert.Equal(t, 0, setup.Source.ModeIndex, "cloud fundamental mode is 0")
}

func TestRunDryWritesTaskOnly(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	b := testBackend(fc)
	outDir := t.TempDir()

	raw, err := b.Run(testutil.Context(t), buildSetup(t, b, false), outDir)
	require.NoError(t, err)
	assert.Nil(t, raw)

	assert.FileExists(t, filepath.Join(outDir, "wg_task.json"))
	assert.Equal(t, 0, fc.Submissions, "dry configuration never reaches the API")
}

func TestRunFullLifecycle(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	fc.Data = testutil.CloudRaw("wg", []string{"o1", "o2"}, "o1", []float64{1.50, 1.55, 1.60})
	b := testBackend(fc)
	outDir := t.TempDir()

	raw, err := b.Run(testutil.Context(t), buildSetup(t, b, true), outDir)
	require.NoError(t, err)
	require.NotNil(t, raw)

	assert.Equal(t, 1, fc.Submissions)
	assert.GreaterOrEqual(t, fc.Polls(), 3, "walked the queued/running/success sequence")

	assert.Equal(t, result.SchemaCloudRaw, raw.Schema)
	assert.Equal(t, "cloud", raw.Solver)
	assert.Equal(t, "wg", raw.Device)
	assert.Equal(t, fc.TaskID, raw.TaskID)

	bundle := filepath.Join(outDir, "wg_results.hdf5")
	assert.Equal(t, bundle, raw.BundlePath)
	assert.FileExists(t, bundle)
	assert.FileExists(t, filepath.Join(outDir, "wg_task.json"))
}

func TestRunRemoteTaskFailure(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	fc.Statuses = []string{"queued", "error"}
	fc.FailMessage = "diverged at step 1200"
	b := testBackend(fc)

	_, err := b.Run(testutil.Context(t), buildSetup(t, b, true), t.TempDir())
	var execErr *solver.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, err.Error(), "diverged at step 1200")
	assert.Contains(t, err.Error(), fc.TaskID)
}

func TestRunPollTimeoutPreservesTaskID(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	fc.Statuses = []string{"running"} // never finishes
	b := testBackend(fc)
	b.PollTimeout = 10 * time.Millisecond

	_, err := b.Run(testutil.Context(t), buildSetup(t, b, true), t.TempDir())
	var remoteErr *solver.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, fc.TaskID, remoteErr.TaskID, "timeout surfaces the task id for manual resume")
	assert.Contains(t, remoteErr.Detail, "timeout")
}

func TestRunRejectedCredentials(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	b := testBackend(fc)
	b.APIKey = "wrong"

	_, err := b.Run(testutil.Context(t), buildSetup(t, b, true), t.TempDir())
	var remoteErr *solver.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Contains(t, remoteErr.Detail, "credentials rejected")
}

func TestRunQuotaExhausted(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	fc.SubmitStatus = http.StatusTooManyRequests
	b := testBackend(fc)

	_, err := b.Run(testutil.Context(t), buildSetup(t, b, true), t.TempDir())
	var remoteErr *solver.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Contains(t, remoteErr.Detail, "quota")
}

func TestRunMalformedTaskRejected(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	fc.SubmitStatus = http.StatusUnprocessableEntity
	b := testBackend(fc)

	_, err := b.Run(testutil.Context(t), buildSetup(t, b, true), t.TempDir())
	var subErr *solver.SubmissionError
	require.ErrorAs(t, err, &subErr)
}

func TestRunCancelledContext(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	fc.Statuses = []string{"running"}
	b := testBackend(fc)
	b.PollInterval = 50 * time.Millisecond
	b.PollTimeout = time.Minute

	ctx, cancel := context.WithCancel(testutil.Context(t))
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := b.Run(ctx, buildSetup(t, b, true), t.TempDir())
	var remoteErr *solver.RemoteError
	require.ErrorAs(t, err, &remoteErr)
}

func TestRunRejectsForeignSetup(t *testing.T) {
	fc := testutil.NewCloudAPI(t)
	b := testBackend(fc)
	setup := buildSetup(t, b, true)
	setup.Solver = "desktop"

	_, err := b.Run(testutil.Context(t), setup, t.TempDir())
	var subErr *solver.SubmissionError
	require.ErrorAs(t, err, &subErr)
}
