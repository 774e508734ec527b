// Package cloud drives the remote proprietary FDTD solver through its REST
// API: submit a task, poll until completion, download the result bundle. The
// cloud solver counts modes from 0. Nothing in this package retries on its
// own; a timed-out poll surfaces the task id so the caller can resume.
package cloud

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// Name identifies this backend in logs and artifacts.
const Name = "cloud"

// Environment configuration. A .env file in the working directory is loaded
// first if present, matching how the credential file is provisioned.
const (
	envAPIKey   = "SIMCLOUD_API_KEY"
	envEndpoint = "SIMCLOUD_ENDPOINT"

	defaultEndpoint = "https://api.simcloud.photonlab.io/v1"
)

// AuthError reports missing or invalid cloud credentials. It is fatal at
// startup, before any device runs.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("cloud solver authentication: %s", e.Detail)
}

// Backend is the cloud solver variant.
type Backend struct {
	BaseURL string
	APIKey  string

	PollInterval time.Duration
	PollTimeout  time.Duration

	// HTTPClient is swappable for tests.
	HTTPClient *http.Client
}

// New loads credentials and returns the backend. A missing API key fails
// with *AuthError.
func New(settings config.Settings) (solver.Backend, error) {
	// Best effort; the key may equally come from the real environment.
	_ = godotenv.Load()

	key := os.Getenv(envAPIKey)
	if key == "" {
		return nil, &AuthError{Detail: envAPIKey + " is not set (no credential file or key found)"}
	}
	base := os.Getenv(envEndpoint)
	if base == "" {
		base = defaultEndpoint
	}
	return &Backend{
		BaseURL:      base,
		APIKey:       key,
		PollInterval: settings.PollInterval,
		PollTimeout:  settings.PollTimeout,
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (b *Backend) Name() string { return Name }

// Convention implements solver.Backend; the cloud solver is 0-based.
func (b *Backend) Convention() solver.ModeConvention { return solver.ModeConvention{Base: 0} }
