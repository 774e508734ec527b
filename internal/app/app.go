package app

import (
	"io"
	"log/slog"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/material"
	"github.com/photonlab/fdtdbench/internal/report"
	"github.com/photonlab/fdtdbench/internal/solver"
	"github.com/photonlab/fdtdbench/internal/solver/cloud"
	"github.com/photonlab/fdtdbench/internal/solver/desktop"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	cfg       *Config
	file      *config.File
	backends  *solver.Registry
	materials *material.Resolver
	paths     report.Paths
}

// NewApp constructs the application: logger, run configuration, and the
// backend registry. A configuration that fails to load is a fatal startup
// error.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)

	file, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		"devices", len(file.Devices), "material_type", file.Settings.MaterialType)

	backends := solver.NewRegistry()
	backends.Register(config.SolverDesktop, desktop.New)
	backends.Register(config.SolverCloud, cloud.New)

	return &App{
		outW:      outW,
		logger:    logger,
		cfg:       cfg,
		file:      file,
		backends:  backends,
		materials: material.NewResolver(file.Settings.MaterialsDir),
		paths:     report.Paths{Root: file.Settings.OutputDir},
	}, nil
}

// File exposes the loaded run configuration. Primarily for testing.
func (a *App) File() *config.File { return a.file }

// Backends exposes the solver registry. Primarily for testing, where fake
// backends replace the real factories.
func (a *App) Backends() *solver.Registry { return a.backends }
