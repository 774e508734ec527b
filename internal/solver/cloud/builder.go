package cloud

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/photonlab/fdtdbench/internal/config"
	"github.com/photonlab/fdtdbench/internal/ctxlog"
	"github.com/photonlab/fdtdbench/internal/layout"
	"github.com/photonlab/fdtdbench/internal/material"
	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// BuildSetup implements solver.Backend. The native mesh unit is integer
// steps per wavelength.
func (b *Backend) BuildSetup(ctx context.Context, prim *layout.Primitives, settings config.Settings,
	dev *config.Device, core, cladding material.Model) (*solver.Setup, error) {

	setup, err := solver.Build(prim, settings, dev, core, cladding, b.Convention(), Name)
	if err != nil {
		return nil, err
	}
	setup.Mesh.CloudStepsPerWvl = dev.Resolution
	ctxlog.FromContext(ctx).Debug("cloud setup built",
		"steps_per_wvl", setup.Mesh.CloudStepsPerWvl, "monitors", len(setup.Monitors))
	return setup, nil
}

// taskDoc is the submission payload. The remote schema speaks frequencies
// and 0-based modes natively.
type taskDoc struct {
	Device      string        `json:"device"`
	Domain      solver.Domain `json:"domain"`
	Boundaries  string        `json:"boundaries"`
	StepsPerWvl int           `json:"min_steps_per_wvl"`
	Source      taskSource    `json:"source"`
	Monitors    []taskMonitor `json:"monitors"`
	Materials   []taskMat     `json:"materials"`
	Polygons    []taskPoly    `json:"polygons"`
}

type taskSource struct {
	Port      string  `json:"port"`
	ModeIndex int     `json:"mode_index"` // 0-based, native
	WavMinUm  float64 `json:"wav_min_um"`
	WavMaxUm  float64 `json:"wav_max_um"`
	WavStepUm float64 `json:"wav_step_um"`
}

type taskMonitor struct {
	Name    string  `json:"name"`
	Port    string  `json:"port"`
	Kind    string  `json:"kind"`
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	WidthUm float64 `json:"width_um"`
}

type taskMat struct {
	Role     string           `json:"role"`
	Material string           `json:"material"`
	Index    []result.Complex `json:"index"`
}

type taskPoly struct {
	Name   string       `json:"name"`
	Layer  int          `json:"layer"`
	Points [][2]float64 `json:"points"`
}

func taskFromSetup(setup *solver.Setup) *taskDoc {
	doc := &taskDoc{
		Device:      setup.Device,
		Domain:      setup.Domain,
		Boundaries:  string(setup.Boundaries),
		StepsPerWvl: setup.Mesh.CloudStepsPerWvl,
		Source: taskSource{
			Port:      setup.Source.Port.Name,
			ModeIndex: setup.Source.ModeIndex,
			WavMinUm:  setup.Source.WavMinUm,
			WavMaxUm:  setup.Source.WavMaxUm,
			WavStepUm: setup.Source.WavStepUm,
		},
	}
	for _, m := range setup.Monitors {
		doc.Monitors = append(doc.Monitors, taskMonitor{
			Name:    m.Name,
			Port:    m.Port.Name,
			Kind:    m.Kind,
			CenterX: m.Port.Center.X,
			CenterY: m.Port.Center.Y,
			WidthUm: m.Port.Width,
		})
	}
	for _, a := range setup.Materials {
		tm := taskMat{Role: a.Role, Material: a.Material}
		for _, c := range a.Index {
			tm.Index = append(tm.Index, result.Complex(c))
		}
		doc.Materials = append(doc.Materials, tm)
	}
	for _, poly := range append(setup.Geometry.Core, setup.Geometry.Cladding...) {
		tp := taskPoly{Name: poly.Name, Layer: poly.Layer}
		for _, pt := range poly.Points {
			tp.Points = append(tp.Points, [2]float64{pt.X, pt.Y})
		}
		doc.Polygons = append(doc.Polygons, tp)
	}
	return doc
}

// writeTask persists the submission payload for inspection (and as the dry
// configuration artifact when the run flag is unset).
func writeTask(path string, doc *taskDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
