package desktop

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/photonlab/fdtdbench/internal/result"
	"github.com/photonlab/fdtdbench/internal/solver"
)

// projectDoc is the on-disk project file handed to the engine. The vendor
// format is opaque; this is the scripted-project subset the engine's
// automation interface accepts, kept under the conventional .fsp name so the
// file can be opened for manual inspection.
type projectDoc struct {
	Device     string            `json:"device"`
	Solver     string            `json:"solver"`
	Domain     solver.Domain     `json:"domain"`
	Boundaries string            `json:"boundaries"`
	MeshDxM    float64           `json:"mesh_dx_m"`
	Source     sourceDoc         `json:"source"`
	Monitors   []monitorDoc      `json:"monitors"`
	Materials  []materialDoc     `json:"materials"`
	Polygons   []polygonDoc      `json:"polygons"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type sourceDoc struct {
	Port      string  `json:"port"`
	ModeIndex int     `json:"mode_index"` // 1-based, native
	WavMinUm  float64 `json:"wav_min_um"`
	WavMaxUm  float64 `json:"wav_max_um"`
	WavStepUm float64 `json:"wav_step_um"`
}

type monitorDoc struct {
	Name    string     `json:"name"`
	Port    string     `json:"port"`
	Kind    string     `json:"kind"`
	CenterX float64    `json:"center_x"`
	CenterY float64    `json:"center_y"`
	WidthUm float64    `json:"width_um"`
	Span    [2]float64 `json:"z_span"`
}

type materialDoc struct {
	Role     string           `json:"role"`
	Material string           `json:"material"`
	Index    []result.Complex `json:"index"`
}

type polygonDoc struct {
	Name   string       `json:"name"`
	Layer  int          `json:"layer"`
	Points [][2]float64 `json:"points"`
}

func writeProject(path string, setup *solver.Setup) error {
	doc := projectDoc{
		Device:     setup.Device,
		Solver:     setup.Solver,
		Domain:     setup.Domain,
		Boundaries: string(setup.Boundaries),
		MeshDxM:    setup.Mesh.DesktopDxM,
		Source: sourceDoc{
			Port:      setup.Source.Port.Name,
			ModeIndex: setup.Source.ModeIndex,
			WavMinUm:  setup.Source.WavMinUm,
			WavMaxUm:  setup.Source.WavMaxUm,
			WavStepUm: setup.Source.WavStepUm,
		},
	}
	for _, m := range setup.Monitors {
		doc.Monitors = append(doc.Monitors, monitorDoc{
			Name:    m.Name,
			Port:    m.Port.Name,
			Kind:    m.Kind,
			CenterX: m.Port.Center.X,
			CenterY: m.Port.Center.Y,
			WidthUm: m.Port.Width,
			Span:    [2]float64{setup.Domain.ZMin, setup.Domain.ZMax},
		})
	}
	for _, a := range setup.Materials {
		md := materialDoc{Role: a.Role, Material: a.Material}
		for _, c := range a.Index {
			md.Index = append(md.Index, result.Complex(c))
		}
		doc.Materials = append(doc.Materials, md)
	}
	for _, poly := range append(setup.Geometry.Core, setup.Geometry.Cladding...) {
		pd := polygonDoc{Name: poly.Name, Layer: poly.Layer}
		for _, pt := range poly.Points {
			pd.Points = append(pd.Points, [2]float64{pt.X, pt.Y})
		}
		doc.Polygons = append(doc.Polygons, pd)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
