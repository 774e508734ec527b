package testutil

import (
	"testing"
)

// layoutDoc mirrors the layout JSON wire format.
type layoutDoc struct {
	Name     string    `json:"name"`
	Units    float64   `json:"units,omitempty"`
	Polygons []polyDoc `json:"polygons"`
	Ports    []portDoc `json:"ports"`
}

type polyDoc struct {
	Name   string       `json:"name"`
	Layer  int          `json:"layer"`
	Points [][2]float64 `json:"points"`
}

type portDoc struct {
	Name      string     `json:"name"`
	Center    [2]float64 `json:"center"`
	Direction float64    `json:"direction"`
	Width     float64    `json:"width"`
}

// WriteMMILayout writes a 2x2 multimode-interference coupler layout: a
// multimode body on the core layer, four access waveguides, a cladding slab,
// and four axis-aligned ports. Returns the file path.
//
// The body spans x in [0, 20], y in [-3, 3]; access waveguides are 0.5 µm
// wide and 2 µm long. The exact core+cladding bounding box is therefore
// x in [-2, 22], y in [-5, 5].
func (ws *Workspace) WriteMMILayout(t *testing.T, name string) string {
	t.Helper()
	doc := layoutDoc{
		Name: name,
		Polygons: []polyDoc{
			{Name: "mmi_body", Layer: 1, Points: [][2]float64{
				{0, -3}, {20, -3}, {20, 3}, {0, 3},
			}},
			{Name: "wg_in_1", Layer: 1, Points: [][2]float64{
				{-2, 1.25}, {0, 1.25}, {0, 1.75}, {-2, 1.75},
			}},
			{Name: "wg_in_2", Layer: 1, Points: [][2]float64{
				{-2, -1.75}, {0, -1.75}, {0, -1.25}, {-2, -1.25},
			}},
			{Name: "wg_out_1", Layer: 1, Points: [][2]float64{
				{20, 1.25}, {22, 1.25}, {22, 1.75}, {20, 1.75},
			}},
			{Name: "wg_out_2", Layer: 1, Points: [][2]float64{
				{20, -1.75}, {22, -1.75}, {22, -1.25}, {20, -1.25},
			}},
			{Name: "clad", Layer: 2, Points: [][2]float64{
				{-2, -5}, {22, -5}, {22, 5}, {-2, 5},
			}},
		},
		Ports: []portDoc{
			{Name: "o1", Center: [2]float64{-2, 1.5}, Direction: 180, Width: 0.5},
			{Name: "o2", Center: [2]float64{-2, -1.5}, Direction: 180, Width: 0.5},
			{Name: "o3", Center: [2]float64{22, 1.5}, Direction: 0, Width: 0.5},
			{Name: "o4", Center: [2]float64{22, -1.5}, Direction: 0, Width: 0.5},
		},
	}
	return ws.WriteJSON(t, "layouts/"+name+".json", doc)
}

// WriteStraightLayout writes a minimal straight waveguide with two ports.
func (ws *Workspace) WriteStraightLayout(t *testing.T, name string) string {
	t.Helper()
	doc := layoutDoc{
		Name: name,
		Polygons: []polyDoc{
			{Name: "wg", Layer: 1, Points: [][2]float64{
				{0, -0.25}, {10, -0.25}, {10, 0.25}, {0, 0.25},
			}},
			{Name: "clad", Layer: 2, Points: [][2]float64{
				{0, -2}, {10, -2}, {10, 2}, {0, 2},
			}},
		},
		Ports: []portDoc{
			{Name: "o1", Center: [2]float64{0, 0}, Direction: 180, Width: 0.5},
			{Name: "o2", Center: [2]float64{10, 0}, Direction: 0, Width: 0.5},
		},
	}
	return ws.WriteJSON(t, "layouts/"+name+".json", doc)
}

// WriteUniversalSilicon writes a single-pole silicon model into the materials
// library. The coefficients are not a physical fit; they only need to give a
// smooth index near 1.55 µm.
func (ws *Workspace) WriteUniversalSilicon(t *testing.T) string {
	t.Helper()
	doc := map[string]any{
		"material": "silicon",
		"eps_inf":  11.0,
		"poles": []map[string]float64{
			{"a_re": 0, "a_im": -3.93282466e15, "c_re": 0, "c_im": 1.92e15},
		},
		"thermo_optic": map[string]float64{"dn_dt": 1.8e-4, "t_ref": 300.0},
	}
	return ws.WriteJSON(t, "materials_library/universal_silicon.json", doc)
}

// WriteUniversalOxide writes a dispersionless oxide cladding model.
func (ws *Workspace) WriteUniversalOxide(t *testing.T) string {
	t.Helper()
	doc := map[string]any{
		"material":     "sio2",
		"eps_inf":      2.0851, // n = 1.444
		"poles":        []map[string]float64{},
		"thermo_optic": map[string]float64{"dn_dt": 1.0e-5, "t_ref": 300.0},
	}
	return ws.WriteJSON(t, "materials_library/universal_sio2.json", doc)
}

// WriteNativeSilicon writes a tabulated silicon model bundled with the given
// solver.
func (ws *Workspace) WriteNativeSilicon(t *testing.T, solverName string) string {
	t.Helper()
	doc := map[string]any{
		"material":      "silicon",
		"wavelength_um": []float64{1.2, 1.4, 1.6, 1.8},
		"n":             []float64{3.515, 3.487, 3.470, 3.459},
		"k":             []float64{0, 0, 0, 0},
		"thermo_optic":  map[string]float64{"dn_dt": 1.8e-4, "t_ref": 300.0},
	}
	return ws.WriteJSON(t, "materials_library/"+solverName+"_silicon.json", doc)
}
