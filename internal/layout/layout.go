package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// Polygon is a named closed polygon tagged with a layer id.
type Polygon struct {
	Name   string
	Layer  int
	Points []Point
}

// Bounds returns the exact bounding box of the polygon.
func (p Polygon) Bounds() Rect { return boundsOf(p.Points) }

// Port is a named waveguide cross-section where a mode source or monitor is
// placed. Direction is in degrees, pointing outward from the device, and must
// be axis-aligned. Width is the mode-field width in µm.
type Port struct {
	Name      string
	Center    Point
	Direction float64
	Width     float64
}

// Axis returns the outward unit vector of the port direction.
func (p Port) Axis() (dx, dy float64) {
	switch normalizeAngle(p.Direction) {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	}
	return 0, 0
}

// Device is an immutable device layout as loaded from disk. Coordinates are
// already scaled to µm by Load.
type Device struct {
	Name     string
	Polygons []Polygon
	Ports    []Port
}

// PortByName returns the named port, or nil.
func (d *Device) PortByName(name string) *Port {
	for i := range d.Ports {
		if d.Ports[i].Name == name {
			return &d.Ports[i]
		}
	}
	return nil
}

// wire types for the layout JSON document.
type fileDoc struct {
	Name     string    `json:"name"`
	Units    float64   `json:"units"` // µm per coordinate unit; 0 means 1.0
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

// Load reads a layout JSON document and scales all coordinates to µm.
func Load(path string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Device: path, Detail: "layout file not readable", Err: err}
	}
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Device: path, Detail: "layout file is not valid JSON", Err: err}
	}
	if len(doc.Polygons) == 0 {
		return nil, &Error{Device: doc.Name, Detail: "layout contains no polygons"}
	}

	scale := doc.Units
	if scale == 0 {
		scale = 1.0
	}

	dev := &Device{Name: doc.Name}
	for i, pd := range doc.Polygons {
		name := pd.Name
		if name == "" {
			name = fmt.Sprintf("polygon_%d", i)
		}
		poly := Polygon{Name: name, Layer: pd.Layer}
		for _, xy := range pd.Points {
			poly.Points = append(poly.Points, Point{X: xy[0] * scale, Y: xy[1] * scale})
		}
		dev.Polygons = append(dev.Polygons, poly)
	}
	for _, pt := range doc.Ports {
		dev.Ports = append(dev.Ports, Port{
			Name:      pt.Name,
			Center:    Point{X: pt.Center[0] * scale, Y: pt.Center[1] * scale},
			Direction: pt.Direction,
			Width:     pt.Width * scale,
		})
	}
	return dev, nil
}

func normalizeAngle(deg float64) float64 {
	for deg < 0 {
		deg += 360
	}
	for deg >= 360 {
		deg -= 360
	}
	return deg
}
