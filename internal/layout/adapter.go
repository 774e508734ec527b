package layout

import (
	"fmt"
	"math"
)

// degenerateArea is the polygon area (µm²) below which geometry is rejected.
const degenerateArea = 1e-9

// Roles maps layout layers to their physical meaning and names the ports a
// simulation requires.
type Roles struct {
	CoreLayers     []int
	CladdingLayers []int
	RequiredPorts  []string
}

// Primitives is the solver-neutral output of the adapter: validated geometry
// in µm with an exact (zero-margin) bounding box.
type Primitives struct {
	Name     string
	Core     []Polygon
	Cladding []Polygon
	Ports    []Port
	Bounds   Rect
}

// InputPort returns the port a mode source is injected at. By convention the
// first required port is the input.
func (p *Primitives) InputPort() Port { return p.Ports[0] }

// PortByName returns the named resolved port, or nil.
func (p *Primitives) PortByName(name string) *Port {
	for i := range p.Ports {
		if p.Ports[i].Name == name {
			return &p.Ports[i]
		}
	}
	return nil
}

// ExtendOptions controls the optional straight waveguide arms grown outward
// from each port so that sources and monitors sit in unperturbed guide.
type ExtendOptions struct {
	Enabled bool
	Length  float64 // µm
}

// Adapt converts a loaded device into validated primitives. It is a pure
// transform: the device is not modified and no files are touched.
func Adapt(dev *Device, roles Roles, ext ExtendOptions) (*Primitives, error) {
	if len(roles.CoreLayers) == 0 {
		return nil, &Error{Device: dev.Name, Detail: "no core layers in role mapping"}
	}
	if len(roles.RequiredPorts) == 0 {
		return nil, &Error{Device: dev.Name, Detail: "no required ports in role mapping"}
	}

	prim := &Primitives{Name: dev.Name}
	core := intSet(roles.CoreLayers)
	clad := intSet(roles.CladdingLayers)
	for _, poly := range dev.Polygons {
		if err := validatePolygon(dev.Name, poly); err != nil {
			return nil, err
		}
		switch {
		case core[poly.Layer]:
			prim.Core = append(prim.Core, poly)
		case clad[poly.Layer]:
			prim.Cladding = append(prim.Cladding, poly)
		}
	}
	if len(prim.Core) == 0 {
		return nil, &Error{Device: dev.Name, Detail: fmt.Sprintf("no polygons on core layers %v", roles.CoreLayers)}
	}

	for _, name := range roles.RequiredPorts {
		port := dev.PortByName(name)
		if port == nil {
			return nil, &Error{Device: dev.Name, Detail: fmt.Sprintf("required port %q is absent", name)}
		}
		if port.Width <= 0 {
			return nil, &Error{Device: dev.Name, Detail: fmt.Sprintf("port %q has non-positive width %v", name, port.Width)}
		}
		if !axisAligned(port.Direction) {
			return nil, &Error{Device: dev.Name, Detail: fmt.Sprintf("port %q direction %v° is not axis-aligned", name, port.Direction)}
		}
		resolved := *port
		if ext.Enabled {
			arm, moved := extendPort(resolved, ext.Length)
			prim.Core = append(prim.Core, arm)
			resolved = moved
		}
		prim.Ports = append(prim.Ports, resolved)
	}

	bounds := prim.Core[0].Bounds()
	for _, poly := range prim.Core[1:] {
		bounds = bounds.Union(poly.Bounds())
	}
	for _, poly := range prim.Cladding {
		bounds = bounds.Union(poly.Bounds())
	}
	prim.Bounds = bounds
	return prim, nil
}

func validatePolygon(device string, poly Polygon) error {
	if len(poly.Points) < 3 {
		return &Error{Device: device, Detail: fmt.Sprintf("polygon %q has %d vertices", poly.Name, len(poly.Points))}
	}
	if math.Abs(signedArea(poly.Points)) < degenerateArea {
		return &Error{Device: device, Detail: fmt.Sprintf("polygon %q is degenerate (zero area)", poly.Name)}
	}
	if selfIntersects(poly.Points) {
		return &Error{Device: device, Detail: fmt.Sprintf("polygon %q is self-intersecting", poly.Name)}
	}
	return nil
}

// extendPort builds a straight rectangular arm of the given length along the
// port's outward axis and returns the arm plus the port moved to its far end.
func extendPort(port Port, length float64) (Polygon, Port) {
	dx, dy := port.Axis()
	half := port.Width / 2
	// Perpendicular to the outward axis.
	px, py := -dy, dx

	c := port.Center
	far := Point{X: c.X + dx*length, Y: c.Y + dy*length}
	arm := Polygon{
		Name:  port.Name + "_ext",
		Layer: -1, // synthetic, not from any layout layer
		Points: []Point{
			{X: c.X + px*half, Y: c.Y + py*half},
			{X: far.X + px*half, Y: far.Y + py*half},
			{X: far.X - px*half, Y: far.Y - py*half},
			{X: c.X - px*half, Y: c.Y - py*half},
		},
	}
	moved := port
	moved.Center = far
	return arm, moved
}

func axisAligned(deg float64) bool {
	n := normalizeAngle(deg)
	return n == 0 || n == 90 || n == 180 || n == 270
}

func intSet(xs []int) map[int]bool {
	m := make(map[int]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}
