package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straightDevice() *Device {
	return &Device{
		Name: "wg",
		Polygons: []Polygon{
			{Name: "core", Layer: 1, Points: []Point{{0, -0.25}, {10, -0.25}, {10, 0.25}, {0, 0.25}}},
			{Name: "clad", Layer: 2, Points: []Point{{0, -2}, {10, -2}, {10, 2}, {0, 2}}},
		},
		Ports: []Port{
			{Name: "o1", Center: Point{X: 0, Y: 0}, Direction: 180, Width: 0.5},
			{Name: "o2", Center: Point{X: 10, Y: 0}, Direction: 0, Width: 0.5},
		},
	}
}

func straightRoles() Roles {
	return Roles{CoreLayers: []int{1}, CladdingLayers: []int{2}, RequiredPorts: []string{"o1", "o2"}}
}

func TestAdaptExactBounds(t *testing.T) {
	prim, err := Adapt(straightDevice(), straightRoles(), ExtendOptions{})
	require.NoError(t, err)

	// The bounding box is exact over core plus cladding, no margin.
	assert.Equal(t, Rect{MinX: 0, MinY: -2, MaxX: 10, MaxY: 2}, prim.Bounds)
	assert.Len(t, prim.Core, 1)
	assert.Len(t, prim.Cladding, 1)
	assert.Equal(t, "o1", prim.InputPort().Name, "first required port is the input")
}

func TestAdaptPortExtension(t *testing.T) {
	prim, err := Adapt(straightDevice(), straightRoles(), ExtendOptions{Enabled: true, Length: 3})
	require.NoError(t, err)

	// One synthetic arm per port, grown along the outward axis.
	require.Len(t, prim.Core, 3)

	o1 := prim.PortByName("o1")
	require.NotNil(t, o1)
	assert.Equal(t, Point{X: -3, Y: 0}, o1.Center, "port moved to the far end of its arm")

	o2 := prim.PortByName("o2")
	require.NotNil(t, o2)
	assert.Equal(t, Point{X: 13, Y: 0}, o2.Center)

	var arm *Polygon
	for i := range prim.Core {
		if prim.Core[i].Name == "o1_ext" {
			arm = &prim.Core[i]
		}
	}
	require.NotNil(t, arm, "extension arm polygon present")
	assert.Equal(t, -1, arm.Layer)
	assert.Equal(t, Rect{MinX: -3, MinY: -0.25, MaxX: 0, MaxY: 0.25}, arm.Bounds())

	// Arms widen the exact bounding box.
	assert.Equal(t, Rect{MinX: -3, MinY: -2, MaxX: 13, MaxY: 2}, prim.Bounds)
}

func TestAdaptRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Device)
		want   string
	}{
		{
			name: "too few vertices",
			mutate: func(d *Device) {
				d.Polygons[0].Points = d.Polygons[0].Points[:2]
			},
			want: "vertices",
		},
		{
			name: "degenerate area",
			mutate: func(d *Device) {
				d.Polygons[0].Points = []Point{{0, 0}, {5, 0}, {10, 0}}
			},
			want: "degenerate",
		},
		{
			name: "self intersecting",
			mutate: func(d *Device) {
				d.Polygons[0].Points = []Point{{0, 0}, {1, 1}, {1, 0}, {0, 1}}
			},
			want: "self-intersecting",
		},
		{
			name: "missing required port",
			mutate: func(d *Device) {
				d.Ports = d.Ports[:1]
			},
			want: `port "o2" is absent`,
		},
		{
			name: "zero width port",
			mutate: func(d *Device) {
				d.Ports[1].Width = 0
			},
			want: "non-positive width",
		},
		{
			name: "diagonal port",
			mutate: func(d *Device) {
				d.Ports[0].Direction = 45
			},
			want: "not axis-aligned",
		},
		{
			name: "no core polygons",
			mutate: func(d *Device) {
				d.Polygons[0].Layer = 7
			},
			want: "core layers",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dev := straightDevice()
			tc.mutate(dev)
			_, err := Adapt(dev, straightRoles(), ExtendOptions{})
			require.Error(t, err)
			var layoutErr *Error
			require.ErrorAs(t, err, &layoutErr)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestAdaptDoesNotMutateDevice(t *testing.T) {
	dev := straightDevice()
	_, err := Adapt(dev, straightRoles(), ExtendOptions{Enabled: true, Length: 3})
	require.NoError(t, err)

	assert.Len(t, dev.Polygons, 2, "source device gains no polygons")
	assert.Equal(t, Point{X: 0, Y: 0}, dev.Ports[0].Center, "source ports stay put")
}
