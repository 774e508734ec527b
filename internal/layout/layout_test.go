package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScalesToMicrons(t *testing.T) {
	// Coordinates in nm with a 0.001 µm/unit scale.
	path := writeLayout(t, `{
		"name": "wg",
		"units": 0.001,
		"polygons": [
			{"name": "core", "layer": 1, "points": [[0,-250],[10000,-250],[10000,250],[0,250]]}
		],
		"ports": [
			{"name": "o1", "center": [0,0], "direction": 180, "width": 500}
		]
	}`)

	dev, err := Load(path)
	require.NoError(t, err)
	require.Len(t, dev.Polygons, 1)
	assert.Equal(t, Point{X: 10, Y: 0.25}, dev.Polygons[0].Points[2])

	port := dev.PortByName("o1")
	require.NotNil(t, port)
	assert.InDelta(t, 0.5, port.Width, 1e-12)
}

func TestLoadDefaultsUnitsToMicrons(t *testing.T) {
	path := writeLayout(t, `{
		"name": "wg",
		"polygons": [{"layer": 1, "points": [[0,0],[1,0],[1,1]]}],
		"ports": []
	}`)
	dev, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "polygon_0", dev.Polygons[0].Name, "unnamed polygons get indexed names")
	assert.Equal(t, Point{X: 1, Y: 1}, dev.Polygons[0].Points[2])
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		var layoutErr *Error
		require.ErrorAs(t, err, &layoutErr)
	})
	t.Run("invalid json", func(t *testing.T) {
		_, err := Load(writeLayout(t, "{not json"))
		var layoutErr *Error
		require.ErrorAs(t, err, &layoutErr)
	})
	t.Run("no polygons", func(t *testing.T) {
		_, err := Load(writeLayout(t, `{"name": "empty", "polygons": [], "ports": []}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no polygons")
	})
}

func TestPortAxis(t *testing.T) {
	tests := []struct {
		direction float64
		dx, dy    float64
	}{
		{0, 1, 0},
		{90, 0, 1},
		{180, -1, 0},
		{270, 0, -1},
		{-90, 0, -1},
		{360, 1, 0},
	}
	for _, tc := range tests {
		dx, dy := Port{Direction: tc.direction}.Axis()
		assert.Equal(t, tc.dx, dx, "direction %v", tc.direction)
		assert.Equal(t, tc.dy, dy, "direction %v", tc.direction)
	}
}

func TestRect(t *testing.T) {
	r := Rect{MinX: 0, MinY: -1, MaxX: 4, MaxY: 1}
	assert.InDelta(t, 4.0, r.Width(), 1e-12)
	assert.InDelta(t, 2.0, r.Height(), 1e-12)
	assert.True(t, r.Contains(Point{X: 4, Y: 1}), "boundary counts as inside")
	assert.False(t, r.Contains(Point{X: 4.1, Y: 0}))

	padded := r.Pad(0.5)
	assert.Equal(t, Rect{MinX: -0.5, MinY: -1.5, MaxX: 4.5, MaxY: 1.5}, padded)

	u := r.Union(Rect{MinX: -2, MinY: 0, MaxX: 1, MaxY: 3})
	assert.Equal(t, Rect{MinX: -2, MinY: -1, MaxX: 4, MaxY: 3}, u)
}

func TestSelfIntersects(t *testing.T) {
	square := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	assert.False(t, selfIntersects(square))

	bowtie := []Point{{0, 0}, {1, 1}, {1, 0}, {0, 1}}
	assert.True(t, selfIntersects(bowtie))
}
