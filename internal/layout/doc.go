// Package layout loads device layouts (polygons, layer metadata, ports) and
// adapts them into solver-neutral geometric primitives in physical units
// (µm): waveguide core and cladding regions, resolved ports, and an exact
// bounding box. The adapter is a pure transform; domain padding and meshing
// belong to the solver setup builders.
package layout
