// Package material maps symbolic material names to refractive-index models.
// Two libraries are supported: "universal" analytic dispersion fits shared by
// both solvers, and "native" per-solver tabulated n,k data. Models are
// resolved once per simulation and read-only afterward; resolutions are
// cached so repeated device runs in one batch do not re-read library files.
package material
