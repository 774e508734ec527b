// Package solver defines the backend contract shared by the desktop and
// cloud FDTD solvers: building a solver-specific simulation setup from
// layout primitives and configuration, and running it to a raw result. The
// per-run stage machine and the execution-stage error taxonomy live here.
package solver
