// Package report persists run artifacts (parameter records, normalized
// results, comparison tables) and renders spectrum and cross-solver
// comparison plots. All artifacts for one run live under
// <output_dir>/<device>/<solver>/.
package report
