// Package config loads and validates the HCL run configuration: one settings
// block with the global scalar parameters shared by every device, plus one
// device block per layout to simulate. The loaded model is immutable for the
// rest of the run; every missing required key is reported as a *config.Error
// rather than silently defaulted.
package config
