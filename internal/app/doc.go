// Package app contains the core application logic: configuration loading,
// logger construction, solver backend registration, and the sequential
// per-device run loop, decoupled from the CLI entrypoint.
package app
