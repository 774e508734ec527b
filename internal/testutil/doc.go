// Package testutil provides shared fixtures for the test suite: canned device
// layouts and material libraries, a fake solver backend, a scriptable engine
// binary, and an in-process stand-in for the cloud task API.
package testutil
