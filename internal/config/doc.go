// Package config defines the format-agnostic configuration model: server
// ports, snapshot storage, the remote graph endpoint, persistence timing, the
// telemetry feed and the application catalog served by the mock API.
//
// A Loader produces a Model from some file format. The HCL implementation
// lives in hcl_adapter. The app package merges the Model with command-line
// flags and environment variables; values set in the Model are the defaults
// that flags override.
package config
