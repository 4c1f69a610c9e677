// Package app wires flowkeeper together: it resolves configuration, opens the
// snapshot store, builds the controller and serves the HTTP surfaces. It is
// decoupled from any specific entrypoint like a CLI.
package app
