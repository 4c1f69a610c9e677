package controller

import "errors"

var (
	// ErrNotHydrated is returned by mutations while no snapshot is loaded.
	ErrNotHydrated = errors.New("controller: graph is not loaded")
	// ErrNoSelection is returned by operations that need a selected application.
	ErrNoSelection = errors.New("controller: no application selected")
	// ErrNodeNotFound is returned when a mutation names a node that does not exist.
	ErrNodeNotFound = errors.New("controller: node not found")
	// ErrInvalidField is returned when an attribute update is rejected.
	ErrInvalidField = errors.New("controller: invalid field value")
	// ErrInvalidNode is returned when a node cannot be added.
	ErrInvalidNode = errors.New("controller: invalid node")
	// ErrInvalidPosition is returned for a node position that is not finite.
	ErrInvalidPosition = errors.New("controller: invalid position")
	// ErrInvalidViewport is returned for a viewport with a non-positive zoom
	// or a component that is not finite.
	ErrInvalidViewport = errors.New("controller: invalid viewport")
	// ErrNotCurrent is returned when an update targets an application other
	// than the one currently displayed.
	ErrNotCurrent = errors.New("controller: application is not current")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("controller: closed")
)
