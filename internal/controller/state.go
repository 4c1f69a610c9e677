package controller

import (
	"fmt"

	"github.com/specialistvlad/flowkeeper/internal/graph"
)

// State is the controller's position in the load state machine.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateHydrated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateHydrated:
		return "hydrated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateIdle, StateResolving, StateHydrated, StateFailed} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Origin records where the live snapshot came from.
type Origin string

const (
	OriginNone   Origin = ""
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Status is a point-in-time view of the controller.
type Status struct {
	AppID      graph.ApplicationID `json:"appId,omitempty"`
	State      State               `json:"state"`
	Origin     Origin              `json:"origin,omitempty"`
	Generation uint64              `json:"generation"`
	Err        error               `json:"-"`
}
