// Package progress defines the event records streamed to the caller while a
// scrape is in flight, the sink fan-out that delivers them, and the wire
// framing used on the response stream.
package progress

import (
	"errors"
	"fmt"
)

// Type tags an Event. The stream is append-only and ordered; complete,
// stopped, and error are terminal.
type Type string

// Supported event tags.
const (
	TypePhase      Type = "phase"
	TypeDiscovery  Type = "discovery"
	TypeProcessing Type = "processing"
	TypeComplete   Type = "complete"
	TypeStopped    Type = "stopped"
	TypeError      Type = "error"
)

// Phase names the engine state announced by a phase event.
type Phase string

// Engine phases, in the order they occur.
const (
	PhaseDiscovering Phase = "discovering"
	PhaseProcessing  Phase = "processing"
	PhaseCleaning    Phase = "cleaning"
)

// Event is one record on the progress stream. Only the fields relevant to
// its tag are set.
type Event struct {
	Type    Type   `json:"type"`
	Phase   Phase  `json:"phase,omitempty"`
	Message string `json:"message,omitempty"`
	// Discovered is the running size of the discovered set.
	Discovered int `json:"discovered,omitempty"`
	// Processed counts pipeline completions; it reaches Total exactly once.
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
	URL       string `json:"url,omitempty"`
	// Content carries the final document on a complete event.
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Terminal reports whether no further events may follow this one.
func (e Event) Terminal() bool {
	switch e.Type {
	case TypeComplete, TypeStopped, TypeError:
		return true
	default:
		return false
	}
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	switch e.Type {
	case TypePhase:
		switch e.Phase {
		case PhaseDiscovering, PhaseProcessing, PhaseCleaning:
		default:
			return fmt.Errorf("unknown phase %q", e.Phase)
		}
	case TypeDiscovery:
		if e.Discovered < 1 {
			return errors.New("discovery event requires a positive count")
		}
	case TypeProcessing:
		if e.Processed < 1 || e.Total < e.Processed {
			return fmt.Errorf("processing counters out of range: %d/%d", e.Processed, e.Total)
		}
	case TypeComplete, TypeStopped:
	case TypeError:
		if e.Error == "" {
			return errors.New("error event requires a message")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}
