// Package indicator holds the Audio Gateway's telephony indicator list and
// the generic HF status indicator list (HFP 1.7 section 4.36), plus the
// per-session snapshots taken from them.
package indicator

import (
	"errors"
	"fmt"
)

// Call and callsetup status values used by the call/audio driver. Named
// here so that call-flow code never hand-rolls the magic numbers from the
// AT+CIND grammar.
const (
	NoCall       = 0
	CallActive   = 1
	NoCallSetup  = 0
	IncomingCall = 1 // MT call setup in progress; the value the AG's call() flow sets
	OutgoingCall = 2 // MO call setup, ringing not yet started
	CallAlerting = 3 // MO call setup, remote party alerting
)

// Def describes one AG telephony indicator as installed at construction.
// Index is not part of Def: the Registry assigns it from list position, as
// required by the contiguous-index invariant.
type Def struct {
	Name         string
	Min, Max     int
	InitialState int
	Mandatory    bool
}

// Indicator is a named telephony datum with a stable 1-based index.
type Indicator struct {
	Name      string
	Index     int
	Min, Max  int
	Mandatory bool
}

func (ind Indicator) String() string {
	return fmt.Sprintf("%s#%d", ind.Name, ind.Index)
}

// GenericStatusIndicatorDef describes one HF indicator the AG recognizes,
// keyed by its Bluetooth SIG assigned UUID (HFP 1.7 section 4.36.1.1).
type GenericStatusIndicatorDef struct {
	UUID uint16
}

var (
	// ErrNoIndicators rejects an empty indicator list at construction.
	ErrNoIndicators = errors.New("indicator: registry needs at least one indicator")
	// ErrDupName rejects a repeated indicator name at construction.
	ErrDupName = errors.New("indicator: duplicate indicator name")
	// ErrRange rejects an initial status outside [min,max] at construction.
	ErrRange = errors.New("indicator: initial status out of [min,max] range")
	// ErrUnknownName is returned by Snapshot.IndexOf for an unrecognized name.
	ErrUnknownName = errors.New("indicator: unknown indicator name")
)

// Registry is the write-once global indicator configuration, installed
// once at Gateway construction. It never changes afterwards: runtime
// mutation of the list once any session exists is disallowed, so Registry
// exposes no method that could alter it post-construction.
type Registry struct {
	list    []Indicator
	initial []int // InitialState per Indicator, same order
	byName  map[string]int
	gsi     []GenericStatusIndicatorDef
}

// NewRegistry installs the AG's canonical indicator list and the generic
// status indicators the AG recognizes. Indices are assigned 1-based from
// defs' order, which becomes the session-stable ordering for +CIND and
// +CIEV. NewRegistry fails the whole installation on any invariant
// violation rather than leaving partial state, per the misconfiguration
// handling in the error design.
func NewRegistry(defs []Def, gsi []GenericStatusIndicatorDef) (*Registry, error) {
	if len(defs) == 0 {
		return nil, ErrNoIndicators
	}

	r := &Registry{
		list:    make([]Indicator, len(defs)),
		initial: make([]int, len(defs)),
		byName:  make(map[string]int, len(defs)),
		gsi:     append([]GenericStatusIndicatorDef(nil), gsi...),
	}
	for i, d := range defs {
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDupName, d.Name)
		}
		if d.InitialState < d.Min || d.InitialState > d.Max {
			return nil, fmt.Errorf("%w: %q initial %d not in [%d,%d]",
				ErrRange, d.Name, d.InitialState, d.Min, d.Max)
		}

		index := i + 1
		r.list[i] = Indicator{
			Name:      d.Name,
			Index:     index,
			Min:       d.Min,
			Max:       d.Max,
			Mandatory: d.Mandatory,
		}
		r.initial[i] = d.InitialState
		r.byName[d.Name] = i
	}
	return r, nil
}

// Count returns the number of installed indicators, used by Snapshot to
// detect staleness.
func (r *Registry) Count() int { return len(r.list) }

// GenericStatusIndicators returns the installed HF indicator definitions
// in registration order.
func (r *Registry) GenericStatusIndicators() []GenericStatusIndicatorDef {
	return r.gsi
}
