// Package statemachine wraps domain/tunnelstate's static transition table
// with dispatch and logging, as spec.md §4.3 describes.
package statemachine

import (
	"github.com/y5a9f2y/proxy/application"
	"github.com/y5a9f2y/proxy/domain/tunnelstate"
)

// Machine drives one Tunnel's state through a fixed table. It holds no
// tunnel-specific data of its own — SwitchState reads and writes the
// current state through the getter/setter it was built with, so the
// Tunnel remains the single source of truth for "what state am I in".
type Machine struct {
	table  *tunnelstate.Table
	get    func() tunnelstate.State
	set    func(tunnelstate.State)
	logger application.Logger
	label  string // for log lines, e.g. "tunnel#42"
}

// New builds a Machine bound to a specific tunnel's state accessors.
func New(table *tunnelstate.Table, get func() tunnelstate.State, set func(tunnelstate.State), logger application.Logger, label string) *Machine {
	return &Machine{table: table, get: get, set: set, logger: logger, label: label}
}

// SwitchState looks up (current, event) in the table. On hit, the state
// is updated and the transition is logged at INFO. On miss, an error is
// logged and false is returned; callers must not advance further
// (spec.md §4.3, §8).
func (m *Machine) SwitchState(event tunnelstate.Event) bool {
	from := m.get()
	to, ok := m.table.Next(from, event)
	if !ok {
		m.logger.Printf("%s: no transition from %s on event %s", m.label, from, event)
		return false
	}
	m.set(to)
	m.logger.Printf("%s: %s -> %s on %s", m.label, from, to, event)
	return true
}

// State returns the tunnel's current state.
func (m *Machine) State() tunnelstate.State {
	return m.get()
}
