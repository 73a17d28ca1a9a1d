package workflow

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
)

// Machine is the transition engine for one case variant. It holds no mutable
// state of its own: every query and fire takes the case snapshot explicitly,
// so a single machine is safe to share across cases and goroutines.
type Machine struct {
	variant        string
	initialState   State
	configurations map[State]*stateConfig
}

// Variant returns the case variant this machine was built for
func (m *Machine) Variant() string {
	return m.variant
}

// InitialState returns the state every case of this variant starts in
func (m *Machine) InitialState() State {
	return m.initialState
}

// CanFire returns true if the trigger is permitted for the case's current
// state with its guard (if any) evaluating true against the live case
func (m *Machine) CanFire(c *entity.Case, trigger Trigger) bool {
	config, exists := m.configurations[State(c.CurrentState)]
	if !exists {
		return false
	}

	t, exists := config.transitions[trigger]
	if !exists {
		return false
	}

	return t.guard == nil || t.guard(c)
}

// PermittedTriggers returns every trigger whose guard currently evaluates
// true for the case, sorted for deterministic output
func (m *Machine) PermittedTriggers(c *entity.Case) []Trigger {
	config, exists := m.configurations[State(c.CurrentState)]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger, t := range config.transitions {
		if t.guard == nil || t.guard(c) {
			triggers = append(triggers, trigger)
		}
	}

	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}

// Fire attempts to execute the trigger against the case. On success it runs
// the target state's entry side-effect and returns the new state. It never
// persists or audits, and it does not reposition the case; the caller owns
// CurrentState.
func (m *Machine) Fire(c *entity.Case, trigger Trigger, at time.Time) (State, error) {
	currentState := State(c.CurrentState)

	config, exists := m.configurations[currentState]
	if !exists {
		return "", fmt.Errorf("%w: trigger %s rejected in state %s (no permitted triggers)",
			ErrInvalidTransition, trigger, currentState)
	}

	t, exists := config.transitions[trigger]
	if !exists || (t.guard != nil && !t.guard(c)) {
		return "", fmt.Errorf("%w: trigger %s rejected in state %s (permitted: %s)",
			ErrInvalidTransition, trigger, currentState, formatTriggers(m.PermittedTriggers(c)))
	}

	if target, ok := m.configurations[t.toState]; ok && target.onEntry != nil {
		target.onEntry(c, at)
	}

	return t.toState, nil
}

func formatTriggers(triggers []Trigger) string {
	if len(triggers) == 0 {
		return "none"
	}
	parts := make([]string, len(triggers))
	for i, t := range triggers {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
