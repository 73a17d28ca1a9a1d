package workflow

import (
	"fmt"
	"time"

	"github.com/donellmccoy/lod-tracker/internal/domain/entity"
)

// GuardFunc evaluates whether a transition is allowed for the given case
// snapshot. Guards must be pure: they read case flags and never mutate.
type GuardFunc func(c *entity.Case) bool

// ActionFunc is an entry side-effect executed on the case when its target
// state is entered (e.g. stamping investigation dates).
type ActionFunc func(c *entity.Case, at time.Time)

// transition represents a state transition with an optional guard
type transition struct {
	toState State
	guard   GuardFunc
}

// stateConfig holds the outgoing edges and entry action for one state
type stateConfig struct {
	fromState   State
	transitions map[Trigger]transition
	onEntry     ActionFunc
}

// Builder assembles a per-variant transition graph. Each (state, trigger)
// pair maps to exactly one target state; guards condition availability but
// never introduce branching.
type Builder struct {
	variant        string
	configurations map[State]*stateConfig
}

// StateConfiguration configures the outgoing transitions for a single state
type StateConfiguration struct {
	builder *Builder
	config  *stateConfig
}

// NewBuilder creates a new graph builder for the given case variant
func NewBuilder(variant string) *Builder {
	return &Builder{
		variant:        variant,
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *Builder) Configure(state State) *StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger]transition),
		}
		b.configurations[state] = config
	}

	return &StateConfiguration{builder: b, config: config}
}

// Build creates an immutable machine with the given initial state
func (b *Builder) Build(initialState State) *Machine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Deep copy configurations so later builder use cannot mutate the machine
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger]transition, len(config.transitions))
		for trigger, t := range config.transitions {
			transitionsCopy[trigger] = t
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
			onEntry:     config.onEntry,
		}
	}

	return &Machine{
		variant:        b.variant,
		initialState:   initialState,
		configurations: configsCopy,
	}
}

// Permit allows a trigger to transition to the target state unconditionally
func (c *StateConfiguration) Permit(trigger Trigger, toState State) *StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf allows a trigger to transition to the target state while the guard
// evaluates true against the live case
func (c *StateConfiguration) PermitIf(trigger Trigger, toState State, guard GuardFunc) *StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if _, exists := c.config.transitions[trigger]; exists {
		panic(fmt.Sprintf("trigger %s already configured for state %s", trigger, c.config.fromState))
	}

	c.config.transitions[trigger] = transition{
		toState: toState,
		guard:   guard,
	}

	return c
}

// OnEntry registers a side-effect executed when this state is entered
func (c *StateConfiguration) OnEntry(action ActionFunc) *StateConfiguration {
	if c.config.onEntry != nil {
		panic(fmt.Sprintf("entry action already configured for state %s", c.config.fromState))
	}
	c.config.onEntry = action
	return c
}
