// Package trigger implements the edge-triggered signal framework decision
// rules are built on. A trigger couples a boolean condition with an action
// and fires only on the condition's rising edge, so repeated true states
// never re-fire. Every rule owns its own Engine instance; engines are never
// shared, which keeps rule state isolated and replay deterministic.
package trigger

import (
	"github.com/chrono-trade/chrono/pkg/errors"
)

// Condition evaluates the current context to a boolean.
type Condition[C any] func(ctx C) (bool, error)

// Action runs when the owning trigger fires.
type Action[C any] func(ctx C) error

// Trigger is one condition/action pair with its rising-edge state.
type Trigger[C any] struct {
	Name      string
	condition Condition[C]
	action    Action[C]
	lastState bool
}

// Evaluate computes the condition and fires the action on a false-to-true
// transition. The previous state is updated regardless of outcome. Failures
// are not swallowed: they propagate tagged with the trigger's name, since a
// silent failure here would corrupt the order set being built.
func (t *Trigger[C]) Evaluate(ctx C) error {
	current, err := t.condition(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeTriggerCondition, err, "condition failed for trigger %s", t.Name)
	}

	if current && !t.lastState {
		if err := t.action(ctx); err != nil {
			t.lastState = current

			return errors.Wrapf(errors.ErrCodeTriggerAction, err, "action failed for trigger %s", t.Name)
		}
	}

	t.lastState = current

	return nil
}

// Engine owns an ordered list of triggers plus unconditional per-step
// actions. Evaluation order is fixed: on-bar actions first, then triggers
// in registration order.
type Engine[C any] struct {
	triggers []*Trigger[C]
	onBar    []Action[C]
}

// NewEngine creates an empty trigger engine.
func NewEngine[C any]() *Engine[C] {
	return &Engine[C]{
		triggers: nil,
		onBar:    nil,
	}
}

// Always registers a rising-edge trigger and returns it.
func (e *Engine[C]) Always(name string, condition Condition[C], action Action[C]) *Trigger[C] {
	t := &Trigger[C]{
		Name:      name,
		condition: condition,
		action:    action,
		lastState: false,
	}
	e.triggers = append(e.triggers, t)

	return t
}

// OnBar registers an action that runs unconditionally on every evaluation,
// before any trigger.
func (e *Engine[C]) OnBar(action Action[C]) {
	e.onBar = append(e.onBar, action)
}

// Reset clears the edge state of every trigger, as if none had ever been
// evaluated. Used when a run rewinds so that re-stepping forward re-derives
// edges from the data instead of remembering a future that was undone.
func (e *Engine[C]) Reset() {
	for _, t := range e.triggers {
		t.lastState = false
	}
}

// Evaluate runs all on-bar actions, then all triggers, stopping at the
// first error.
func (e *Engine[C]) Evaluate(ctx C) error {
	for _, action := range e.onBar {
		if err := action(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeOnBarAction, "on-bar action failed", err)
		}
	}

	for _, t := range e.triggers {
		if err := t.Evaluate(ctx); err != nil {
			return err
		}
	}

	return nil
}
