package governance

import (
	"fmt"

	berr "github.com/next-trace/stashit/contract/errors"
)

type Trigger string

const (
	TriggerTemporal    Trigger = "TEMPORAL"
	TriggerStateChange Trigger = "STATE_CHANGE"
	TriggerEvent       Trigger = "EVENT"
	TriggerManual      Trigger = "MANUAL"
)

func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerTemporal, TriggerStateChange, TriggerEvent, TriggerManual:
		return t, nil
	default:
		return "", fmt.Errorf("trigger %q: %w", s, berr.ErrInvalidValue)
	}
}

type ActionStatus string

const (
	ActionActive ActionStatus = "ACTIVE"
	ActionPaused ActionStatus = "PAUSED"
)

// Action performs an intent when one of its triggers fires.
type Action struct {
	Name     string       `json:"name"`
	Triggers []Trigger    `json:"triggers"`
	Intent   Intent       `json:"intent"`
	Status   ActionStatus `json:"status"`
}

// Validate checks the action before it is attached to a policy.
func (a Action) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("action: empty name: %w", berr.ErrEntityInvalid)
	}

	if len(a.Triggers) == 0 {
		return fmt.Errorf("action %s: no triggers: %w", a.Name, berr.ErrEntityInvalid)
	}

	for _, t := range a.Triggers {
		if _, err := ParseTrigger(string(t)); err != nil {
			return fmt.Errorf("action %s: %w", a.Name, err)
		}
	}

	if a.Status != ActionActive && a.Status != ActionPaused {
		return fmt.Errorf("action %s: status %q: %w", a.Name, a.Status, berr.ErrEntityInvalid)
	}

	return nil
}

// FiresOn reports whether an active action listens to t.
func (a Action) FiresOn(t Trigger) bool {
	if a.Status != ActionActive {
		return false
	}

	for _, have := range a.Triggers {
		if have == t {
			return true
		}
	}

	return false
}
