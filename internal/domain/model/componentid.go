// Package model holds the domain types shared between the interaction
// router and the command handlers.
package model

import (
	"fmt"
	"strings"
)

// ComponentID is the structured routing key carried in a message
// component's custom_id. The wire format is "command_action" with an
// optional ":value" suffix, e.g. "pubchem_toggleDim" or
// "subsplease_scheduleDay:Monday". The underscore convention matches the
// custom_ids already attached to previously rendered messages, so old
// components keep routing after a deploy.
type ComponentID struct {
	Command string
	Action  string
	Value   string
}

// ParseComponentID splits a custom_id into its routing parts.
func ParseComponentID(customID string) (ComponentID, error) {
	head, value, _ := strings.Cut(customID, ":")
	command, action, ok := strings.Cut(head, "_")
	if !ok || command == "" || action == "" {
		return ComponentID{}, fmt.Errorf("custom_id %q has no command_action form", customID)
	}
	return ComponentID{Command: command, Action: action, Value: value}, nil
}

// String renders the wire form of the routing key.
func (c ComponentID) String() string {
	if c.Value != "" {
		return c.Command + "_" + c.Action + ":" + c.Value
	}
	return c.Command + "_" + c.Action
}
