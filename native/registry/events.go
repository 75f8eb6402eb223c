package registry

import (
	"strconv"

	"tranchepool/core/types"
)

const (
	// EventTypeUpdated is emitted when an owner mutates a registry field.
	EventTypeUpdated = "poolconfig.updated"
	// EventTypeCacheSynced is emitted when a dependent refreshes its snapshot
	// and observes a change.
	EventTypeCacheSynced = "poolconfig.cache_synced"
	// EventTypeRebound is emitted when a dependent is repointed at a
	// different registry instance.
	EventTypeRebound = "poolconfig.rebound"
)

// NewUpdatedEvent returns the canonical payload for a registry field change.
func NewUpdatedEvent(registryID, field, value string) *types.Event {
	return &types.Event{
		Type: EventTypeUpdated,
		Attributes: map[string]string{
			"registry": registryID,
			"field":    field,
			"value":    value,
		},
	}
}

// NewCacheSyncedEvent returns the canonical payload emitted when a component
// snapshot changes during synchronization.
func NewCacheSyncedEvent(component, registryID string) *types.Event {
	return &types.Event{
		Type: EventTypeCacheSynced,
		Attributes: map[string]string{
			"component": component,
			"registry":  registryID,
		},
	}
}

// NewReboundEvent returns the canonical payload emitted when a component is
// bound to a new registry instance.
func NewReboundEvent(component, oldID, newID string) *types.Event {
	return &types.Event{
		Type: EventTypeRebound,
		Attributes: map[string]string{
			"component":   component,
			"oldRegistry": oldID,
			"newRegistry": newID,
		},
	}
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
