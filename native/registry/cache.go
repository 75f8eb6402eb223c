package registry

import (
	"github.com/ethereum/go-ethereum/common"

	"tranchepool/core/types"
)

// RefreshFunc re-reads the registry fields a component cares about into its
// local snapshot. It reports whether any cached value changed.
type RefreshFunc func(reg *Registry) (changed bool, err error)

// Cache gives a dependent component a consistent local copy of the
// registry-owned values it needs. Business logic never writes the cached
// snapshot directly; only Sync and Rebind repopulate it.
type Cache struct {
	component string
	registry  *Registry
	refresh   RefreshFunc
	events    types.Emitter
}

// NewCache binds a component to its registry. The refresh callback is invoked
// immediately so the component starts with a populated snapshot.
func NewCache(component string, reg *Registry, refresh RefreshFunc) (*Cache, error) {
	if reg == nil || refresh == nil {
		return nil, ErrInvalidArgument
	}
	c := &Cache{component: component, registry: reg, refresh: refresh}
	if _, err := refresh(reg); err != nil {
		return nil, err
	}
	return c, nil
}

// SetEmitter wires the sink receiving cache lifecycle events.
func (c *Cache) SetEmitter(events types.Emitter) {
	if c == nil {
		return
	}
	c.events = events
}

// Registry reports the currently bound registry.
func (c *Cache) Registry() *Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Sync re-reads every cached field from the bound registry. Unchanged values
// no-op silently; a change emits a cache-synced notification. Only the
// registry owner authority may drive synchronization.
func (c *Cache) Sync(caller common.Address) error {
	if c == nil || c.registry == nil {
		return ErrInvalidArgument
	}
	if caller != c.registry.Owner() {
		return ErrUnauthorized
	}
	changed, err := c.refresh(c.registry)
	if err != nil {
		return err
	}
	if changed && c.events != nil {
		c.events.Emit(NewCacheSyncedEvent(c.component, c.registry.ID()))
	}
	return nil
}

// Rebind repoints the component at a different registry instance and performs
// an implicit refresh. A nil registry is rejected and the prior binding is
// left untouched on any failure.
func (c *Cache) Rebind(caller common.Address, next *Registry) error {
	if c == nil || c.registry == nil {
		return ErrInvalidArgument
	}
	if next == nil {
		return ErrInvalidArgument
	}
	if caller != c.registry.Owner() {
		return ErrUnauthorized
	}
	prev := c.registry
	if _, err := c.refresh(next); err != nil {
		return err
	}
	c.registry = next
	if c.events != nil {
		c.events.Emit(NewReboundEvent(c.component, prev.ID(), next.ID()))
	}
	return nil
}
