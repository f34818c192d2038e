package arena

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// State is the binding state of a Capabilities.
type State int

const (
	Stub State = iota
	Upgraded
)

func (s State) String() string {
	if s == Upgraded {
		return "upgraded"
	}
	return "stub"
}

type binding struct {
	view  View
	state State
}

// Capabilities is the memory view exposed to scripts. It starts bound to a
// stub and can be rebound to the arena exactly once.
//
// Data written through the stub is not carried over by Upgrade.
type Capabilities struct {
	cur atomic.Pointer[binding]
}

// NewCapabilities returns a set bound to stub.
func NewCapabilities(stub View) *Capabilities {
	c := &Capabilities{}
	c.cur.Store(&binding{view: stub, state: Stub})
	return c
}

// Upgrade rebinds the set to fast. It reports false, leaving the set
// unchanged, if the set was already upgraded.
func (c *Capabilities) Upgrade(fast View) bool {
	old := c.cur.Load()
	if old.state == Upgraded {
		return false
	}
	if !c.cur.CompareAndSwap(old, &binding{view: fast, state: Upgraded}) {
		return false
	}
	Logger().Debug("capabilities upgraded", zap.Uint32("size", fast.Size()))
	return true
}

// State returns the current binding state.
func (c *Capabilities) State() State { return c.cur.Load().state }

// View returns the view currently bound.
func (c *Capabilities) View() View { return c.cur.Load().view }

func (c *Capabilities) Peek8(off uint32) (uint8, error)   { return c.View().Peek8(off) }
func (c *Capabilities) Poke8(off uint32, v int64) error   { return c.View().Poke8(off, v) }
func (c *Capabilities) Peek32(off uint32) (uint32, error) { return c.View().Peek32(off) }
func (c *Capabilities) Poke32(off uint32, v int64) error  { return c.View().Poke32(off, v) }
func (c *Capabilities) Size() uint32                      { return c.View().Size() }
