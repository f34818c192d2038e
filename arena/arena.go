// Package arena provides the heap arena addressed by script offsets and the
// capability set that decides which memory backs the script-visible view.
package arena

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/caffeineduck/smold/native"
	"go.uber.org/zap"
)

// DefaultSize is the arena capacity used when none is configured.
const DefaultSize = 16 << 20

var (
	ErrMemoryFault    = errors.New("memory fault")
	ErrArenaExhausted = errors.New("arena allocation failed")
)

// Allocator obtains zeroed native memory.
type Allocator interface {
	Calloc(n, size uintptr) native.Addr
}

// View is byte and word access to memory addressed by script offsets.
// Poke8 stores the low 8 bits of v; Poke32 the low 32 bits in native byte
// order. Word access need not be aligned.
type View interface {
	Peek8(off uint32) (uint8, error)
	Poke8(off uint32, v int64) error
	Peek32(off uint32) (uint32, error)
	Poke32(off uint32, v int64) error
	Size() uint32
}

// Arena is a single native allocation of fixed size. It is never resized or
// released.
type Arena struct {
	base native.Addr
	mem  []byte
}

// New allocates size zeroed bytes from alloc.
func New(alloc Allocator, size uint32) (*Arena, error) {
	if size == 0 {
		size = DefaultSize
	}
	base := alloc.Calloc(uintptr(size), 1)
	if base == 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrArenaExhausted, size)
	}
	Logger().Debug("arena allocated", zap.Stringer("base", base), zap.Uint32("size", size))
	return &Arena{base: base, mem: native.Slice(base, int(size))}, nil
}

// Base returns the native address of offset 0.
func (a *Arena) Base() native.Addr { return a.base }

// Size returns the capacity in bytes.
func (a *Arena) Size() uint32 { return uint32(len(a.mem)) }

// Addr translates an offset to a native address suitable for passing to a
// native call.
func (a *Arena) Addr(off uint32) (native.Addr, error) {
	if err := a.check(off, 1); err != nil {
		return 0, err
	}
	return a.base + native.Addr(off), nil
}

// Bytes returns a copy of n bytes at off.
func (a *Arena) Bytes(off, n uint32) ([]byte, error) {
	if err := a.check(off, n); err != nil {
		return nil, err
	}
	return append([]byte(nil), a.mem[off:uint64(off)+uint64(n)]...), nil
}

func (a *Arena) Peek8(off uint32) (uint8, error) {
	if err := a.check(off, 1); err != nil {
		return 0, err
	}
	return a.mem[off], nil
}

func (a *Arena) Poke8(off uint32, v int64) error {
	if err := a.check(off, 1); err != nil {
		return err
	}
	a.mem[off] = uint8(v)
	return nil
}

func (a *Arena) Peek32(off uint32) (uint32, error) {
	if err := a.check(off, 4); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(a.mem[off:]), nil
}

func (a *Arena) Poke32(off uint32, v int64) error {
	if err := a.check(off, 4); err != nil {
		return err
	}
	binary.NativeEndian.PutUint32(a.mem[off:], uint32(v))
	return nil
}

func (a *Arena) check(off, n uint32) error {
	if uint64(off)+uint64(n) > uint64(len(a.mem)) {
		return fmt.Errorf("%w: offset %d+%d outside arena of %d bytes", ErrMemoryFault, off, n, len(a.mem))
	}
	return nil
}
