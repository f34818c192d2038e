// Package builtin holds modules implemented in Go that run against the same
// primitive surface as WebAssembly modules.
package builtin

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/caffeineduck/smold/arena"
	"github.com/caffeineduck/smold/hostfunc"
	"github.com/caffeineduck/smold/native"
)

// Core is the name of the module that validates the bridge.
const Core = "core"

type Module struct {
	name    string
	summary string
	run     func(ctx context.Context, h hostfunc.Host) error
}

func (m *Module) Name() string    { return m.name }
func (m *Module) Summary() string { return m.summary }

func (m *Module) Run(ctx context.Context, h hostfunc.Host) error {
	return m.run(ctx, h)
}

var registry = map[string]*Module{
	Core:       {name: Core, summary: "check the bridge by resolving calloc", run: runCore},
	"identity": {name: "identity", summary: "copy input through the arena unchanged", run: runIdentity},
	"hex":      {name: "hex", summary: "lowercase hex encoding of input", run: runHex},
	"upper":    {name: "upper", summary: "native toupper over every input byte", run: runUpper},
	"strlen":   {name: "strlen", summary: "native strlen of input", run: runStrlen},
}

// All returns every built-in module sorted by name.
func All() []*Module {
	out := make([]*Module, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Lookup returns the built-in called name.
func Lookup(name string) (*Module, bool) {
	m, ok := registry[name]
	return m, ok
}

func runCore(ctx context.Context, h hostfunc.Host) error {
	if _, err := h.Resolve(0, "calloc"); err != nil {
		return fmt.Errorf("core: %w", err)
	}
	return nil
}

func runIdentity(ctx context.Context, h hostfunc.Host) error {
	if err := h.Load(ctx, Core); err != nil {
		return err
	}
	in := h.Input()
	mem := h.Memory()
	if uint64(len(in)) > uint64(mem.Size()) {
		return fmt.Errorf("identity: %w: input of %d bytes exceeds %d", arena.ErrMemoryFault, len(in), mem.Size())
	}

	n := uint32(len(in))
	words := n &^ 3
	for off := uint32(0); off < words; off += 4 {
		if err := mem.Poke32(off, int64(binary.NativeEndian.Uint32(in[off:]))); err != nil {
			return err
		}
	}
	for off := words; off < n; off++ {
		if err := mem.Poke8(off, int64(in[off])); err != nil {
			return err
		}
	}

	var w [4]byte
	for off := uint32(0); off < words; off += 4 {
		v, err := mem.Peek32(off)
		if err != nil {
			return err
		}
		binary.NativeEndian.PutUint32(w[:], v)
		h.Emit(w[:]...)
	}
	for off := words; off < n; off++ {
		b, err := mem.Peek8(off)
		if err != nil {
			return err
		}
		h.Emit(b)
	}
	return nil
}

func runHex(ctx context.Context, h hostfunc.Host) error {
	h.Emit([]byte(hex.EncodeToString(h.Input()))...)
	h.Emit('\n')
	return nil
}

func runUpper(ctx context.Context, h hostfunc.Host) error {
	toupper, err := h.Resolve(0, "toupper")
	if err != nil {
		return fmt.Errorf("upper: %w", err)
	}
	for _, b := range h.Input() {
		r, err := h.Call(toupper, native.Int(int64(b)))
		if err != nil {
			return fmt.Errorf("upper: %w", err)
		}
		h.Emit(byte(r))
	}
	return nil
}

func runStrlen(ctx context.Context, h hostfunc.Host) error {
	strlen, err := h.Resolve(0, "strlen")
	if err != nil {
		return fmt.Errorf("strlen: %w", err)
	}
	n, err := h.Call(strlen, native.Bytes(h.Input()))
	if err != nil {
		return fmt.Errorf("strlen: %w", err)
	}
	h.Emit([]byte(strconv.FormatUint(uint64(n), 10))...)
	h.Emit('\n')
	return nil
}
