package hostfunc

import (
	"context"
	"fmt"

	"github.com/caffeineduck/smold/arena"
	"github.com/tetratelabs/wazero/api"
)

func registerIO(r *Registry) {
	// emit(b)
	r.Register("emit", Func{
		Params: []api.ValueType{i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			mustHost(ctx).Emit(byte(stack[0]))
		},
	})

	// emit_bytes(ptr, len)
	r.Register("emit_bytes", Func{
		Params: []api.ValueType{i32, i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			b, err := ReadBytes(mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
			if err != nil {
				trap(h, err)
			}
			h.Emit(b...)
		},
	})

	// input_len() -> n
	r.Register("input_len", Func{
		Results: []api.ValueType{i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = uint64(len(mustHost(ctx).Input()))
		},
	})

	// input_read(dst, off, n) -> copied
	r.Register("input_read", Func{
		Params:  []api.ValueType{i32, i32, i32},
		Results: []api.ValueType{i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			in := h.Input()
			dst, off, n := api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
			if uint64(off) >= uint64(len(in)) {
				stack[0] = 0
				return
			}
			chunk := in[off:]
			if uint64(n) < uint64(len(chunk)) {
				chunk = chunk[:n]
			}
			if err := WriteBytes(mod, dst, chunk); err != nil {
				trap(h, err)
			}
			stack[0] = uint64(len(chunk))
		},
	})

	// write_file(path_ptr, path_len, off, n) writes n bytes of the bound
	// memory view starting at off.
	r.Register("write_file", Func{
		Params: []api.ValueType{i32, i32, i32, i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			path, err := ReadString(mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
			if err != nil {
				trap(h, err)
			}
			data, err := ViewBytes(h, api.DecodeU32(stack[2]), api.DecodeU32(stack[3]))
			if err != nil {
				trap(h, err)
			}
			if err := h.WriteFile(path, data); err != nil {
				trap(h, err)
			}
		},
	})
}

// ViewBytes copies n bytes at off out of the host's bound memory view.
func ViewBytes(h Host, off, n uint32) ([]byte, error) {
	v := h.Memory()
	if uint64(off)+uint64(n) > uint64(v.Size()) {
		return nil, fmt.Errorf("%w: range %d+%d outside %d bytes", arena.ErrMemoryFault, off, n, v.Size())
	}
	out := make([]byte, n)
	for i := range out {
		b, err := v.Peek8(off + uint32(i))
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
