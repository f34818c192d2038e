package hostfunc

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

func registerMemory(r *Registry) {
	r.Register("peek8", Func{
		Params:  []api.ValueType{i32},
		Results: []api.ValueType{i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			b, err := h.Memory().Peek8(api.DecodeU32(stack[0]))
			if err != nil {
				trap(h, err)
			}
			stack[0] = uint64(b)
		},
	})

	r.Register("poke8", Func{
		Params: []api.ValueType{i32, i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			if err := h.Memory().Poke8(api.DecodeU32(stack[0]), int64(api.DecodeI32(stack[1]))); err != nil {
				trap(h, err)
			}
		},
	})

	r.Register("peek32", Func{
		Params:  []api.ValueType{i32},
		Results: []api.ValueType{i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			w, err := h.Memory().Peek32(api.DecodeU32(stack[0]))
			if err != nil {
				trap(h, err)
			}
			stack[0] = api.EncodeU32(w)
		},
	})

	r.Register("poke32", Func{
		Params: []api.ValueType{i32, i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			if err := h.Memory().Poke32(api.DecodeU32(stack[0]), int64(api.DecodeI32(stack[1]))); err != nil {
				trap(h, err)
			}
		},
	})
}
