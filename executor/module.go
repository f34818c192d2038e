package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caffeineduck/smold/hostfunc"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/sys"
	"go.uber.org/zap"
)

// wasmModule runs a compiled WebAssembly module once per Run, linking its
// imports against the host module.
type wasmModule struct {
	name     string
	compiled wazero.CompiledModule
	runtime  wazero.Runtime
	timeout  time.Duration
}

func (m *wasmModule) Name() string { return m.name }

func (m *wasmModule) Run(ctx context.Context, h hostfunc.Host) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	ctx = hostfunc.WithHost(ctx, h)

	moduleConfig := wazero.NewModuleConfig().
		WithStdout(h.Diagnostics()).
		WithStderr(h.Diagnostics()).
		WithArgs(m.name).
		WithStartFunctions("_start").
		WithName("")

	start := time.Now()
	mod, err := m.runtime.InstantiateModule(ctx, m.compiled, moduleConfig)
	if mod != nil {
		defer mod.Close(context.Background())
	}
	Logger().Debug("module finished",
		zap.String("module", m.name),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))

	if err == nil {
		return nil
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("module %s: timeout after %v", m.name, m.timeout)
	}
	return fmt.Errorf("module %s: %w", m.name, err)
}
