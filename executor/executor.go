package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/caffeineduck/smold/builtin"
	"github.com/caffeineduck/smold/hostfunc"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrModuleNotFound = errors.New("module not found")

// Result holds metadata from a top-level module run.
type Result struct {
	Duration time.Duration
	Error    error
}

// Module is a loadable unit of script code.
type Module interface {
	Name() string
	Run(ctx context.Context, h hostfunc.Host) error
}

// Executor manages the WASM runtime, compiled module caching and the set of
// built-in modules.
type Executor struct {
	runtime   wazero.Runtime
	cache     wazero.CompilationCache
	compiled  map[string]wazero.CompiledModule
	modules   map[string]Module
	registry  *hostfunc.Registry
	moduleDir string
	timeout   time.Duration
	mu        sync.RWMutex
	closed    bool
}

// New creates an Executor exporting registry to guests under
// hostfunc.ModuleName. A nil registry exports every bridge primitive.
func New(registry *hostfunc.Registry, opts ...ExecutorOption) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if registry == nil {
		registry = hostfunc.Default()
	}

	ctx := context.Background()

	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	closeAll := func() {
		if cache != nil {
			cache.Close(ctx)
		}
		rt.Close(ctx)
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		closeAll()
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}
	if _, err := registry.Instantiate(ctx, rt, hostfunc.ModuleName); err != nil {
		closeAll()
		return nil, err
	}

	e := &Executor{
		runtime:   rt,
		cache:     cache,
		compiled:  make(map[string]wazero.CompiledModule),
		modules:   make(map[string]Module),
		registry:  registry,
		moduleDir: cfg.moduleDir,
		timeout:   cfg.timeout,
	}
	if !cfg.noBuiltins {
		for _, m := range builtin.All() {
			e.modules[m.Name()] = m
		}
	}
	for _, m := range cfg.modules {
		e.modules[m.Name()] = m
	}

	Logger().Debug("executor ready",
		zap.String("module_dir", e.moduleDir),
		zap.Strings("host_functions", registry.List()),
		zap.Bool("disk_cache", cache != nil))
	return e, nil
}

// Compile registers a WebAssembly module under name. Later lookups of name
// resolve to it ahead of the module directory.
func (e *Executor) Compile(ctx context.Context, name string, bin []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errExecutorClosed
	}
	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	e.compiled[name] = compiled
	return nil
}

// Lookup returns the module called name: a built-in or registered module,
// a previously compiled module, or <moduleDir>/<name>.wasm. A name ending in
// .wasm is used as a path as given.
func (e *Executor) Lookup(ctx context.Context, name string) (Module, error) {
	e.mu.RLock()
	if m, ok := e.modules[name]; ok {
		e.mu.RUnlock()
		return m, nil
	}
	e.mu.RUnlock()

	compiled, err := e.getCompiled(ctx, name)
	if err != nil {
		return nil, err
	}
	return &wasmModule{name: name, compiled: compiled, runtime: e.runtime, timeout: e.timeout}, nil
}

func (e *Executor) modulePath(name string) string {
	if strings.HasSuffix(name, ".wasm") {
		return name
	}
	return filepath.Join(e.moduleDir, name+".wasm")
}

// getCompiled returns a cached compiled module, compiling if necessary.
func (e *Executor) getCompiled(ctx context.Context, name string) (wazero.CompiledModule, error) {
	e.mu.RLock()
	if compiled, ok := e.compiled[name]; ok {
		e.mu.RUnlock()
		return compiled, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, errExecutorClosed
	}
	if compiled, ok := e.compiled[name]; ok {
		return compiled, nil
	}

	path := e.modulePath(name)
	bin, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
		}
		return nil, fmt.Errorf("read module %s: %w", name, err)
	}

	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	Logger().Debug("module compiled", zap.String("module", name), zap.String("path", path))
	e.compiled[name] = compiled
	return compiled, nil
}

// Modules lists every module name Lookup can currently resolve without
// being given a path.
func (e *Executor) Modules() []string {
	e.mu.RLock()
	seen := make(map[string]bool, len(e.modules)+len(e.compiled))
	for name := range e.modules {
		seen[name] = true
	}
	for name := range e.compiled {
		if !strings.HasSuffix(name, ".wasm") {
			seen[name] = true
		}
	}
	dir := e.moduleDir
	e.mu.RUnlock()

	if entries, err := os.ReadDir(dir); err == nil {
		for _, ent := range entries {
			if !ent.IsDir() && strings.HasSuffix(ent.Name(), ".wasm") {
				seen[strings.TrimSuffix(ent.Name(), ".wasm")] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases all resources held by the Executor.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	ctx := context.Background()

	err := e.runtime.Close(ctx)
	if e.cache != nil {
		err = multierr.Append(err, e.cache.Close(ctx))
	}
	return err
}

var errExecutorClosed = errors.New("executor closed")

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "smold")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "smold")
	}
	return filepath.Join(os.TempDir(), "smold-cache")
}
