package executor

import (
	"time"

	"github.com/caffeineduck/smold/arena"
	"github.com/caffeineduck/smold/builtin"
)

// ExecutorOption configures the Executor at creation time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	diskCache        bool
	cacheDir         string
	moduleDir        string
	timeout          time.Duration // per module instance, 0 = none
	memoryLimitPages uint32        // Max memory pages (each page = 64KB), 0 = default (4GB)
	modules          []Module
	noBuiltins       bool
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		moduleDir:        ".",
		memoryLimitPages: 0, // 0 means use wazero default (65536 pages = 4GB)
	}
}

// WithDiskCache enables persistent compilation cache for faster CLI startup.
// Optionally provide a custom directory; otherwise uses ~/.cache/smold or XDG_CACHE_HOME/smold.
//
// Examples:
//
//	executor.New(nil, executor.WithDiskCache())            // default dir
//	executor.New(nil, executor.WithDiskCache("/tmp/cache")) // custom dir
func WithDiskCache(dir ...string) ExecutorOption {
	return func(c *executorConfig) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithModuleDir sets the directory searched for <name>.wasm.
func WithModuleDir(dir string) ExecutorOption {
	return func(c *executorConfig) {
		if dir != "" {
			c.moduleDir = dir
		}
	}
}

// WithModuleTimeout bounds the run time of each WebAssembly module instance.
func WithModuleTimeout(d time.Duration) ExecutorOption {
	return func(c *executorConfig) {
		c.timeout = d
	}
}

// WithModules registers additional Go modules. A module named like a
// built-in replaces it.
func WithModules(mods ...Module) ExecutorOption {
	return func(c *executorConfig) {
		c.modules = append(c.modules, mods...)
	}
}

// WithoutBuiltins leaves the built-in modules unregistered.
func WithoutBuiltins() ExecutorOption {
	return func(c *executorConfig) {
		c.noBuiltins = true
	}
}

// WithMemoryLimit sets the maximum memory available to WASM modules.
// Each page is 64KB. Examples:
//   - WithMemoryLimit(16) = 1MB max
//   - WithMemoryLimit(256) = 16MB max
//   - WithMemoryLimit(1024) = 64MB max
//
// Default is 0 (no limit, up to 4GB).
func WithMemoryLimit(pages uint32) ExecutorOption {
	return func(c *executorConfig) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit1MB   uint32 = 16    // 1 MB
	MemoryLimit16MB  uint32 = 256   // 16 MB
	MemoryLimit64MB  uint32 = 1024  // 64 MB
	MemoryLimit256MB uint32 = 4096  // 256 MB
	MemoryLimit1GB   uint32 = 16384 // 1 GB
)

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	native    Native
	arenaSize uint32
	trigger   string
	input     []byte
	timeout   time.Duration
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		arenaSize: arena.DefaultSize,
		trigger:   builtin.Core,
	}
}

// WithNative replaces the process C library binding.
func WithNative(n Native) SessionOption {
	return func(c *sessionConfig) {
		c.native = n
	}
}

// WithArenaSize sets the arena capacity in bytes.
func WithArenaSize(size uint32) SessionOption {
	return func(c *sessionConfig) {
		if size > 0 {
			c.arenaSize = size
		}
	}
}

// WithTrigger names the module whose successful load upgrades the memory
// view to the arena.
func WithTrigger(name string) SessionOption {
	return func(c *sessionConfig) {
		if name != "" {
			c.trigger = name
		}
	}
}

// WithInput sets the bytes modules read as their input.
func WithInput(b []byte) SessionOption {
	return func(c *sessionConfig) {
		c.input = b
	}
}

// WithSessionTimeout bounds each top-level Run.
func WithSessionTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}
