package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/caffeineduck/smold/arena"
	"github.com/caffeineduck/smold/native"
	"go.uber.org/zap"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrLoadDepth     = errors.New("module load nesting too deep")
)

// maxLoadDepth bounds nested loads so a module that loads itself fails
// instead of exhausting the stack.
const maxLoadDepth = 64

// Native is the C library surface a Session needs.
type Native interface {
	Entry() native.Addr
	Resolve(h native.Handle, name string) (native.Addr, error)
	Call(target native.Addr, args ...native.Arg) (uintptr, error)
	Calloc(n, size uintptr) native.Addr
	WriteFile(path string, data []byte) error
}

var (
	systemOnce sync.Once
	systemLib  *native.Libc
	systemErr  error
)

// SystemNative returns the process C library binding, opening it on first
// use. The binding lives for the rest of the process.
func SystemNative() (Native, error) {
	systemOnce.Do(func() {
		systemLib, systemErr = native.Open()
	})
	if systemErr != nil {
		return nil, systemErr
	}
	return systemLib, nil
}

// Session is the context a module runs in: the native binding, the arena,
// the capability set, the run input and the output buffer. It implements
// hostfunc.Host.
type Session struct {
	exec  *Executor
	cfg   sessionConfig
	lib   Native
	arena *arena.Arena
	caps  *arena.Capabilities

	out   *Output
	diag  bytes.Buffer
	fault error
	depth int

	mu     sync.Mutex
	execMu sync.Mutex
	closed bool
}

// NewSession acquires the native binding and the arena. Failure here means
// no module can run.
func (e *Executor) NewSession(opts ...SessionOption) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	lib := cfg.native
	if lib == nil {
		var err error
		if lib, err = SystemNative(); err != nil {
			return nil, fmt.Errorf("open native bridge: %w", err)
		}
	}

	a, err := arena.New(lib, cfg.arenaSize)
	if err != nil {
		return nil, err
	}

	s := &Session{
		exec:  e,
		cfg:   cfg,
		lib:   lib,
		arena: a,
		caps:  arena.NewCapabilities(arena.NewShadow(a.Size())),
		out:   NewOutput(),
	}
	Logger().Debug("session opened",
		zap.Stringer("arena", a.Base()),
		zap.Uint32("arena_size", a.Size()),
		zap.String("trigger", cfg.trigger))
	return s, nil
}

// Run loads name as a top-level module with a fresh output buffer.
func (s *Session) Run(ctx context.Context, name string) Result {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	start := time.Now()

	if s.isClosed() {
		return Result{Error: ErrSessionClosed, Duration: time.Since(start)}
	}

	if s.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.timeout)
		defer cancel()
	}

	s.mu.Lock()
	s.out = NewOutput()
	s.fault = nil
	s.mu.Unlock()

	err := s.Load(ctx, name)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("timeout after %v: %w", s.cfg.timeout, err)
	}
	return Result{Error: err, Duration: time.Since(start)}
}

// Load runs the module called name and, once it has returned successfully,
// upgrades the capability set if name is the trigger. Upgrading is one-shot.
//
// If the module trapped on a host error, that error is returned rather than
// the trap.
func (s *Session) Load(ctx context.Context, name string) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if s.depth >= maxLoadDepth {
		return fmt.Errorf("%w: %s", ErrLoadDepth, name)
	}

	m, err := s.exec.Lookup(ctx, name)
	if err != nil {
		return err
	}

	// Faults are scoped to this load. The caller's fault is restored on
	// return so an earlier failure never stands in for this one.
	s.mu.Lock()
	prev := s.fault
	s.fault = nil
	s.mu.Unlock()

	err = s.runModule(ctx, m)

	s.mu.Lock()
	fault := s.fault
	s.fault = prev
	s.mu.Unlock()

	if err != nil {
		if fault != nil {
			err = fault
		}
		Logger().Debug("module failed", zap.String("module", name), zap.Error(err))
		return err
	}

	if name == s.cfg.trigger && s.caps.Upgrade(s.arena) {
		Logger().Info("memory view upgraded", zap.String("module", name), zap.Stringer("arena", s.arena.Base()))
	}
	return nil
}

// runModule runs m one nesting level down. A panicking Go module fails the
// load instead of unwinding the caller.
func (s *Session) runModule(ctx context.Context, m Module) (err error) {
	s.depth++
	defer func() {
		s.depth--
		if r := recover(); r != nil {
			err = fmt.Errorf("module %s panicked: %v", m.Name(), r)
		}
	}()
	return m.Run(ctx, s)
}

// Close marks the session closed. The arena is not released.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Output returns the buffer of the current run.
func (s *Session) Output() *Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

// DiagnosticText returns what modules wrote to stdout and stderr.
func (s *Session) DiagnosticText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diag.String()
}

// State reports whether the memory view has been upgraded.
func (s *Session) State() arena.State { return s.caps.State() }

// Arena returns the session arena.
func (s *Session) Arena() *arena.Arena { return s.arena }

// Native returns the C library binding.
func (s *Session) Native() Native { return s.lib }

func (s *Session) Entry() native.Addr { return s.lib.Entry() }

func (s *Session) Resolve(h native.Handle, name string) (native.Addr, error) {
	return s.lib.Resolve(h, name)
}

func (s *Session) Call(target native.Addr, args ...native.Arg) (uintptr, error) {
	return s.lib.Call(target, args...)
}

func (s *Session) Memory() arena.View { return s.caps }

func (s *Session) ArenaAddr(off uint32) (native.Addr, error) { return s.arena.Addr(off) }

func (s *Session) Emit(b ...byte) { s.Output().Append(b...) }

func (s *Session) Input() []byte { return s.cfg.input }

func (s *Session) WriteFile(path string, data []byte) error { return s.lib.WriteFile(path, data) }

func (s *Session) Fault(err error) {
	s.mu.Lock()
	if s.fault == nil {
		s.fault = err
	}
	s.mu.Unlock()
}

func (s *Session) Diagnostics() io.Writer { return diagWriter{s} }

type diagWriter struct{ s *Session }

func (w diagWriter) Write(p []byte) (int, error) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	return w.s.diag.Write(p)
}
