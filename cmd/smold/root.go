package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caffeineduck/smold/arena"
	"github.com/caffeineduck/smold/config"
	"github.com/caffeineduck/smold/executor"
	"github.com/caffeineduck/smold/internal/logging"
	"github.com/caffeineduck/smold/native"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitOK           = 0
	exitUsage        = 1
	exitRuntimeError = 3
	exitFileNotFound = 4
)

// usageError marks errors caused by how the command was invoked.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

var errInputNotFound = errors.New("input not found")

func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		return exitUsage
	case errors.Is(err, errInputNotFound):
		return exitFileNotFound
	default:
		return exitRuntimeError
	}
}

var rootCmd = newRootCmd()

func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return exitCode(err)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "smold <command> <input> [output]",
		Short: "Run modules against a native-call bridge and heap arena",
		Long: `smold - load a module that can call native library functions and
read or write a dedicated heap arena through integer offsets.

The command token selects a module (see 'smold modules'). The module reads
<input>. If [output] is given the module output is written to it byte for
byte, otherwise it is printed as text.`,
		Args:          checkRunArgs,
		RunE:          runRun,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to smold.toml (default: search upward from the working directory)")
	pf.String("module-dir", "", "Directory searched for <module>.wasm")
	pf.Uint32("arena-size", 0, "Arena capacity in bytes")
	pf.String("trigger", "", "Module whose load upgrades the memory view")
	pf.Duration("timeout", 0, "Per-module execution timeout (0 = none)")
	pf.String("memory", "", "Guest memory limit: 1mb, 16mb, 64mb, 256mb, 1gb")
	pf.Bool("no-cache", false, "Disable compilation cache")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console, json")

	root.AddCommand(newReplCmd(), newModulesCmd())
	return root
}

// loadConfig resolves smold.toml and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		cfg, err = config.FindAndLoad(wd)
	}
	if err != nil {
		return nil, err
	}

	if flags.Changed("module-dir") {
		cfg.ModuleDir, _ = flags.GetString("module-dir")
	}
	if flags.Changed("arena-size") {
		cfg.ArenaSize, _ = flags.GetUint32("arena-size")
	}
	if flags.Changed("trigger") {
		cfg.Trigger, _ = flags.GetString("trigger")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("memory") {
		s, _ := flags.GetString("memory")
		pages, err := parseMemoryLimit(s)
		if err != nil {
			return nil, &usageError{msg: err.Error()}
		}
		cfg.MemoryPages = pages
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Cache = false
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	return cfg, nil
}

// setupLogging installs one logger for every package.
func setupLogging(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	log, err := logging.New(w, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	native.SetLogger(log.Named("native"))
	arena.SetLogger(log.Named("arena"))
	executor.SetLogger(log.Named("executor"))
	return log, nil
}

func newExecutor(cfg *config.Config) (*executor.Executor, error) {
	opts := []executor.ExecutorOption{
		executor.WithModuleDir(cfg.ModuleDir),
		executor.WithModuleTimeout(cfg.Timeout),
		executor.WithMemoryLimit(cfg.MemoryPages),
	}
	if cfg.Cache {
		opts = append(opts, executor.WithDiskCache())
	}
	return executor.New(nil, opts...)
}

func parseMemoryLimit(s string) (uint32, error) {
	switch strings.ToLower(s) {
	case "", "0":
		return 0, nil
	case "1mb":
		return executor.MemoryLimit1MB, nil
	case "16mb":
		return executor.MemoryLimit16MB, nil
	case "64mb":
		return executor.MemoryLimit64MB, nil
	case "256mb":
		return executor.MemoryLimit256MB, nil
	case "1gb":
		return executor.MemoryLimit1GB, nil
	default:
		return 0, fmt.Errorf("invalid memory limit %q (expected 1mb, 16mb, 64mb, 256mb or 1gb)", s)
	}
}
