package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/caffeineduck/smold/config"
	"github.com/caffeineduck/smold/executor"
	"github.com/caffeineduck/smold/native"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func checkRunArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		cfg, err := loadConfig(cmd)
		if err != nil {
			cfg = config.Default()
		}
		printUsage(cmd.ErrOrStderr(), cfg)
		return &usageError{msg: fmt.Sprintf("expected <command> <input> [output], got %d arguments", len(args))}
	}
	return nil
}

func printUsage(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "usage: smold <command> <input> [output]")
	fmt.Fprintf(w, "commands: %s\n", strings.Join(cfg.Tokens(), ", "))
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	token, inputPath := args[0], args[1]
	module, ok := cfg.Module(token)
	if !ok {
		printUsage(cmd.ErrOrStderr(), cfg)
		return &usageError{msg: fmt.Sprintf("unknown command %q", token)}
	}

	log, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	input, err := native.ReadFile(inputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", errInputNotFound, inputPath)
		}
		return err
	}

	exec, err := newExecutor(cfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, exec.Close()) }()

	session, err := exec.NewSession(
		executor.WithInput(input),
		executor.WithArenaSize(cfg.ArenaSize),
		executor.WithTrigger(cfg.Trigger),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	// Diagnostics and, on failure, the accumulated output go to stderr from
	// this deferred path however the run ends. A failed run never produces
	// the output file.
	succeeded := false
	defer func() {
		if !succeeded {
			text, drainErr := session.Output().Text()
			if text != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), text)
			}
			if !errors.Is(drainErr, executor.ErrOutputDrained) {
				err = multierr.Append(err, drainErr)
			}
		}
		if diag := session.DiagnosticText(); diag != "" {
			fmt.Fprint(cmd.ErrOrStderr(), diag)
		}
	}()

	result := session.Run(runContext(cmd), module)
	log.Debug("run finished",
		zap.String("command", token),
		zap.String("module", module),
		zap.Duration("duration", result.Duration),
		zap.Error(result.Error))
	if result.Error != nil {
		return result.Error
	}
	succeeded = true

	if len(args) == 3 {
		return session.Output().Flush(session.Native(), args[2])
	}
	text, err := session.Output().Text()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

// runContext returns the command context, falling back to Background for
// commands executed without one.
func runContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
