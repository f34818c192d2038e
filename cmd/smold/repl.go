package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caffeineduck/smold/executor"
	"github.com/caffeineduck/smold/native"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive console over one session",
		Long: `Start an interactive console bound to one session.

Commands:
  peek8 <off>            read a byte of the memory view
  poke8 <off> <v>        write the low 8 bits of v
  peek32 <off>           read a native-order word
  poke32 <off> <v>       write the low 32 bits of v
  sym <name>             resolve a symbol in the global namespace
  call <sym|0xaddr> ...  call a native function with integer or "string" args
  load <module>          run a module
  state                  show the memory view binding
  out                    drain the output of the last load
  exit                   leave the console

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)`,
		Args: cobra.NoArgs,
		RunE: runRepl,
	}
	cmd.Flags().String("input", "", "File whose bytes modules read as input")
	cmd.Flags().String("history", "", "History file path (default: ~/.smold_history)")
	return cmd
}

func runRepl(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := setupLogging(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer log.Sync()

	var input []byte
	if path, _ := cmd.Flags().GetString("input"); path != "" {
		if input, err = native.ReadFile(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", errInputNotFound, path)
			}
			return err
		}
	}

	exec, err := newExecutor(cfg)
	if err != nil {
		return err
	}
	defer exec.Close()

	session, err := exec.NewSession(
		executor.WithInput(input),
		executor.WithArenaSize(cfg.ArenaSize),
		executor.WithTrigger(cfg.Trigger),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	c := &console{session: session, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		historyFile, _ := cmd.Flags().GetString("history")
		if historyFile == "" {
			home, _ := os.UserHomeDir()
			historyFile = filepath.Join(home, ".smold_history")
		}
		return c.interactive(runContext(cmd), historyFile)
	}
	return c.script(runContext(cmd), in)
}

type console struct {
	session *executor.Session
	out     io.Writer
	errOut  io.Writer
}

func (c *console) interactive(ctx context.Context, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "smold> ",
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(c.errOut, "smold console (type 'exit' to quit, Ctrl+D to exit)")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(c.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if c.exec(ctx, line) {
			return nil
		}
	}
}

// script runs one command per line of r, as when input is piped.
func (c *console) script(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if c.exec(ctx, sc.Text()) {
			break
		}
	}
	return sc.Err()
}

// exec runs one console line and reports whether the console should exit.
func (c *console) exec(ctx context.Context, line string) bool {
	fields, err := splitLine(line)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return false
	}
	if len(fields) == 0 {
		return false
	}

	name, args := fields[0], fields[1:]
	switch name {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprintln(c.out, "commands: peek8 poke8 peek32 poke32 sym call load state out exit")
	default:
		if err := c.run(ctx, name, args); err != nil {
			fmt.Fprintf(c.errOut, "Error: %v\n", err)
		}
	}
	return false
}

func (c *console) run(ctx context.Context, name string, args []string) error {
	mem := c.session.Memory()
	switch name {
	case "peek8", "peek32":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <off>", name)
		}
		off, err := parseOffset(args[0])
		if err != nil {
			return err
		}
		var v uint32
		if name == "peek8" {
			var b uint8
			b, err = mem.Peek8(off)
			v = uint32(b)
		} else {
			v, err = mem.Peek32(off)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d (0x%x)\n", v, v)

	case "poke8", "poke32":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <off> <v>", name)
		}
		off, err := parseOffset(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseInt(args[1], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q", args[1])
		}
		if name == "poke8" {
			return mem.Poke8(off, v)
		}
		return mem.Poke32(off, v)

	case "sym":
		if len(args) != 1 {
			return errors.New("usage: sym <name>")
		}
		addr, err := c.session.Resolve(0, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, addr)

	case "call":
		if len(args) == 0 {
			return errors.New("usage: call <sym|0xaddr> [args...]")
		}
		target, err := c.target(args[0])
		if err != nil {
			return err
		}
		callArgs, err := parseCallArgs(args[1:])
		if err != nil {
			return err
		}
		r, err := c.session.Call(target, callArgs...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d (0x%x)\n", int64(r), r)

	case "load":
		if len(args) != 1 {
			return errors.New("usage: load <module>")
		}
		res := c.session.Run(ctx, args[0])
		if res.Error != nil {
			return res.Error
		}
		fmt.Fprintf(c.out, "loaded %s in %v (%d bytes of output)\n", args[0], res.Duration, c.session.Output().Len())

	case "state":
		a := c.session.Arena()
		fmt.Fprintf(c.out, "%s arena=%v size=%d\n", c.session.State(), a.Base(), a.Size())

	case "out":
		text, err := c.session.Output().Text()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, text)

	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	return nil
}

func (c *console) target(s string) (native.Addr, error) {
	if strings.HasPrefix(s, "0x") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid address %q", s)
		}
		return native.Addr(v), nil
	}
	return c.session.Resolve(0, s)
}

func parseOffset(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return uint32(v), nil
}

// parseCallArgs turns quoted fields into byte arguments and everything else
// into integers.
func parseCallArgs(fields []string) ([]native.Arg, error) {
	args := make([]native.Arg, 0, len(fields))
	for _, f := range fields {
		if strings.HasPrefix(f, `"`) {
			s, err := strconv.Unquote(f)
			if err != nil {
				return nil, fmt.Errorf("invalid string %s", f)
			}
			args = append(args, native.String(s))
			continue
		}
		v, err := strconv.ParseInt(f, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", f)
		}
		args = append(args, native.Int(v))
	}
	return args, nil
}

// splitLine splits on spaces, keeping double-quoted strings (with their
// quotes) as single fields.
func splitLine(line string) ([]string, error) {
	var fields []string
	rest := strings.TrimSpace(line)
	for rest != "" {
		if rest[0] == '"' {
			q, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, fmt.Errorf("unterminated string in %q", line)
			}
			fields = append(fields, q)
			rest = strings.TrimLeft(rest[len(q):], " \t")
			continue
		}
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			end = len(rest)
		}
		fields = append(fields, rest[:end])
		rest = strings.TrimLeft(rest[end:], " \t")
	}
	return fields, nil
}
