package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/caffeineduck/smold/builtin"
	"github.com/spf13/cobra"
)

func newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List command tokens and loadable modules",
		Args:  cobra.NoArgs,
		RunE:  runModules,
	}
}

func runModules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exec, err := newExecutor(cfg)
	if err != nil {
		return err
	}
	defer exec.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tMODULE")
	for _, token := range cfg.Tokens() {
		m, _ := cfg.Module(token)
		fmt.Fprintf(w, "%s\t%s\n", token, m)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "MODULE\tSOURCE")
	for _, name := range exec.Modules() {
		source := "wasm"
		if m, ok := builtin.Lookup(name); ok {
			source = "builtin: " + m.Summary()
		}
		if name == cfg.Trigger {
			source += " (trigger)"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, source)
	}
	return w.Flush()
}
