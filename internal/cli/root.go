package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every bdi subcommand.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCommand builds the bdi command tree: build, run, disasm, fold, tui.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bdi",
		Short: "bdi - Bytecode Dataflow Intermediate toolkit",
		Long: `bdi builds, runs, disassembles, and folds BDI graphs: a typed
dataflow/control-flow intermediate representation with a step-limited,
single-threaded interpreter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug-level logging")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "bdiconfig YAML file (step_limit, memory_arena_bytes, log_level, ...)")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewDisasmCommand(opts))
	cmd.AddCommand(NewFoldCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))

	return cmd
}
