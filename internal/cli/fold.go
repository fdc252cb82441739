package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/graphio"
	"github.com/dd0wney/bdi/pkg/optimize"
)

// FoldOptions holds flags for the fold command.
type FoldOptions struct {
	*RootOptions
	Output         string
	ChecksumFramed bool
	Legacy         bool
}

// NewFoldCommand runs constant folding over a binary graph and writes the
// result back out.
func NewFoldCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FoldOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fold <graph-file>",
		Short: "Run constant folding over a BDI graph",
		Long: `fold decodes a graph, runs pkg/optimize's fixed-point
constant-folding pass, and writes the rewritten graph to --output (or back
over the input file if --output is omitted).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFold(opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output graph file (defaults to overwriting the input)")
	cmd.Flags().BoolVar(&opts.ChecksumFramed, "checksum", false, "read/write a per-node crc32 trailer")
	cmd.Flags().BoolVar(&opts.Legacy, "legacy", false, "read the deprecated v1 on-disk format")

	return cmd
}

func runFold(opts *FoldOptions, graphPath string) error {
	reg := bdimetrics.DefaultRegistry()

	f, err := os.Open(graphPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open graph file", err)
	}

	var g *graph.Graph
	if opts.Legacy {
		g, err = graphio.ReadLegacyV1(f)
	} else {
		g, err = graphio.Read(f, graphio.ReaderOptions{ChecksumFramed: opts.ChecksumFramed, Metrics: reg})
	}
	f.Close()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode graph", err)
	}

	result := optimize.FoldWithMetrics(g, reg)
	fmt.Printf("folded %d node(s) over %d iteration(s)\n", result.NodesFolded, result.Iterations)

	outPath := opts.Output
	if outPath == "" {
		outPath = graphPath
	}
	out, err := os.Create(outPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output file", err)
	}
	defer out.Close()

	if err := graphio.Write(out, g, graphio.WriterOptions{ChecksumFramed: opts.ChecksumFramed, Metrics: reg}); err != nil {
		return WrapExitError(ExitFailure, "failed to encode folded graph", err)
	}
	return nil
}
