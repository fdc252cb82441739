package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/graphio"
	"github.com/dd0wney/bdi/pkg/variant"
)

// DisasmOptions holds flags for the disasm command.
type DisasmOptions struct {
	*RootOptions
	ChecksumFramed bool
	Legacy         bool
}

// NewDisasmCommand prints a binary graph's nodes and edges in a readable
// one-line-per-node listing.
func NewDisasmCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DisasmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "disasm <graph-file>",
		Short:         "Print a BDI graph's nodes and edges",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisasm(opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.ChecksumFramed, "checksum", false, "expect a per-node crc32 trailer")
	cmd.Flags().BoolVar(&opts.Legacy, "legacy", false, "read the deprecated v1 on-disk format")

	return cmd
}

func runDisasm(opts *DisasmOptions, graphPath string) error {
	f, err := os.Open(graphPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open graph file", err)
	}
	defer f.Close()

	var g *graph.Graph
	if opts.Legacy {
		g, err = graphio.ReadLegacyV1(f)
	} else {
		g, err = graphio.Read(f, graphio.ReaderOptions{ChecksumFramed: opts.ChecksumFramed, Metrics: bdimetrics.DefaultRegistry()})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode graph", err)
	}

	fmt.Printf("graph %q: %d node(s)\n", g.Name, g.Len())
	for _, id := range sortedNodeIDs(g) {
		n, _ := g.Get(id)
		fmt.Printf("  %5d  %-14s region=%d meta=%d\n", n.ID, n.Op, n.RegionID, n.MetadataHandle)
		if n.Payload.Type != 0 || len(n.Payload.Bytes) > 0 {
			fmt.Printf("           payload: %s\n", describePayload(n.Payload))
		}
		for i, in := range n.DataInputs {
			if in.Unbound() {
				continue
			}
			fmt.Printf("           in[%d]  <- %d.%d\n", i, in.Node, in.Port)
		}
		for i, out := range n.DataOutputs {
			fmt.Printf("           out[%d] : %s %s\n", i, out.Type, out.Name)
		}
		for pred := range n.ControlInputs {
			fmt.Printf("           ctrl   <- %d\n", pred)
		}
		for _, succ := range n.ControlOutputs {
			fmt.Printf("           ctrl   -> %d\n", succ)
		}
	}
	return nil
}

func describePayload(p variant.Payload) string {
	if !p.IsValid() {
		return fmt.Sprintf("%s (invalid: %d bytes)", p.Type, len(p.Bytes))
	}
	return formatVariant(variant.PayloadToVariant(p))
}
