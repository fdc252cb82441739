package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dd0wney/bdi/pkg/bdiconfig"
	"github.com/dd0wney/bdi/pkg/bdilog"
	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/bditypes"
	"github.com/dd0wney/bdi/pkg/execctx"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/graphio"
	"github.com/dd0wney/bdi/pkg/interp"
	"github.com/dd0wney/bdi/pkg/metadata"
	"github.com/dd0wney/bdi/pkg/variant"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Entry          uint64
	MemorySize     uint64
	StepLimit      uint64
	ChecksumFramed bool
	Legacy         bool
	VerifyKey      string
	ProvenanceFile string
}

// NewRunCommand loads a binary graph and drives the interpreter to halt.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <graph-file>",
		Short: "Execute a BDI graph to completion",
		Long: `run decodes a graph written by "bdi build", drives pkg/interp's
fetch/decode/execute loop from --entry until HALT_OK/HALT_ERR, and prints
every data port value the execution recorded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().Uint64Var(&opts.Entry, "entry", 1, "entry node id")
	cmd.Flags().Uint64Var(&opts.MemorySize, "memory", bdiconfig.Default().MemoryArenaBytes, "interpreter memory arena size in bytes")
	cmd.Flags().Uint64Var(&opts.StepLimit, "step-limit", interp.DefaultStepLimit, "maximum fetch/decode/execute steps")
	cmd.Flags().BoolVar(&opts.ChecksumFramed, "checksum", false, "expect a per-node crc32 trailer")
	cmd.Flags().BoolVar(&opts.Legacy, "legacy", false, "read the deprecated v1 on-disk format")
	cmd.Flags().StringVar(&opts.VerifyKey, "verify-provenance", "", "verify the graph's provenance token against the HMAC key at this path")
	cmd.Flags().StringVar(&opts.ProvenanceFile, "provenance", "", "provenance token file (defaults to <graph-file>.token)")

	return cmd
}

func runRun(opts *RunOptions, graphPath string, cmd *cobra.Command) error {
	cfg, err := loadRootConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if !cmd.Flags().Changed("memory") {
		opts.MemorySize = cfg.MemoryArenaBytes
	}
	if !cmd.Flags().Changed("step-limit") {
		opts.StepLimit = cfg.StepLimit
	}

	f, err := os.Open(graphPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open graph file", err)
	}
	defer f.Close()

	metrics := bdimetrics.DefaultRegistry()

	var g *graph.Graph
	if opts.Legacy {
		g, err = graphio.ReadLegacyV1(f)
	} else {
		g, err = graphio.Read(f, graphio.ReaderOptions{ChecksumFramed: opts.ChecksumFramed, Metrics: metrics})
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode graph", err)
	}

	if opts.VerifyKey != "" {
		tokenPath := opts.ProvenanceFile
		if tokenPath == "" {
			tokenPath = graphPath + ".token"
		}
		tokenBytes, err := os.ReadFile(tokenPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read provenance token", err)
		}
		buildID, err := verifyProvenanceToken(string(tokenBytes), opts.VerifyKey, g)
		if err != nil {
			return WrapExitError(ExitFailure, "provenance verification failed", err)
		}
		fmt.Printf("provenance ok: build %s\n", buildID)
	}

	logger := bdilog.NewNopLogger()
	if opts.Verbose {
		logger = bdilog.NewJSONLogger(os.Stdout, bdilog.DebugLevel)
	}

	in := interp.New(metadata.NewStore(), opts.MemorySize, opts.StepLimit, logger, metrics)

	runErr := in.Run(g, graph.NodeID(opts.Entry))

	printPortValues(in.Context(), g)

	if runErr != nil {
		return WrapExitError(ExitFailure, "graph halted with an error", runErr)
	}

	fmt.Println("halted: ok")
	return nil
}

// printPortValues walks every node's declared outputs, since execctx.Context
// exposes no enumeration of its own: it only supports point lookups by
// (node, port).
func printPortValues(ctx *execctx.Context, g *graph.Graph) {
	for _, id := range sortedNodeIDs(g) {
		node, _ := g.Get(id)
		for slot, out := range node.DataOutputs {
			ref := execctx.PortRef{Node: uint64(id), Port: uint32(slot)}
			v, ok := ctx.Get(ref)
			if !ok {
				continue
			}
			name := out.Name
			if name == "" {
				name = fmt.Sprintf("port%d", slot)
			}
			fmt.Printf("node %d (%s).%s = %s\n", id, node.Op, name, formatVariant(v))
		}
	}
}

func sortedNodeIDs(g *graph.Graph) []graph.NodeID {
	ids := g.Nodes()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// formatVariant renders a variant.Variant for human display. There is no
// exported Variant.String: BOOL is read through Bool, each numeric tag
// through the matching ConvertTo instantiation (always a same-type,
// never-narrowing conversion, so it cannot fail), and the pointer family
// through AsAddress.
func formatVariant(v variant.Variant) string {
	switch v.Tag {
	case bditypes.BOOL:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	case bditypes.INT8:
		n, _ := variant.ConvertTo[int8](v)
		return strconv.FormatInt(int64(n), 10)
	case bditypes.INT16:
		n, _ := variant.ConvertTo[int16](v)
		return strconv.FormatInt(int64(n), 10)
	case bditypes.INT32:
		n, _ := variant.ConvertTo[int32](v)
		return strconv.FormatInt(int64(n), 10)
	case bditypes.INT64:
		n, _ := variant.ConvertTo[int64](v)
		return strconv.FormatInt(n, 10)
	case bditypes.UINT8:
		n, _ := variant.ConvertTo[uint8](v)
		return strconv.FormatUint(uint64(n), 10)
	case bditypes.UINT16:
		n, _ := variant.ConvertTo[uint16](v)
		return strconv.FormatUint(uint64(n), 10)
	case bditypes.UINT32:
		n, _ := variant.ConvertTo[uint32](v)
		return strconv.FormatUint(uint64(n), 10)
	case bditypes.UINT64:
		n, _ := variant.ConvertTo[uint64](v)
		return strconv.FormatUint(n, 10)
	case bditypes.FLOAT32:
		f, _ := variant.ConvertTo[float32](v)
		return strconv.FormatFloat(float64(f), 'g', -1, 32)
	case bditypes.FLOAT64:
		f, _ := variant.ConvertTo[float64](v)
		return strconv.FormatFloat(f, 'g', -1, 64)
	case bditypes.POINTER, bditypes.MEM_REF, bditypes.FUNC_PTR, bditypes.NODE_ID, bditypes.REGION_ID:
		addr, _ := v.AsAddress()
		return fmt.Sprintf("%s(0x%x)", v.Tag, addr)
	default:
		return fmt.Sprintf("<%s>", v.Tag)
	}
}
