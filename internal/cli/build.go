package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/graphio"
	"github.com/dd0wney/bdi/pkg/metadata"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output         string
	Name           string
	ChecksumFramed bool
	SignKey        string
}

// NewBuildCommand compiles a builder-script text file into a binary graph.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <script>",
		Short: "Compile a builder script into a binary BDI graph",
		Long: `build reads the tiny line-oriented builder-script format (see
internal/cli/script.go for the grammar), constructs a graph with pkg/builder,
validates it, and writes it out in the pkg/graphio v2 on-disk format.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output graph file (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "graph name (defaults to the script's base filename)")
	cmd.Flags().BoolVar(&opts.ChecksumFramed, "checksum", false, "write a per-node crc32 trailer")
	cmd.Flags().StringVar(&opts.SignKey, "sign", "", "sign the built graph with the HMAC key at this path, writing <output>.token")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runBuild(opts *BuildOptions, scriptPath string) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open script", err)
	}
	defer f.Close()

	name := opts.Name
	if name == "" {
		name = filepath.Base(scriptPath)
	}

	store := metadata.NewStore()
	g, err := ParseScript(f, name, store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse script", err)
	}

	if errs := g.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return WrapExitError(ExitFailure, fmt.Sprintf("graph failed validation with %d error(s)", len(errs)), nil)
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output file", err)
	}
	defer out.Close()

	if err := graphio.Write(out, g, graphio.WriterOptions{ChecksumFramed: opts.ChecksumFramed, Metrics: bdimetrics.DefaultRegistry()}); err != nil {
		return WrapExitError(ExitFailure, "failed to encode graph", err)
	}

	fmt.Printf("wrote %d node(s) to %s\n", g.Len(), opts.Output)

	if opts.SignKey != "" {
		token, err := issueProvenanceToken(g, opts.SignKey)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to sign graph", err)
		}
		tokenPath := opts.Output + ".token"
		if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
			return WrapExitError(ExitFailure, "failed to write provenance token", err)
		}
		fmt.Printf("wrote provenance token to %s\n", tokenPath)
	}

	return nil
}
