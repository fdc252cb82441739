package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dd0wney/bdi/pkg/bdilog"
	"github.com/dd0wney/bdi/pkg/bdimetrics"
	"github.com/dd0wney/bdi/pkg/execctx"
	"github.com/dd0wney/bdi/pkg/graph"
	"github.com/dd0wney/bdi/pkg/graphio"
	"github.com/dd0wney/bdi/pkg/interp"
	"github.com/dd0wney/bdi/pkg/metadata"
)

var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	tuiContentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	tuiErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	tuiSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	tuiHelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1).MarginLeft(2)
)

type tuiKeyMap struct {
	Run  key.Binding
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var tuiKeys = tuiKeyMap{
	Run:  key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r/enter", "run to halt")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
}

// TUIOptions holds flags for the tui command.
type TUIOptions struct {
	*RootOptions
	Entry      uint64
	MemorySize uint64
}

// NewTUICommand launches an interactive viewer over a binary graph.
func NewTUICommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TUIOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "tui <graph-file>",
		Short:         "Interactively inspect and run a BDI graph",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts, args[0])
		},
	}

	cmd.Flags().Uint64Var(&opts.Entry, "entry", 1, "entry node id")
	cmd.Flags().Uint64Var(&opts.MemorySize, "memory", 1<<20, "interpreter memory arena size in bytes")

	return cmd
}

func runTUI(opts *TUIOptions, graphPath string) error {
	f, err := os.Open(graphPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open graph file", err)
	}
	g, err := graphio.Read(f, graphio.ReaderOptions{Metrics: bdimetrics.DefaultRegistry()})
	f.Close()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode graph", err)
	}

	p := tea.NewProgram(initialTUIModel(g, graph.NodeID(opts.Entry), opts.MemorySize))
	if _, err := p.Run(); err != nil {
		return WrapExitError(ExitFailure, "tui exited with an error", err)
	}
	return nil
}

type tuiModel struct {
	g          *graph.Graph
	entry      graph.NodeID
	memorySize uint64
	nodeTable  table.Model
	width      int
	height     int
	message    string
	messageErr bool
	ctx        *execctx.Context
}

func initialTUIModel(g *graph.Graph, entry graph.NodeID, memorySize uint64) tuiModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Op", Width: 16},
		{Title: "Region", Width: 8},
		{Title: "Meta", Width: 8},
	}
	rows := make([]table.Row, 0, g.Len())
	for _, id := range sortedNodeIDs(g) {
		n, _ := g.Get(id)
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", n.ID),
			n.Op.String(),
			fmt.Sprintf("%d", n.RegionID),
			fmt.Sprintf("%d", n.MetadataHandle),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	return tuiModel{g: g, entry: entry, memorySize: memorySize, nodeTable: t}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, tuiKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, tuiKeys.Run):
			m.runGraph()
		}
	}

	m.nodeTable, cmd = m.nodeTable.Update(msg)
	return m, cmd
}

func (m *tuiModel) runGraph() {
	in := interp.New(metadata.NewStore(), m.memorySize, interp.DefaultStepLimit, bdilog.NewNopLogger(), bdimetrics.DefaultRegistry())
	err := in.Run(m.g, m.entry)
	m.ctx = in.Context()
	if err != nil {
		m.message = fmt.Sprintf("halted with error: %v", err)
		m.messageErr = true
		return
	}
	m.message = "halted: ok"
	m.messageErr = false
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(tuiTitleStyle.Render(fmt.Sprintf("bdi tui — %s", m.g.Name)))
	b.WriteString("\n")
	b.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("%d node(s), entry=%d", m.g.Len(), m.entry)))
	b.WriteString("\n")
	b.WriteString(tuiContentStyle.Render(m.nodeTable.View()))

	if m.message != "" {
		style := tuiSuccessStyle
		if m.messageErr {
			style = tuiErrorStyle
		}
		b.WriteString("\n")
		b.WriteString(tuiContentStyle.Render(style.Render(m.message)))
	}

	if m.ctx != nil {
		b.WriteString("\n")
		b.WriteString(tuiContentStyle.Render(portValuesSummary(m.ctx, m.g)))
	}

	b.WriteString("\n")
	b.WriteString(tuiHelpStyle.Render("r/enter: run to halt  •  ↑/↓: move  •  q: quit"))
	return b.String()
}

func portValuesSummary(ctx *execctx.Context, g *graph.Graph) string {
	var b strings.Builder
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
			fmt.Fprintf(&b, "node %d.%s = %s\n", id, name, formatVariant(v))
		}
	}
	return b.String()
}
