package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/splitkit/splitkit/pkg/core/split"
	"github.com/splitkit/splitkit/pkg/graph"
	"github.com/splitkit/splitkit/pkg/manifest"
	"github.com/splitkit/splitkit/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "inspect [graph.json]",
		Short: "Browse the chunks of a split interactively",
		Long: `Browse the chunks of a split interactively.

The graph is split and the resulting chunks are shown in a navigable list
with their kind, filename, and contents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := graph.ReadGraphFile(args[0])
			if err != nil {
				return fmt.Errorf("load graph %s: %w", args[0], err)
			}

			// Inspection always recomputes: the chunk graph is not archived.
			runner, err := c.newRunner(cmd, true)
			if err != nil {
				return err
			}
			defer runner.Close()
			opts.Logger = c.Logger

			result, err := runner.Execute(cmd.Context(), g, opts)
			if err != nil {
				return err
			}

			model := newChunkListModel(result.Chunks, result.Manifest)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&opts.EntryPattern, "entry-pattern", "", `entry filename pattern (default "[name].js")`)
	cmd.Flags().StringVar(&opts.SplitPattern, "split-pattern", "", `split filename pattern (default "[name].[hash].js")`)
	cmd.Flags().StringVar(&opts.CommonPattern, "common-pattern", "", `common filename pattern (default "[name].[hash].js")`)

	return cmd
}

// =============================================================================
// ChunkListModel - Interactive chunk browser
// =============================================================================

// chunkRow is one chunk plus its emitted file.
type chunkRow struct {
	chunk *split.Chunk
	file  manifest.File
	loads []string
}

// ChunkListModel is the bubbletea model for browsing split results.
type ChunkListModel struct {
	Rows     []chunkRow
	Cursor   int
	ShowBody bool
	Height   int
}

func newChunkListModel(res *split.Result, m *manifest.Manifest) ChunkListModel {
	rows := make([]chunkRow, len(res.Chunks))
	for i, c := range res.Chunks {
		var loads []string
		for _, e := range res.Loads(c.Index) {
			name := m.Files[e.To].Filename
			if e.Deferred {
				name += " (async)"
			}
			loads = append(loads, name)
		}
		rows[i] = chunkRow{chunk: c, file: m.Files[i], loads: loads}
	}
	return ChunkListModel{Rows: rows, Height: 15}
}

func (m ChunkListModel) Init() tea.Cmd {
	return nil
}

func (m ChunkListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.ShowBody {
				m.ShowBody = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
			}
		case "enter":
			m.ShowBody = !m.ShowBody
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ChunkListModel) View() string {
	if m.ShowBody {
		return m.bodyView()
	}
	return m.listView()
}

func (m ChunkListModel) listView() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Chunks"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ view content  q quit"))
	b.WriteString("\n\n")

	rows := [][]string{}
	for i, r := range m.Rows {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		loads := "—"
		if len(r.loads) > 0 {
			loads = strings.Join(r.loads, ", ")
		}
		rows = append(rows, []string{
			cursor,
			r.file.Filename,
			r.chunk.Kind.String(),
			fmt.Sprintf("%d", len(r.chunk.Nodes)),
			fmt.Sprintf("%d", len(r.chunk.Exports)),
			loads,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "File", "Kind", "Nodes", "Exports", "Loads").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

func (m ChunkListModel) bodyView() string {
	r := m.Rows[m.Cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render(r.file.Filename))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎/esc back  q quit"))
	b.WriteString("\n\n")

	lines := strings.Split(r.file.Content, "\n")
	if len(lines) > m.Height {
		lines = lines[:m.Height]
		lines = append(lines, listDimStyle.Render("…"))
	}
	b.WriteString(StyleValue.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")

	return b.String()
}
