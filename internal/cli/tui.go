package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/pipeline"
)

const (
	maxTextColumn = 28

	// headerRow is the row index lipgloss tables pass for the header.
	headerRow = -1
)

var (
	listDimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	tableHeadStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		plain bool
		src   sourceFlags
	)

	cmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Browse the laid out nodes and connectors",
		Long: `Lay out a node list and browse it in the terminal.

Each row shows a node's type, label, computed position and size. Press enter to
list the connectors leaving and entering the selected node with the anchors
they were routed through. --plain prints the tables without the interactive UI.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts pipeline.Options
			if err := src.apply(&opts, args[0], cmd.InOrStdin()); err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), args[0], opts, plain)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print tables instead of starting the interactive UI")
	src.register(cmd)

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, opts pipeline.Options, plain bool) error {
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	defer runner.Close()

	result, err := runner.Layout(ctx, opts)
	if err != nil {
		return err
	}
	m := newInspectModel(displayName(input), result.Diagram)

	if plain {
		_, err := fmt.Fprint(c.out, m.plain())
		return err
	}
	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// InspectModel - Interactive diagram browser
// =============================================================================

type nodeRow struct {
	id     int
	typ    string
	text   string
	x, y   float64
	w, h   float64
	fanOut int
	href   string
}

type connectorRow struct {
	from, to int
	route    string
	text     string
}

// InspectModel is the bubbletea model for browsing a diagram.
type InspectModel struct {
	Title  string
	Nodes  []nodeRow
	Cursor int
	Height int
	Offset int
	Detail bool

	width, height float64
	touching      map[int][]connectorRow
	connectors    int
}

func newInspectModel(title string, d *diagram.Diagram) InspectModel {
	m := InspectModel{
		Title:    title,
		Height:   15,
		width:    d.Width(),
		height:   d.Height(),
		touching: map[int][]connectorRow{},
	}
	for _, n := range d.Nodes() {
		b := n.BBox()
		m.Nodes = append(m.Nodes, nodeRow{
			id: n.ID(), typ: n.Type(), text: n.Text(),
			x: b.X, y: b.Y, w: b.Width, h: b.Height,
			href: n.Spec.Href,
		})
	}
	for _, cn := range d.Connectors() {
		r := cn.Route()
		row := connectorRow{
			from:  cn.From.ID(),
			to:    cn.To.ID(),
			route: r.From.String() + iconArrow + r.To.String(),
			text:  cn.Text,
		}
		m.touching[row.from] = append(m.touching[row.from], row)
		if row.to != row.from {
			m.touching[row.to] = append(m.touching[row.to], row)
		}
		m.connectors++
	}
	for i := range m.Nodes {
		for _, cr := range m.touching[m.Nodes[i].id] {
			if cr.from == m.Nodes[i].id {
				m.Nodes[i].fanOut++
			}
		}
	}
	return m
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-14, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(m.summary()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ connectors  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Nodes))
	b.WriteString(m.nodeTable(m.Offset, end, true))
	b.WriteString("\n")

	if m.Detail && len(m.Nodes) > 0 {
		n := m.Nodes[m.Cursor]
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render(fmt.Sprintf("node %d", n.id)))
		if n.href != "" {
			b.WriteString(" " + StyleLink.Render(n.href))
		}
		b.WriteString("\n")
		b.WriteString(m.connectorTable(m.touching[n.id]))
		b.WriteString("\n")
	}

	if len(m.Nodes) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Nodes))))
	}
	return b.String()
}

// plain renders every node and connector without cursor or paging.
func (m InspectModel) plain() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.Title) + " " + listDimStyle.Render(m.summary()) + "\n")
	b.WriteString(m.nodeTable(0, len(m.Nodes), false) + "\n")
	var all []connectorRow
	for _, n := range m.Nodes {
		for _, cr := range m.touching[n.id] {
			if cr.from == n.id {
				all = append(all, cr)
			}
		}
	}
	if len(all) > 0 {
		b.WriteString(m.connectorTable(all) + "\n")
	}
	return b.String()
}

func (m InspectModel) summary() string {
	return fmt.Sprintf("%s · %s · %gx%g", plural(len(m.Nodes), "node"), plural(m.connectors, "connector"), m.width, m.height)
}

func (m InspectModel) nodeTable(start, end int, cursor bool) string {
	rows := make([][]string, 0, end-start)
	for i := start; i < end; i++ {
		n := m.Nodes[i]
		mark := "  "
		if cursor && i == m.Cursor {
			mark = "▸ "
		}
		rows = append(rows, []string{
			mark, strconv.Itoa(n.id), n.typ, truncate(n.text, maxTextColumn),
			coord(n.x) + "," + coord(n.y), coord(n.w) + "x" + coord(n.h), strconv.Itoa(n.fanOut),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listDimStyle).
		Headers("", "ID", "Type", "Text", "Position", "Size", "Out").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeadStyle
			}
			if cursor && start+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 4 || col == 5 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func (m InspectModel) connectorTable(conns []connectorRow) string {
	if len(conns) == 0 {
		return listDimStyle.Render("  no connectors")
	}
	rows := make([][]string, 0, len(conns))
	for _, cr := range conns {
		rows = append(rows, []string{strconv.Itoa(cr.from), strconv.Itoa(cr.to), cr.route, truncate(cr.text, maxTextColumn)})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(listDimStyle).
		Headers("From", "To", "Route", "Label").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeadStyle
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// truncate flattens line breaks and shortens s to n runes.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// coord formats a coordinate with at most one decimal.
func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
