package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/editor"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

func (c *CLI) tuiCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit a graph interactively",
		Long: `Open the server's graph in an interactive outline.

Select a node and press "a" to add a child; the new node is laid out at
once. Changes stay local until you press "s".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := mindmap.ParseKind(kind)
			if err != nil {
				return err
			}
			ed, err := c.newEditor(k)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(newTUIModel(cmd.Context(), ed), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "tree", "graph kind: tree or linked")
	return cmd
}

// =============================================================================
// tuiModel - Interactive outline editor
// =============================================================================

type (
	loadedMsg struct{ err error }
	savedMsg  struct{ err error }
)

// tuiModel is the bubbletea model behind `mindgraph tui`.
type tuiModel struct {
	ctx    context.Context
	ed     *editor.Editor
	rows   []outlineRow
	cursor int
	offset int
	height int

	input  textinput.Model
	adding bool
	dir    mindmap.Direction // side for new children of the root

	busy   string
	status string
	err    error
	dirty  bool
}

func newTUIModel(ctx context.Context, ed *editor.Editor) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "title"
	ti.CharLimit = 120
	ti.Width = 40
	return tuiModel{ctx: ctx, ed: ed, input: ti, dir: mindmap.Right, height: 20, busy: "loading"}
}

func (m tuiModel) Init() tea.Cmd {
	return m.load()
}

func (m tuiModel) load() tea.Cmd {
	return func() tea.Msg { return loadedMsg{err: m.ed.Load(m.ctx)} }
}

func (m tuiModel) save() tea.Cmd {
	return func() tea.Msg { return savedMsg{err: m.ed.Save(m.ctx)} }
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.busy, m.err = "", msg.err
		if msg.err == nil {
			m.status, m.dirty = "loaded", false
		}
		m.refresh()
		return m, nil
	case savedMsg:
		m.busy, m.err = "", msg.err
		if msg.err == nil {
			m.status, m.dirty = "saved", false
		}
		m.refresh()
		return m, nil
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		return m, nil
	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "tab":
		m.dir = m.dir.Opposite()
	case "a", "enter":
		if _, ok := m.selected(); !ok || m.busy != "" {
			return m, nil
		}
		m.adding, m.err = true, nil
		m.input.SetValue("")
		return m, m.input.Focus()
	case "l":
		if err := m.ed.Layout(m.ctx); err != nil {
			m.err = err
		} else {
			m.status, m.dirty = "laid out", true
		}
		m.refresh()
	case "s":
		if m.busy == "" {
			m.busy = "saving"
			return m, m.save()
		}
	case "r":
		if m.busy == "" {
			m.busy = "loading"
			return m, m.load()
		}
	}
	m.scroll()
	return m, nil
}

func (m tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.adding = false
		m.input.Blur()
		return m, nil
	case "tab":
		m.dir = m.dir.Opposite()
		return m, nil
	case "enter":
		parent, _ := m.selected()
		ins, err := m.ed.Insert(m.ctx, mindmap.InsertNodeCommand{
			ParentKey: parent.Key,
			Fields:    mindmap.NodeFields{Title: m.input.Value(), Dir: m.dir},
		})
		if err != nil {
			m.err = err
			return m, nil
		}
		m.adding, m.err, m.dirty = false, nil, true
		m.status = fmt.Sprintf("added [%d] %s on the %s", ins.Node.Key, ins.Node.Label(), ins.Side)
		m.input.Blur()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh rebuilds the outline from the editor, keeping the selection on
// the same key where possible.
func (m *tuiModel) refresh() {
	prev, hadPrev := m.selected()
	m.rows = outline(m.ed.Snapshot())
	if hadPrev {
		for i, r := range m.rows {
			if r.Node.Key == prev.Key {
				m.cursor = i
				break
			}
		}
	}
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
	m.scroll()
}

func (m *tuiModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m tuiModel) selected() (mindmap.Node, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return mindmap.Node{}, false
	}
	return m.rows[m.cursor].Node, true
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("mindgraph"))
	if m.dirty {
		b.WriteString(StyleWarning.Render("  ● unsaved"))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  a add  tab side  l layout  s save  r reload  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		line := formatRow(m.rows[i])
		if i == m.cursor {
			b.WriteString(listSelectedStyle.Render("▸ ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(m.rows) == 0 && m.busy == "" {
		b.WriteString(listDimStyle.Render("  (empty graph)\n"))
	}

	b.WriteString("\n")
	if m.adding {
		parent, _ := m.selected()
		prompt := fmt.Sprintf("New child of [%d]", parent.Key)
		if parent.Parent == mindmap.NoKey {
			prompt += fmt.Sprintf(" (%s)", m.dir)
		}
		b.WriteString(StyleHighlight.Render(prompt) + " " + m.input.View() + "\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(StyleError.Render("✗ " + m.err.Error()))
	case m.busy != "":
		b.WriteString(StyleDim.Render(m.busy + "…"))
	case m.status != "":
		b.WriteString(StyleSuccess.Render("✓ " + m.status))
	}
	b.WriteString("\n")
	return b.String()
}
