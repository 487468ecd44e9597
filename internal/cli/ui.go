package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached = lipgloss.NewStyle().Foreground(colorYellow)
	styleLive   = lipgloss.NewStyle().Foreground(colorGreen)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	styleLeft  = lipgloss.NewStyle().Foreground(colorBlue)
	styleRight = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconLive    = "live"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints graph statistics on a single line.
func printStats(w io.Writer, s mindmap.Snapshot, cached bool) {
	parts := []string{fmt.Sprintf("%d nodes", len(s.Nodes))}
	if len(s.Links) > 0 {
		parts = append(parts, fmt.Sprintf("%d links", len(s.Links)))
	}
	parts = append(parts, string(s.Kind))

	status, statusStyle := iconLive, styleLive
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(w, line+StyleDim.Render(" · ")+statusStyle.Render(status))
}

func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Outline
// =============================================================================

// outlineRow is one line of an indented graph listing.
type outlineRow struct {
	Node  mindmap.Node
	Depth int
}

// outline lists s depth-first from its roots. Tree children follow their
// Parent field; linked children follow links. Nodes reachable twice, or
// only through a cycle, are listed once.
func outline(s mindmap.Snapshot) []outlineRow {
	children := map[mindmap.Key][]mindmap.Key{}
	hasParent := map[mindmap.Key]bool{}
	byKey := make(map[mindmap.Key]mindmap.Node, len(s.Nodes))
	for _, n := range s.Nodes {
		byKey[n.Key] = n
	}
	if s.Kind == mindmap.KindLinked {
		for _, l := range s.Links {
			children[l.From] = append(children[l.From], l.To)
			hasParent[l.To] = true
		}
	} else {
		for _, n := range s.Nodes {
			if n.Parent != mindmap.NoKey {
				children[n.Parent] = append(children[n.Parent], n.Key)
				hasParent[n.Key] = true
			}
		}
	}

	var rows []outlineRow
	seen := map[mindmap.Key]bool{}
	var walk func(k mindmap.Key, depth int)
	walk = func(k mindmap.Key, depth int) {
		n, ok := byKey[k]
		if !ok || seen[k] {
			return
		}
		seen[k] = true
		rows = append(rows, outlineRow{Node: n, Depth: depth})
		for _, c := range children[k] {
			walk(c, depth+1)
		}
	}
	for _, n := range s.Nodes {
		if !hasParent[n.Key] {
			walk(n.Key, 0)
		}
	}
	for _, n := range s.Nodes {
		walk(n.Key, 0)
	}
	return rows
}

// formatRow renders an outline row as "<indent>[key] label  side  loc".
func formatRow(r outlineRow) string {
	n := r.Node
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", r.Depth))
	b.WriteString(StyleDim.Render(fmt.Sprintf("[%d] ", n.Key)))
	b.WriteString(StyleValue.Render(n.Label()))
	if n.IsGroup {
		b.WriteString(StyleDim.Render(" (group)"))
	}
	if n.Parent != mindmap.NoKey || r.Depth > 0 {
		switch n.Side() {
		case mindmap.Left:
			b.WriteString("  " + styleLeft.Render("◀ left"))
		case mindmap.Right:
			b.WriteString("  " + styleRight.Render("right ▶"))
		}
	}
	if n.Loc != "" {
		b.WriteString("  " + StyleDim.Render(n.Loc))
	}
	return b.String()
}

func printOutline(w io.Writer, s mindmap.Snapshot) {
	for _, r := range outline(s) {
		fmt.Fprintln(w, formatRow(r))
	}
}
