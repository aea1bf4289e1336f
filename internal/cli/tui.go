package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gridbooth/gridbooth/pkg/compose"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LayoutPickerModel - Interactive layout selection
// =============================================================================

// LayoutPickerModel is the bubbletea model for interactive layout selection.
type LayoutPickerModel struct {
	Layouts  []compose.Layout
	Cursor   int
	Selected *compose.Layout
	Height   int
	Offset   int
}

// NewLayoutPickerModel creates a new layout picker model over the catalog.
func NewLayoutPickerModel(layouts []compose.Layout) LayoutPickerModel {
	return LayoutPickerModel{
		Layouts: layouts,
		Cursor:  0,
		Height:  15,
		Offset:  0,
	}
}

func (m LayoutPickerModel) Init() tea.Cmd {
	return nil
}

func (m LayoutPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Layouts)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			l := m.Layouts[m.Cursor]
			m.Selected = &l
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m LayoutPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Layouts) {
		end = len(m.Layouts)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		l := m.Layouts[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		source := "built-in"
		if !l.Builtin {
			source = "config"
		}

		rows = append(rows, []string{
			cursor,
			l.ID,
			l.Name,
			fmt.Sprintf("%dx%d", l.Cols, l.Rows),
			strconv.Itoa(int(l.Cols * l.Rows)),
			l.Page.Label,
			source,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "ID", "Name", "Grid", "Photos", "Page", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Layouts) {
				return lipgloss.NewStyle()
			}

			base := lipgloss.NewStyle()
			if col == 6 {
				base = base.Foreground(colorDim)
			}

			if actualIdx == m.Cursor {
				if col == 6 {
					return base.Bold(true)
				}
				return base.Foreground(colorGreen).Bold(true)
			}
			if col == 6 {
				return base
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Layouts))))

	return b.String()
}

// pickLayout runs the interactive picker over the layout catalog and
// returns the chosen layout id. Quitting without a choice is an error so
// compose does not fall through to an unspecified grid.
func pickLayout() (string, error) {
	layouts := compose.Layouts()
	if len(layouts) == 0 {
		return "", fmt.Errorf("layout catalog is empty")
	}

	final, err := tea.NewProgram(NewLayoutPickerModel(layouts)).Run()
	if err != nil {
		return "", fmt.Errorf("run layout picker: %w", err)
	}

	picked, ok := final.(LayoutPickerModel)
	if !ok || picked.Selected == nil {
		return "", fmt.Errorf("no layout selected")
	}
	return picked.Selected.ID, nil
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
