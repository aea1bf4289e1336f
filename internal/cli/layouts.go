package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gridbooth/gridbooth/pkg/compose"
)

// layoutsCommand creates the layouts command for inspecting the catalog.
func (c *CLI) layoutsCommand() *cobra.Command {
	var resolve string

	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List the layout catalog",
		Long: `List the built-in and configured page layouts.

Each layout binds a grid shape to a physical print page. Layout ids are
accepted by 'compose --grid-id' and by the HTTP API. With --resolve, an
arbitrary COLSxROWS shape is resolved through the page-size fallback
chain instead, the same way composition does when no layout matches.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if resolve != "" {
				return runResolve(resolve)
			}
			fmt.Println(layoutTable(compose.Layouts()))
			return nil
		},
	}

	cmd.Flags().StringVar(&resolve, "resolve", "", "resolve a COLSxROWS shape to a page size, e.g. 3x2")

	return cmd
}

// layoutTable renders the catalog as a bordered table.
func layoutTable(layouts []compose.Layout) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(layouts))
	for _, l := range layouts {
		source := "built-in"
		if !l.Builtin {
			source = "config"
		}
		rows = append(rows, []string{
			l.ID,
			l.Name,
			fmt.Sprintf("%dx%d", l.Cols, l.Rows),
			strconv.Itoa(int(l.Cols * l.Rows)),
			l.Page.Label,
			source,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Grid", "Photos", "Page", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			switch col {
			case 0:
				return StyleHighlight
			case 5:
				return StyleDim
			default:
				return StyleValue
			}
		})

	return t.Render()
}

// runResolve resolves a grid shape the same way composition does and
// prints the chosen page.
func runResolve(shape string) error {
	cols, rows, err := parseShape(shape)
	if err != nil {
		return err
	}

	grid := compose.GridSpec{Cols: cols, Rows: rows}
	page := compose.ResolvePageSize(grid)

	printKeyValue("Grid", fmt.Sprintf("%dx%d (%d photos)", cols, rows, grid.Cells()))
	printKeyValue("Page", page.Label)
	printKeyValue("Size", fmt.Sprintf("%g x %g in", page.WidthIn, page.HeightIn))
	return nil
}

// parseShape parses "COLSxROWS" into its two factors.
func parseShape(s string) (cols, rows uint32, err error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid shape %q (expected COLSxROWS, e.g. 3x2)", s)
	}
	c, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid columns in %q", s)
	}
	r, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rows in %q", s)
	}
	if c == 0 || r == 0 {
		return 0, 0, fmt.Errorf("invalid shape %q: columns and rows must be positive", s)
	}
	return uint32(c), uint32(r), nil
}
