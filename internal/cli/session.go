package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gridbooth/gridbooth/pkg/config"
	"github.com/gridbooth/gridbooth/pkg/session"
)

// sessionCommand creates the session command group for store inspection.
func (c *CLI) sessionCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the kiosk session store",
		Long: `Inspect the kiosk session store.

Sessions track one booth visit from capture to print. The store backend
comes from the config file; the memory backend holds nothing across
processes, so inspection is only useful with the file or mongo backends.`,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ~/.config/gridbooth/booth.toml)")

	cmd.AddCommand(c.sessionListCommand(&configPath))
	cmd.AddCommand(c.sessionShowCommand(&configPath))
	cmd.AddCommand(c.sessionPurgeCommand(&configPath))

	return cmd
}

// sessionListCommand creates the "session list" subcommand.
func (c *CLI) sessionListCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			if len(sessions) == 0 {
				printInfo("No sessions")
				return nil
			}

			fmt.Println(sessionTable(sessions))
			return nil
		},
	}
}

// sessionShowCommand creates the "session show" subcommand.
func (c *CLI) sessionShowCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}
			if sess == nil {
				return fmt.Errorf("session %s not found", args[0])
			}

			out, err := json.MarshalIndent(sess, "", "  ")
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// sessionPurgeCommand creates the "session purge" subcommand.
func (c *CLI) sessionPurgeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openSessionStore(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			prog := newProgress(c.Logger)
			if err := store.Cleanup(cmd.Context()); err != nil {
				return fmt.Errorf("purge sessions: %w", err)
			}
			prog.done("Session store cleanup finished")

			printSuccess("Expired sessions removed")
			return nil
		},
	}
}

// openSessionStore loads the config and opens its session store.
func openSessionStore(ctx context.Context, configPath string) (session.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	store, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Session.Backend == "memory" {
		printWarning("Session backend is memory, a fresh process sees no sessions")
	}
	return store, nil
}

// sessionTable renders sessions as a bordered table, newest first.
func sessionTable(sessions []*session.Session) string {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		page := s.PageLabel
		if page == "" {
			page = "-"
		}
		composite := s.CompositeName
		if composite == "" {
			composite = "-"
		}
		rows = append(rows, []string{
			s.ID,
			string(s.State),
			fmt.Sprintf("%dx%d", s.Grid.Cols, s.Grid.Rows),
			page,
			formatRelativeTime(s.CreatedAt),
			composite,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "State", "Grid", "Page", "Created", "Composite").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 && row < len(sessions) {
				switch sessions[row].State {
				case session.StatePrinted:
					return StyleSuccess
				case session.StateComposed:
					return StyleHighlight
				default:
					return StyleDim
				}
			}
			return StyleValue
		})

	return t.Render()
}
