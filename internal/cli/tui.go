package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskdesk/internal/app"
	"github.com/nhle/taskdesk/internal/model"
)

func newTUICmd(env *Env, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), env, flags)
		},
	}
}

func runTUI(ctx context.Context, env *Env, flags *rootFlags) error {
	closeLog, err := setupTUILogging()
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := load(env, flags)
	if err != nil {
		return err
	}

	root := app.New(app.Deps{
		Client:     rt.client,
		Sessions:   rt.sessions,
		Config:     rt.cfg,
		ConfigPath: rt.configPath,
	})

	program := tea.NewProgram(root,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(env.Stdin),
		tea.WithOutput(env.Stdout),
	)
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

// setupTUILogging writes the standard logger to debug.log in the config
// directory when debugging, and discards it otherwise so log lines never
// corrupt the screen.
func setupTUILogging() (func(), error) {
	if os.Getenv(DebugEnv) == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}

	dir := model.ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	f, err := tea.LogToFile(filepath.Join(dir, "debug.log"), "taskdesk")
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	return func() { _ = f.Close() }, nil
}
