// Package cli wires the taskdesk command tree: the terminal UI plus
// scriptable account, task, chat and config commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdesk/internal/api"
	"github.com/nhle/taskdesk/internal/credential"
	"github.com/nhle/taskdesk/internal/exitcode"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/session"
	"github.com/nhle/taskdesk/internal/tasks"
)

// DebugEnv enables logging when set to a non-empty value.
const DebugEnv = "TASKDESK_DEBUG"

// Env holds the process streams and optional overrides.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Tokens replaces the system keyring when set.
	Tokens credential.TokenStore
}

// rootFlags are the persistent flags shared by every command.
type rootFlags struct {
	configPath string
	ephemeral  bool
}

// runtime is the service graph built from the loaded config.
type runtime struct {
	cfg        *model.AppConfig
	configPath string
	tokens     credential.TokenStore
	client     *api.Client
	sessions   *session.Manager
	tasks      *tasks.Service
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, env *Env) int {
	root := NewRootCmd(env)
	root.SetArgs(args)
	root.SetIn(env.Stdin)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(env.Stderr, "Error:", err)
		return exitcode.For(err)
	}
	return exitcode.Success
}

// NewRootCmd builds the command tree. Running it without a subcommand
// starts the terminal UI.
func NewRootCmd(env *Env) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "taskdesk",
		Short:         "Terminal client for the task service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// The terminal UI sets up its own log file.
			if cmd.Name() != "tui" && cmd.Parent() != nil {
				setupCLILogging(env.Stderr)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), env, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", model.DefaultConfigPath(), "config file path")
	root.PersistentFlags().BoolVar(&flags.ephemeral, "ephemeral", false, "keep the session in memory only")

	root.AddCommand(newTUICmd(env, flags))
	root.AddCommand(newLoginCmd(env, flags))
	root.AddCommand(newRegisterCmd(env, flags))
	root.AddCommand(newLogoutCmd(env, flags))
	root.AddCommand(newWhoamiCmd(env, flags))
	root.AddCommand(newTasksCmd(env, flags))
	root.AddCommand(newChatCmd(env, flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

// setupCLILogging sends the standard logger to stderr in debug mode and
// silences it otherwise.
func setupCLILogging(stderr io.Writer) {
	if os.Getenv(DebugEnv) != "" {
		log.SetOutput(stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// load reads the config and builds the client, session manager and task
// service.
func load(env *Env, flags *rootFlags) (*runtime, error) {
	cfg, err := model.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	tokens := env.Tokens
	switch {
	case tokens != nil:
	case flags.ephemeral:
		tokens = credential.NewMemoryStore()
	default:
		tokens = credential.NewKeyringStore(model.ConfigDir())
	}

	client, err := api.New(api.Options{
		BaseURL: cfg.API.BaseURL,
		ChatURL: cfg.Chat.URL,
		Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
	}, tokens)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(client, tokens, session.WithJWTSecret(cfg.Auth.JWTSecret))

	return &runtime{
		cfg:        cfg,
		configPath: flags.configPath,
		tokens:     tokens,
		client:     client,
		sessions:   sessions,
		tasks:      tasks.NewService(client, sessions),
	}, nil
}

// resultError keeps the user-facing message of a failed Result while
// exposing the typed cause for exit code mapping.
type resultError struct {
	msg   string
	cause error
}

func (e *resultError) Error() string { return e.msg }

func (e *resultError) Unwrap() error { return e.cause }

func failed[T any](r api.Result[T]) error {
	return &resultError{msg: r.Error, cause: r.Err()}
}
