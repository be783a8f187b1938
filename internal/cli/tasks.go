package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
	"github.com/nhle/taskdesk/internal/session"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("id", fmt.Sprintf("invalid task id %q", s))
	}
	return id, nil
}

func newTasksCmd(env *Env, flags *rootFlags) *cobra.Command {
	tasksCmd := &cobra.Command{Use: "tasks", Short: "Manage tasks"}

	tasksCmd.AddCommand(
		newTasksListCmd(env, flags),
		newTasksAddCmd(env, flags),
		newTasksEditCmd(env, flags),
		newTasksCompleteCmd(env, flags, "done", true),
		newTasksCompleteCmd(env, flags, "undone", false),
		newTasksRemoveCmd(env, flags),
	)
	return tasksCmd
}

func newTasksListCmd(env *Env, flags *rootFlags) *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			res := rt.tasks.Load(cmd.Context())
			if !res.Success {
				return failed(res)
			}

			var shown []model.Task
			for _, t := range res.Data.Tasks {
				if pending && t.Completed {
					continue
				}
				shown = append(shown, t)
			}
			if len(shown) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
				return nil
			}
			renderTasks(cmd.OutOrStdout(), shown)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "hide completed tasks")
	return cmd
}

// renderTasks prints tasks as a borderless table.
func renderTasks(w io.Writer, list []model.Task) {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		done := "[ ]"
		if t.Completed {
			done = "[x]"
		}
		rows = append(rows, []string{strconv.FormatInt(t.ID, 10), done, t.Title})
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers("ID", "DONE", "TITLE").
		Rows(rows...)
	_, _ = fmt.Fprintln(w, tbl.Render())
}

func printTask(w io.Writer, verb string, t model.Task) {
	_, _ = fmt.Fprintf(w, "%s %d: %s\n", verb, t.ID, t.Title)
}

func newTasksAddCmd(env *Env, flags *rootFlags) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			res := rt.tasks.Create(cmd.Context(), strings.Join(args, " "), description)
			if !res.Success {
				return failed(res)
			}
			printTask(cmd.OutOrStdout(), "created", *res.Data)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional details")
	return cmd
}

func newTasksEditCmd(env *Env, flags *rootFlags) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("description") {
				return apperr.Invalid("title", "nothing to change: pass --title or --description")
			}

			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			// Validate the session once for both requests.
			ctx := cmd.Context()
			s := rt.sessions.GetSession(ctx)
			if s == nil {
				return apperr.NotAuthenticated("Not authenticated")
			}
			ctx = session.NewContext(ctx, s)

			current := rt.tasks.Get(ctx, id)
			if !current.Success {
				return failed(current)
			}

			task := *current.Data
			newTitle, newDescription := task.Title, task.DescriptionText()
			if cmd.Flags().Changed("title") {
				newTitle = title
			}
			if cmd.Flags().Changed("description") {
				newDescription = description
			}

			res := rt.tasks.Update(ctx, task, newTitle, newDescription)
			if !res.Success {
				return failed(res)
			}
			printTask(cmd.OutOrStdout(), "updated", *res.Data)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	return cmd
}

func newTasksCompleteCmd(env *Env, flags *rootFlags, use string, completed bool) *cobra.Command {
	short := "Mark a task as done"
	if !completed {
		short = "Mark a task as not done"
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			res := rt.tasks.SetCompleted(cmd.Context(), id, completed)
			if !res.Success {
				return failed(res)
			}
			printTask(cmd.OutOrStdout(), use, *res.Data)
			return nil
		},
	}
}

func newTasksRemoveCmd(env *Env, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			res := rt.tasks.Delete(cmd.Context(), id)
			if !res.Success {
				return failed(res)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
			return nil
		},
	}
}
