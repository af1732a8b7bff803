package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/app"
	"github.com/fastygo/taskclient/internal/router"
)

var errNothingToChange = errors.New("nothing to change: pass --title, --description or --status")

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"t"},
	Short:   "Manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  withApp(runTasksList),
}

var tasksShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTasksShow),
}

var tasksAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runTasksAdd),
}

var tasksEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change a task's title, description or status",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTasksEdit),
}

var tasksRemoveCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(runTasksRemove),
}

var tasksToggleCmd = &cobra.Command{
	Use:   "toggle [task-id]",
	Short: "Flip a task between pending and completed",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTasksToggle),
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksShowCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksEditCmd)
	tasksCmd.AddCommand(tasksRemoveCmd)
	tasksCmd.AddCommand(tasksToggleCmd)

	tasksListCmd.Flags().String("status", string(domain.FilterAll), "Filter: all, pending or completed")
	tasksListCmd.Flags().Int("page", 1, "Page to show")
	tasksListCmd.Flags().Int("limit", 0, "Tasks per page (defaults to TASKS_PAGE_LIMIT)")

	tasksAddCmd.Flags().String("description", "", "Task details")

	tasksEditCmd.Flags().String("title", "", "New title")
	tasksEditCmd.Flags().String("description", "", "New description")
	tasksEditCmd.Flags().String("status", "", "New status: pending or completed")
}

// openTasks enters the task view, which requires a stored session.
func openTasks(a *app.App) error {
	if a.Router.Current().Path == router.PathTasks {
		return nil
	}
	if _, err := a.Router.Navigate(router.PathTasks, router.Push); err != nil {
		if errors.Is(err, router.ErrDenied) {
			return domain.ErrNotSignedIn
		}
		return err
	}
	return nil
}

func runTasksList(cmd *cobra.Command, args []string, a *app.App) error {
	if err := openTasks(a); err != nil {
		return err
	}
	if cmd.Flags().Changed("status") {
		raw, _ := cmd.Flags().GetString("status")
		status, ok := domain.ParseStatusFilter(raw)
		if !ok {
			return fmt.Errorf("unknown status %q (all, pending, completed)", raw)
		}
		a.SetFilter(status)
	}
	page, _ := cmd.Flags().GetInt("page")
	a.SetPage(page)

	q := a.Query()
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		q.Limit = float64(limit)
	}
	return listPage(cmd.Context(), cmd.OutOrStdout(), a, q)
}

func runTasksShow(cmd *cobra.Command, args []string, a *app.App) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := openTasks(a); err != nil {
		return err
	}
	task, err := a.Tasks.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTask(task))
	return nil
}

func runTasksAdd(cmd *cobra.Command, args []string, a *app.App) error {
	if err := openTasks(a); err != nil {
		return err
	}
	description, _ := cmd.Flags().GetString("description")
	draft := domain.TaskDraft{Title: strings.Join(args, " "), Description: description}

	task, err := a.Tasks.Create(cmd.Context(), draft)
	if err != nil {
		return failed(cmd.ErrOrStderr(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", task.ID)
	return nil
}

func runTasksEdit(cmd *cobra.Command, args []string, a *app.App) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	patch, err := patchFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := openTasks(a); err != nil {
		return err
	}
	if _, err := a.Tasks.Update(cmd.Context(), id, patch); err != nil {
		return failed(cmd.ErrOrStderr(), err)
	}
	return nil
}

func runTasksRemove(cmd *cobra.Command, args []string, a *app.App) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := openTasks(a); err != nil {
		return err
	}
	if err := a.Tasks.Remove(cmd.Context(), id); err != nil {
		return failed(cmd.ErrOrStderr(), err)
	}
	return nil
}

func runTasksToggle(cmd *cobra.Command, args []string, a *app.App) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := openTasks(a); err != nil {
		return err
	}
	if _, err := a.Tasks.ToggleStatus(cmd.Context(), id); err != nil {
		return failed(cmd.ErrOrStderr(), err)
	}
	return nil
}

func listPage(ctx context.Context, out io.Writer, a *app.App, q domain.TaskQuery) error {
	page, err := a.Tasks.List(ctx, q)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, renderPage(a.Filter.Status(), page))
	return err
}

func patchFromFlags(cmd *cobra.Command) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		patch.Title = &title
	}
	if cmd.Flags().Changed("description") {
		description, _ := cmd.Flags().GetString("description")
		patch.Description = &description
	}
	if cmd.Flags().Changed("status") {
		raw, _ := cmd.Flags().GetString("status")
		status := domain.TaskStatus(strings.TrimSpace(raw))
		patch.Status = &status
	}
	if patch.Title == nil && patch.Description == nil && patch.Status == nil {
		return patch, errNothingToChange
	}
	return patch, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}
