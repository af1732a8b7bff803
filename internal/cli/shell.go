package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/app"
	"github.com/fastygo/taskclient/internal/infrastructure/monitor"
	"github.com/fastygo/taskclient/usecase"
)

const shellHelp = `commands:
  login EMAIL PASSWORD             register NAME EMAIL PASSWORD [CONFIRM]
  logout                           whoami
  list                             filter all|pending|completed
  page N | next | prev             refresh
  show ID                          add TITLE...
  edit ID title|description|status VALUE...
  rm ID                            toggle ID
  status                           back
  help                             quit`

var errQuit = errors.New("quit")

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session that keeps the task view fresh",
	Args:  cobra.NoArgs,
	RunE:  withApp(runShell),
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string, a *app.App) error {
	ctx, stop := a.Lifecycle.SignalContext(cmd.Context())
	defer stop()

	sh := newShell(a)
	a.Monitor.Start()
	a.Refresher.OnUpdate(func(page *domain.TaskPage) {
		_, _ = io.WriteString(a.Feed, "\n"+renderPage(a.Filter.Status(), page))
	})
	a.Refresher.Start()

	fmt.Fprintln(a.Feed, `taskctl shell, type "help" for commands`)
	return sh.run(ctx, cmd.InOrStdin())
}

type shell struct {
	app        *app.App
	dispatcher *usecase.Dispatcher
}

func newShell(a *app.App) *shell {
	sh := &shell{app: a, dispatcher: usecase.NewDispatcher()}
	d := sh.dispatcher

	d.RegisterCommand("login", sh.login)
	d.RegisterCommand("register", sh.register)
	d.RegisterCommand("logout", sh.logout)
	d.RegisterCommand("filter", sh.filter)
	d.RegisterCommand("page", sh.page)
	d.RegisterCommand("next", sh.step(1))
	d.RegisterCommand("prev", sh.step(-1))
	d.RegisterCommand("refresh", sh.refresh)
	d.RegisterCommand("add", sh.add)
	d.RegisterCommand("edit", sh.edit)
	d.RegisterCommand("rm", sh.remove)
	d.RegisterCommand("toggle", sh.toggle)
	d.RegisterCommand("back", sh.back)

	d.RegisterQuery("list", sh.list)
	d.RegisterQuery("show", sh.show)
	d.RegisterQuery("whoami", sh.whoami)
	d.RegisterQuery("status", sh.status)
	d.RegisterQuery("help", func(context.Context, []string) (interface{}, error) { return shellHelp, nil })
	d.RegisterQuery("quit", func(context.Context, []string) (interface{}, error) { return nil, errQuit })
	d.RegisterQuery("exit", func(context.Context, []string) (interface{}, error) { return nil, errQuit })

	return sh
}

// run reads one command per line until EOF, "quit" or ctx ends.
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := sh.exec(ctx, line); errors.Is(err, errQuit) {
				return nil
			}
		}
	}
}

// exec runs one line and prints its result; failures are printed, not
// returned, so the session continues.
func (sh *shell) exec(ctx context.Context, line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		sh.printf("%s\n", errorStyle.Render("could not parse: "+err.Error()))
		return nil
	}
	if len(words) == 0 {
		return nil
	}

	result, err := sh.dispatcher.Dispatch(ctx, strings.ToLower(words[0]), words[1:])
	switch {
	case errors.Is(err, errQuit):
		return err
	case errors.Is(err, usecase.ErrUnknownCommand):
		sh.printf("unknown command %q, try \"help\"\n", words[0])
	case err != nil:
		sh.report(err)
	default:
		sh.print(result)
	}
	return nil
}

func (sh *shell) print(result interface{}) {
	switch v := result.(type) {
	case nil:
	case string:
		sh.printf("%s\n", v)
	case *domain.TaskPage:
		sh.printf("%s", renderPage(sh.app.Filter.Status(), v))
	case *domain.Task:
		sh.printf("%s", renderTask(v))
	case monitor.Status:
		sh.printf("%s", renderStatus(v, sh.app.Auth.Session().User, sh.app.Router.Current().String()))
	default:
		sh.printf("%v\n", v)
	}
}

// report prints what the notification feed has not already shown.
func (sh *shell) report(err error) {
	var shown shownError
	if errors.As(err, &shown) {
		var dErr *domain.Error
		if errors.As(err, &dErr) && len(dErr.Fields) > 0 {
			var b strings.Builder
			printFieldErrors(&b, dErr.Fields)
			sh.printf("%s", b.String())
		}
		return
	}
	sh.app.Logger.Debug("shell command failed", zap.Error(err))
	sh.printf("%s\n", errorStyle.Render(domain.Message(err)))
}

func (sh *shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(sh.app.Feed, format, args...)
}

func (sh *shell) login(ctx context.Context, args []string) (interface{}, error) {
	if len(args) != 2 {
		return nil, errors.New("usage: login EMAIL PASSWORD")
	}
	if _, err := sh.app.Auth.Login(ctx, domain.Credentials{Email: args[0], Password: args[1]}); err != nil {
		return nil, shownError{err: err}
	}
	return sh.list(ctx, nil)
}

func (sh *shell) register(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, errors.New("usage: register NAME EMAIL PASSWORD [CONFIRM]")
	}
	reg := domain.Registration{Name: args[0], Email: args[1], Password: args[2], ConfirmPassword: args[2]}
	if len(args) == 4 {
		reg.ConfirmPassword = args[3]
	}
	if _, err := sh.app.Auth.Register(ctx, reg); err != nil {
		return nil, shownError{err: err}
	}
	return sh.list(ctx, nil)
}

func (sh *shell) logout(context.Context, []string) (interface{}, error) {
	sh.app.Auth.Logout()
	return nil, nil
}

func (sh *shell) whoami(context.Context, []string) (interface{}, error) {
	session := sh.app.Auth.Session()
	if !session.IsAuthenticated() {
		return nil, domain.ErrNotSignedIn
	}
	return fmt.Sprintf("%s <%s> (id %d)", session.User.Name, session.User.Email, session.User.ID), nil
}

func (sh *shell) status(context.Context, []string) (interface{}, error) {
	return sh.app.Monitor.Check(), nil
}

func (sh *shell) list(ctx context.Context, _ []string) (interface{}, error) {
	if err := openTasks(sh.app); err != nil {
		return nil, err
	}
	return sh.app.Tasks.List(ctx, sh.app.Query())
}

func (sh *shell) filter(ctx context.Context, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.New("usage: filter all|pending|completed")
	}
	status, ok := domain.ParseStatusFilter(args[0])
	if !ok {
		return nil, fmt.Errorf("unknown status %q", args[0])
	}
	if err := openTasks(sh.app); err != nil {
		return nil, err
	}
	sh.app.SetFilter(status)
	return sh.list(ctx, nil)
}

func (sh *shell) page(ctx context.Context, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.New("usage: page N")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("invalid page %q", args[0])
	}
	sh.app.SetPage(n)
	return sh.list(ctx, nil)
}

func (sh *shell) step(delta int) usecase.Handler {
	return func(ctx context.Context, _ []string) (interface{}, error) {
		if cached, ok := sh.app.Tasks.Cached(sh.app.Query()); ok {
			last := max(cached.Pagination.TotalPages, 1)
			next := sh.app.Page() + delta
			if next < 1 || next > last {
				return "no more pages", nil
			}
		}
		sh.app.SetPage(sh.app.Page() + delta)
		return sh.list(ctx, nil)
	}
}

func (sh *shell) refresh(ctx context.Context, _ []string) (interface{}, error) {
	if err := openTasks(sh.app); err != nil {
		return nil, err
	}
	return sh.app.Tasks.Refresh(ctx, sh.app.Query())
}

func (sh *shell) show(ctx context.Context, args []string) (interface{}, error) {
	if len(args) != 1 {
		return nil, errors.New("usage: show ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return nil, err
	}
	if err := openTasks(sh.app); err != nil {
		return nil, err
	}
	return sh.app.Tasks.Get(ctx, id)
}

func (sh *shell) add(ctx context.Context, args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, errors.New("usage: add TITLE...")
	}
	if err := openTasks(sh.app); err != nil {
		return nil, err
	}
	if _, err := sh.app.Tasks.Create(ctx, domain.TaskDraft{Title: strings.Join(args, " ")}); err != nil {
		return nil, shownError{err: err}
	}
	return sh.list(ctx, nil)
}

func (sh *shell) edit(ctx context.Context, args []string) (interface{}, error) {
	if len(args) < 3 {
		return nil, errors.New("usage: edit ID title|description|status VALUE...")
	}
	id, err := parseID(args[0])
	if err != nil {
		return nil, err
	}
	value := strings.Join(args[2:], " ")
	var patch domain.TaskPatch
	switch strings.ToLower(args[1]) {
	case "title":
		patch.Title = &value
	case "description":
		patch.Description = &value
	case "status":
		status := domain.TaskStatus(value)
		patch.Status = &status
	default:
		return nil, fmt.Errorf("cannot edit %q", args[1])
	}
	if err := openTasks(sh.app); err != nil {
		return nil, err
	}
	if _, err := sh.app.Tasks.Update(ctx, id, patch); err != nil {
		return nil, shownError{err: err}
	}
	return sh.list(ctx, nil)
}

func (sh *shell) remove(ctx context.Context, args []string) (interface{}, error) {
	return sh.byID(ctx, "rm", args, func(id int64) error {
		return sh.app.Tasks.Remove(ctx, id)
	})
}

func (sh *shell) toggle(ctx context.Context, args []string) (interface{}, error) {
	return sh.byID(ctx, "toggle", args, func(id int64) error {
		_, err := sh.app.Tasks.ToggleStatus(ctx, id)
		return err
	})
}

func (sh *shell) byID(ctx context.Context, name string, args []string, run func(int64) error) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("usage: %s ID", name)
	}
	id, err := parseID(args[0])
	if err != nil {
		return nil, err
	}
	if err := openTasks(sh.app); err != nil {
		return nil, err
	}
	if err := run(id); err != nil {
		return nil, shownError{err: err}
	}
	return sh.list(ctx, nil)
}

func (sh *shell) back(ctx context.Context, _ []string) (interface{}, error) {
	if !sh.app.Router.Back() {
		return "already at the first view", nil
	}
	return "now at " + sh.app.Router.Current().String(), nil
}
