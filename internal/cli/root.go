package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/app"
	"github.com/fastygo/taskclient/internal/config"
)

var (
	verbose     bool
	apiURL      string
	storeDriver string

	rootCmd = &cobra.Command{
		Use:   "taskctl",
		Short: "taskctl - command line client for the task API",
		Long: `taskctl signs in to a task API, keeps the session on disk and manages
your tasks: list, filter, page, create, edit, toggle and delete.

Run "taskctl shell" for an interactive session that keeps the task view fresh.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// openApp builds the client a command runs against.
	openApp = defaultOpenApp
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Session store: bolt, redis or memory (overrides STORE_DRIVER)")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		var shown shownError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func defaultOpenApp(ctx context.Context, out io.Writer) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(apiURL, "/")
	}
	if storeDriver != "" {
		cfg.Store.Driver = strings.ToLower(storeDriver)
	}
	if verbose {
		cfg.Logger.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{Out: out})
}

type appRunner func(cmd *cobra.Command, args []string, a *app.App) error

// withApp opens the client for one command and shuts it down afterwards.
func withApp(run appRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(context.Background()); cerr != nil {
				a.Logger.Warn("shutdown failed", zap.Error(cerr))
			}
		}()
		return run(cmd, args, a)
	}
}

// shownError marks an error the notification feed has already printed.
type shownError struct{ err error }

func (e shownError) Error() string { return e.err.Error() }
func (e shownError) Unwrap() error { return e.err }

// failed prints per-field messages of err and marks it as shown. Use it for
// operations that notify on failure.
func failed(w io.Writer, err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) && len(dErr.Fields) > 0 {
		printFieldErrors(w, dErr.Fields)
	}
	return shownError{err: err}
}

func printFieldErrors(w io.Writer, fields domain.FieldErrors) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}
