package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskclient/domain"
	"github.com/fastygo/taskclient/internal/app"
	"github.com/fastygo/taskclient/pkg/tokeninfo"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Args:  cobra.NoArgs,
	RunE:  withApp(runLogin),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  withApp(runRegister),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  withApp(runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE:  withApp(runWhoami),
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (or TASKCTL_PASSWORD)")

	registerCmd.Flags().String("name", "", "Display name")
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("password", "", "Password, at least 6 characters (or TASKCTL_PASSWORD)")
	registerCmd.Flags().String("confirm-password", "", "Repeat the password (defaults to --password)")
}

func runLogin(cmd *cobra.Command, args []string, a *app.App) error {
	email, _ := cmd.Flags().GetString("email")
	creds := domain.Credentials{Email: email, Password: password(cmd)}

	if _, err := a.Auth.Login(cmd.Context(), creds); err != nil {
		return failed(cmd.ErrOrStderr(), err)
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string, a *app.App) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	pass := password(cmd)
	confirm, _ := cmd.Flags().GetString("confirm-password")
	if !cmd.Flags().Changed("confirm-password") {
		confirm = pass
	}

	reg := domain.Registration{Name: name, Email: email, Password: pass, ConfirmPassword: confirm}
	if _, err := a.Auth.Register(cmd.Context(), reg); err != nil {
		return failed(cmd.ErrOrStderr(), err)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string, a *app.App) error {
	a.Auth.Logout()
	return nil
}

func runWhoami(cmd *cobra.Command, args []string, a *app.App) error {
	session := a.Auth.Session()
	if !session.IsAuthenticated() {
		return domain.ErrNotSignedIn
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s <%s> (id %d)\n", session.User.Name, session.User.Email, session.User.ID)

	info := tokeninfo.Inspect(session.Token)
	now := time.Now()
	switch {
	case !info.JWT:
		fmt.Fprintln(out, "token: opaque")
	case info.Expired(now):
		fmt.Fprintf(out, "token: expired at %s\n", info.ExpiresAt.Format(time.RFC3339))
	case info.ExpiresAt.IsZero():
		fmt.Fprintln(out, "token: no expiry")
	default:
		fmt.Fprintf(out, "token: expires in %s\n", info.Remaining(now).Round(time.Minute))
	}
	return nil
}

func password(cmd *cobra.Command) string {
	if pass, _ := cmd.Flags().GetString("password"); pass != "" {
		return pass
	}
	return os.Getenv("TASKCTL_PASSWORD")
}
