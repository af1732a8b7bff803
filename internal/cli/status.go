package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskclient/internal/app"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the API, the session store and the stored session",
	Args:  cobra.NoArgs,
	RunE:  withApp(runStatus),
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "taskctl %s\n", rootCmd.Version)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func runStatus(cmd *cobra.Command, args []string, a *app.App) error {
	status := a.Monitor.Check()
	_, err := io.WriteString(cmd.OutOrStdout(), renderStatus(status, a.Auth.Session().User, a.Router.Current().String()))
	return err
}
