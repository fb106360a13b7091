package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "sainmakosam",
		Short: "Sainma Kosam movie review site",
		Long:  `Serves the public review pages and the admin interface for writing them.`,
		// Running the binary without a subcommand starts the server.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	seedUsersCmd = &cobra.Command{
		Use:   "seed-users",
		Short: "DANGER: Delete all operator accounts and recreate them from a YAML file",
		Long: `Reads users from --file (users: [{username, password}]), deletes every
existing operator account and creates the listed ones with hashed passwords.`,
		RunE: runSeedUsers,
	}
	seedFile    string
	seedConfirm bool
)

func init() {
	seedUsersCmd.Flags().StringVarP(&seedFile, "file", "f", "users.yaml", "YAML file listing the accounts")
	seedUsersCmd.Flags().BoolVar(&seedConfirm, "yes", false, "confirm that all existing accounts may be deleted")

	rootCmd.AddCommand(serveCmd, seedUsersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
