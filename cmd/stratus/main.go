package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stratus/internal/app"
	"stratus/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp builds a fully wired application without starting the HTTP server.
// The caller must defer a.Stop() for commands that open the stores.
func newApp() (*app.App, error) {
	a, err := app.New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "stratus",
	Short: "Self-hosted file storage with a reconciling metadata index",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return a.Run()
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Reconcile the metadata index against the storage root",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		userID, _ := cmd.Flags().GetString("user-id")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		force, _ := cmd.Flags().GetBool("force")
		verbose, _ := cmd.Flags().GetBool("verbose")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		run, err := a.Reconcile().Trigger(cmd.Context(), model.ReconcileOptions{
			Mode:   model.ReconcileMode(mode),
			UserID: userID,
			DryRun: dryRun,
			Force:  force,
		})
		if err != nil {
			return err
		}

		stats := run.Stats
		if dryRun {
			fmt.Println("Dry run: no changes were applied.")
		}
		fmt.Printf("Mode:            %s\n", run.Options.Mode)
		fmt.Printf("Users scanned:   %d\n", stats.UsersScanned)
		fmt.Printf("Files on disk:   %d\n", stats.FilesOnDisk)
		fmt.Printf("Files in index:  %d\n", stats.FilesInIndex)
		fmt.Printf("Missing:         %d\n", stats.MissingInIndex)
		fmt.Printf("Orphaned:        %d\n", stats.OrphanedInIndex)
		fmt.Printf("Created:         %d\n", stats.RecordsCreated)
		fmt.Printf("Updated:         %d\n", stats.RecordsUpdated)
		fmt.Printf("Deleted:         %d\n", stats.RecordsDeleted)
		fmt.Printf("Shares removed:  %d\n", stats.SharesDeleted)

		if len(stats.Errors) > 0 {
			fmt.Printf("Errors:          %d\n", len(stats.Errors))
			if verbose {
				for _, e := range stats.Errors {
					fmt.Printf("  %s  %s: %s\n", e.Code, e.Path, e.Message)
				}
			}
		}
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create USERNAME PASSWORD",
	Short: "Create a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		isAdmin, _ := cmd.Flags().GetBool("admin")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		user, err := a.Users().Create(cmd.Context(), args[0], args[1], isAdmin)
		if err != nil {
			return err
		}

		fmt.Printf("Created user %s\n", user.Username)
		fmt.Printf("ID:    %s\n", user.ID)
		fmt.Printf("Token: %s\n", user.Token)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Stop()

		users, err := a.Users().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users.")
			return nil
		}

		for _, u := range users {
			role := ""
			if u.IsAdmin {
				role = "  [admin]"
			}
			fmt.Printf("%s  %s%s\n", u.ID, u.Username, role)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stratus v%s\n", app.Version)
	},
}

func init() {
	reindexCmd.Flags().String("mode", "audit", "Reconciliation mode: audit, sync, clean or full")
	reindexCmd.Flags().String("user-id", "", "Limit the pass to a single user")
	reindexCmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	reindexCmd.Flags().Bool("force", false, "Allow destructive modes (clean, full)")
	reindexCmd.Flags().BoolP("verbose", "v", false, "Print per-path errors")

	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().Bool("admin", false, "Grant admin privileges")
	userCmd.AddCommand(userListCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(versionCmd)
}
