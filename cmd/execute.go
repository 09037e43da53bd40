package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/client"
)

var executeFlags struct {
	serverURL      string
	apiKey         string
	email          string
	fullName       string
	course         string
	userIdentifier string
	username       string
	password       string
}

var executeCmd = &cobra.Command{
	Use:   "execute <action>",
	Short: "Submit one action to a running automation service.",
	Long: `Submits a single action (give_access, enroll_user, suspend_user or
delete_user) to a running service instance and prints the verdict. Admin
credentials default to LEARNYST_ADMIN_USERNAME / LEARNYST_ADMIN_PASSWORD.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := schemas.ActionKind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown action %q; one of: %v", args[0], schemas.KnownActionKinds)
		}

		username := executeFlags.username
		if username == "" {
			username = os.Getenv("LEARNYST_ADMIN_USERNAME")
		}
		password := executeFlags.password
		if password == "" {
			password = os.Getenv("LEARNYST_ADMIN_PASSWORD")
		}

		c := client.New(executeFlags.serverURL, executeFlags.apiKey)
		resp, err := c.Execute(cmd.Context(), client.ExecuteRequest{
			Action:         kind,
			Email:          executeFlags.email,
			FullName:       executeFlags.fullName,
			Course:         executeFlags.course,
			UserIdentifier: executeFlags.userIdentifier,
			Credentials: schemas.Credentials{
				Username: username,
				Password: password,
			},
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
		if !resp.Success {
			// Non-zero exit so shell callers can branch on the outcome.
			os.Exit(2)
		}
		return nil
	},
}

func init() {
	executeCmd.Flags().StringVar(&executeFlags.serverURL, "server", "http://localhost:5500", "base URL of the automation service")
	executeCmd.Flags().StringVar(&executeFlags.apiKey, "api-key", "", "service API key")
	executeCmd.Flags().StringVar(&executeFlags.email, "email", "", "learner email (give_access, enroll_user)")
	executeCmd.Flags().StringVar(&executeFlags.fullName, "full-name", "", "learner full name (enroll_user)")
	executeCmd.Flags().StringVar(&executeFlags.course, "course", "", "course code (see 'courses') or the course name as shown in the console")
	executeCmd.Flags().StringVar(&executeFlags.userIdentifier, "user", "", "account identifier (suspend_user, delete_user)")
	executeCmd.Flags().StringVar(&executeFlags.username, "admin-username", "", "target-site admin username")
	executeCmd.Flags().StringVar(&executeFlags.password, "admin-password", "", "target-site admin password")
	rootCmd.AddCommand(executeCmd)
}
