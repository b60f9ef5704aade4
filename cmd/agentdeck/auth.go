package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/pkg/app"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Sign in to the backend",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			reader := bufio.NewReader(os.Stdin)

			username := ""
			if len(args) == 1 {
				username = args[0]
			} else {
				fmt.Print("Username: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				username = strings.TrimSpace(line)
			}

			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				fmt.Print("Password: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}

			if err := a.Auth.Login(ctx, a.API, username, password); err != nil {
				return friendlyErr(err)
			}
			fmt.Printf("✓ Signed in as %s\n", a.Auth.Session().Username)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := a.Auth.Logout(); err != nil {
				return err
			}
			fmt.Println("✓ Signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			sess := a.Auth.Session()
			if !sess.IsAuthenticated {
				fmt.Println("Not signed in")
				return nil
			}
			fmt.Printf("%s (%s)\n", sess.Username, sess.UserID)
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
}
