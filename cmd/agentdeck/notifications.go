package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/pkg/app"
)

var notificationCmd = &cobra.Command{
	Use:     "notification",
	Aliases: []string{"notifications"},
	Short:   "Manage the local notification log",
}

var notificationListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show notifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			list := a.Notify.List()
			if len(list) == 0 {
				fmt.Println("No notifications")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tREAD\tTIME\tTITLE")
			for _, n := range list {
				read := ""
				if !n.Read {
					read = "●"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					n.ID[:8], n.Type, read, n.Timestamp.Format("01-02 15:04"), n.Title)
			}
			w.Flush()
			fmt.Printf("\n%d unread\n", a.Notify.UnreadCount())
			return nil
		})
	},
}

var notificationReadCmd = &cobra.Command{
	Use:   "read [notification-id]",
	Short: "Mark one notification (or all with --all) as read",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			all, _ := cmd.Flags().GetBool("all")
			if all {
				if err := a.Notify.MarkAllAsRead(); err != nil {
					return err
				}
				fmt.Println("✓ All notifications marked read")
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("pass a notification ID or --all")
			}
			if err := a.Notify.MarkAsRead(matchID(a, args[0])); err != nil {
				return err
			}
			fmt.Println("✓ Marked read")
			return nil
		})
	},
}

var notificationClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := a.Notify.ClearAll(); err != nil {
				return err
			}
			fmt.Println("✓ Notifications cleared")
			return nil
		})
	},
}

// matchID expands a short ID prefix to the full notification ID
func matchID(a *app.App, prefix string) string {
	for _, n := range a.Notify.List() {
		if len(n.ID) >= len(prefix) && n.ID[:len(prefix)] == prefix {
			return n.ID
		}
	}
	return prefix
}

func init() {
	notificationCmd.AddCommand(notificationListCmd)
	notificationCmd.AddCommand(notificationReadCmd)
	notificationCmd.AddCommand(notificationClearCmd)
	notificationReadCmd.Flags().Bool("all", false, "mark every notification read")
}
