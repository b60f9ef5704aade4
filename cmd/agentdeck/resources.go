package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/pkg/app"
	"github.com/agentdeck/agentdeck/pkg/types"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Inspect backend agents",
}

var agentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			list, err := a.Agents(ctx)
			if err != nil {
				return friendlyErr(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tMODEL\tUPDATED")
			for _, agent := range list.Agents {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					agent.Name, agent.Status, agent.Model, agent.UpdatedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			fmt.Printf("\n%d agents\n", list.TotalCount)
			return nil
		})
	},
}

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Work with tasks extracted from email",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			list, err := a.Tasks(ctx)
			if err != nil {
				return friendlyErr(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATE\tIMPORTANT\tTITLE")
			for _, t := range list.Tasks {
				important := ""
				if t.Important {
					important = "★"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.State, important, t.Title)
			}
			w.Flush()
			fmt.Printf("\n%d tasks\n", list.TotalCount)
			return nil
		})
	},
}

var taskImportantCmd = &cobra.Command{
	Use:   "important <task-id> <true|false>",
	Short: "Set or clear the important flag on a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			important := args[1] == "true"
			workflowID, _ := cmd.Flags().GetString("workflow")
			if err := a.MarkTaskImportance(ctx, args[0], important, workflowID); err != nil {
				return friendlyErr(err)
			}
			if important {
				fmt.Println("✓ Task marked important")
			} else {
				fmt.Println("✓ Task marked not important")
			}
			return nil
		})
	},
}

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Inspect workflows and their runs",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			list, err := a.Workflows(ctx)
			if err != nil {
				return friendlyErr(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS")
			for _, wf := range list.Workflows {
				fmt.Fprintf(w, "%s\t%s\t%s\n", wf.ID, wf.Name, wf.Status)
			}
			w.Flush()
			return nil
		})
	},
}

var workflowRunsCmd = &cobra.Command{
	Use:   "runs <workflow-id>",
	Short: "List executions of one workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			list, err := a.API.ListWorkflowExecutions(ctx, args[0], types.DefaultPage)
			if err != nil {
				return friendlyErr(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tERROR")
			for _, e := range list.Executions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.ID, e.Status, e.StartedAt.Format("2006-01-02 15:04"), e.Error)
			}
			w.Flush()
			return nil
		})
	},
}

var workflowSummaryCmd = &cobra.Command{
	Use:   "summary <workflow-id>",
	Short: "Show aggregate counters for one workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			s, err := a.WorkflowSummary(ctx, args[0])
			if err != nil {
				return friendlyErr(err)
			}
			fmt.Printf("Runs: %d total, %d active, %d failed\n",
				s.TotalRuns, s.ActiveRuns, s.FailedRuns)
			fmt.Printf("Emails processed: %d\nTasks created: %d\nPending reviews: %d\n",
				s.EmailsTotal, s.TasksTotal, s.PendingReviews)
			return nil
		})
	},
}

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Search processed email",
}

var emailSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search emails by text (repeats the last search when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}

			prefs := a.Preferences()
			q := prefs.LastEmailQuery
			if len(args) == 1 {
				q = args[0]
			}
			if q == "" {
				return fmt.Errorf("no query given and no previous search to repeat")
			}

			list, err := a.Emails(ctx, q)
			if err != nil {
				return friendlyErr(err)
			}

			if q != prefs.LastEmailQuery {
				prefs.LastEmailQuery = q
				if err := a.SavePreferences(prefs); err != nil {
					fmt.Fprintf(os.Stderr, "warning: could not save search history: %v\n", err)
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FROM\tSUBJECT\tRECEIVED")
			for _, e := range list.Emails {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.From, e.Subject, e.ReceivedAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			fmt.Printf("\n%d matches\n", list.TotalCount)
			return nil
		})
	},
}

var incidentCmd = &cobra.Command{
	Use:   "incident",
	Short: "List security incidents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			list, err := a.Incidents(ctx)
			if err != nil {
				return friendlyErr(err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEVERITY\tSUMMARY\tOCCURRED")
			for _, inc := range list.Incidents {
				fmt.Fprintf(w, "%s\t%s\t%s\n", inc.Severity, inc.Summary, inc.OccurredAt.Format("2006-01-02 15:04"))
			}
			w.Flush()
			return nil
		})
	},
}

func init() {
	agentCmd.AddCommand(agentListCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskImportantCmd)
	taskImportantCmd.Flags().String("workflow", "", "workflow whose summary this task affects")
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowRunsCmd)
	workflowCmd.AddCommand(workflowSummaryCmd)
	emailCmd.AddCommand(emailSearchCmd)
}
