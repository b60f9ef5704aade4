package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentdeck/agentdeck/pkg/app"
	"github.com/agentdeck/agentdeck/pkg/dashboard"
	"github.com/agentdeck/agentdeck/pkg/stream"
)

var watchCmd = &cobra.Command{
	Use:   "watch [workflow-id]",
	Short: "Follow live workflow progress and logs",
	Long: `Watch streams workflow progress and log lines from the backend until
interrupted. With a workflow ID only that workflow's events are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}

			var filter stream.Filter
			if len(args) == 1 {
				filter = stream.ForWorkflow(args[0])
			}

			unsubProgress := a.Stream.Subscribe(stream.TopicWorkflowProgress, filter, func(m stream.Message) {
				if p, ok := a.Stream.Progress().Get(m.WorkflowID); ok {
					fmt.Printf("[%s] %s %.0f%% (phase: %s %.0f%%) emails=%d tasks=%d\n",
						p.WorkflowID, p.Status, p.OverallProgressPct,
						p.CurrentPhase, p.PhaseProgressPct,
						p.EmailsProcessed, p.TasksCreated)
				}
			})
			defer unsubProgress()

			unsubLogs := a.Stream.Subscribe(stream.TopicLogEntry, filter, func(m stream.Message) {
				var entry struct {
					Level string `json:"level"`
					Line  string `json:"line"`
				}
				if err := json.Unmarshal(m.Data, &entry); err != nil {
					return
				}
				fmt.Printf("[%s] %s %s\n", m.WorkflowID, entry.Level, entry.Line)
			})
			defer unsubLogs()

			if err := a.Stream.Connect(ctx); err != nil {
				return err
			}
			fmt.Println("Watching... press Ctrl+C to stop")

			<-ctx.Done()
			fmt.Println("\nStopped")
			return nil
		})
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive terminal dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if err := requireAuth(a); err != nil {
				return err
			}
			return dashboard.Run(ctx, a)
		})
	},
}
