package dashboard

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentdeck/agentdeck/pkg/notify"
	"github.com/agentdeck/agentdeck/pkg/query"
	"github.com/agentdeck/agentdeck/pkg/stream"
	"github.com/agentdeck/agentdeck/pkg/types"
)

// snapshotMsg carries the initial parallel fetch of every panel
type snapshotMsg struct {
	tasks     []types.Task
	agents    []types.Agent
	workflows []types.Workflow
	incidents []types.SecurityIncident
	err       error
}

// queryMsg carries one live query update for a panel
type queryMsg struct {
	key query.Key
	res query.Result
}

// streamMsg carries the connection state and latest workflow progress
type streamMsg struct {
	state    stream.State
	progress []types.WorkflowProgress
}

// toastMsg shows a transient notification banner
type toastMsg struct {
	toast notify.Toast
}

// toastExpiredMsg clears the banner after its auto-dismiss duration
type toastExpiredMsg struct {
	id string
}

// bellMsg updates the unread counter in the header
type bellMsg struct {
	unread int
}

// tickMsg drives the periodic stream-state refresh
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
