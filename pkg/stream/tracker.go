package stream

import (
	"encoding/json"
	"sync"

	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/types"
)

// Tracker keeps the latest progress snapshot per workflow, fed from
// workflow_progress frames. Last write wins; there is no history.
type Tracker struct {
	mu         sync.RWMutex
	byWorkflow map[string]types.WorkflowProgress
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{byWorkflow: make(map[string]types.WorkflowProgress)}
}

// Apply records the progress carried by a workflow_progress message.
// Payloads that fail to decode are logged and dropped.
func (t *Tracker) Apply(msg Message) {
	var p types.WorkflowProgress
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		logger := log.WithWorkflowID(msg.WorkflowID)
		logger.Warn().Err(err).Msg("dropping undecodable progress payload")
		return
	}
	if p.WorkflowID == "" {
		p.WorkflowID = msg.WorkflowID
	}

	t.mu.Lock()
	t.byWorkflow[p.WorkflowID] = p
	t.mu.Unlock()
}

// Get returns the latest snapshot for one workflow
func (t *Tracker) Get(workflowID string) (types.WorkflowProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.byWorkflow[workflowID]
	return p, ok
}

// All returns a copy of every tracked snapshot
func (t *Tracker) All() []types.WorkflowProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.WorkflowProgress, 0, len(t.byWorkflow))
	for _, p := range t.byWorkflow {
		out = append(out, p)
	}
	return out
}

// Forget drops the snapshot for one workflow, e.g. after completion
func (t *Tracker) Forget(workflowID string) {
	t.mu.Lock()
	delete(t.byWorkflow, workflowID)
	t.mu.Unlock()
}
