package stream

import (
	"encoding/json"
	"time"
)

// Topic is the message-type discriminator carried in every stream frame.
type Topic string

// Topics pushed by the backend.
const (
	TopicConnected        Topic = "connected"
	TopicWorkflowProgress Topic = "workflow_progress"
	TopicPhaseUpdate      Topic = "phase_update"
	TopicLogEntry         Topic = "log_entry"
	TopicStatus           Topic = "status"
	TopicError            Topic = "error"
)

// knownTopics gates dispatch: frames with any other type discriminator are
// logged and ignored so newer backends can ship new topics without breaking
// older clients.
var knownTopics = map[Topic]bool{
	TopicConnected:        true,
	TopicWorkflowProgress: true,
	TopicPhaseUpdate:      true,
	TopicLogEntry:         true,
	TopicStatus:           true,
	TopicError:            true,
}

// Message is one decoded stream frame. Data holds the topic-specific payload
// still in wire form; subscribers decode what they need.
type Message struct {
	Topic      Topic           `json:"type"`
	WorkflowID string          `json:"workflow_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	ReceivedAt time.Time       `json:"-"`
}

// Filter selects which messages of a topic a subscriber wants. A nil filter
// matches everything.
type Filter func(Message) bool

// ForWorkflow returns a filter matching messages for one workflow
func ForWorkflow(workflowID string) Filter {
	return func(m Message) bool {
		return m.WorkflowID == workflowID
	}
}

// Handler is called for each matching message, in arrival order. Handlers
// run on the read loop and should hand long work off to another goroutine.
type Handler func(Message)
