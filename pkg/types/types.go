package types

import (
	"time"
)

// Session represents the authenticated user session.
// Exactly one instance exists per auth store.
type Session struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"is_authenticated"`
	// IsInitialized is true once startup token verification has completed,
	// whether or not it produced an authenticated session.
	IsInitialized bool `json:"is_initialized"`
}

// Agent represents a backend AI agent
type Agent struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Model       string            `json:"model,omitempty"`
	Status      AgentStatus       `json:"status"`
	Labels      map[string]string `json:"labels,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// AgentStatus represents the current state of an agent
type AgentStatus string

const (
	AgentStatusIdle    AgentStatus = "idle"
	AgentStatusRunning AgentStatus = "running"
	AgentStatusError   AgentStatus = "error"
	AgentStatusOffline AgentStatus = "offline"
)

// Task represents a unit of work extracted from an email by the backend
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	EmailID     string     `json:"email_id,omitempty"`
	WorkflowID  string     `json:"workflow_id,omitempty"`
	State       TaskState  `json:"state"`
	Important   bool       `json:"important"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskState represents the state of a task
type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateActive    TaskState = "active"
	TaskStateCompleted TaskState = "completed"
	TaskStateDismissed TaskState = "dismissed"
)

// Workflow represents a backend email-processing workflow definition
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Status      WorkflowStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

// WorkflowStatus represents the lifecycle state of a workflow
type WorkflowStatus string

const (
	WorkflowStatusIdle      WorkflowStatus = "idle"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

// WorkflowExecution represents a single run of a workflow
type WorkflowExecution struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Status     WorkflowStatus `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// WorkflowProgress is a transient snapshot of a running workflow, replaced
// wholesale on each server push (last write wins per WorkflowID).
type WorkflowProgress struct {
	WorkflowID         string         `json:"workflow_id"`
	CurrentPhase       string         `json:"current_phase"`
	PhaseProgressPct   float64        `json:"phase_progress_pct"`
	OverallProgressPct float64        `json:"overall_progress_pct"`
	EmailsProcessed    int            `json:"emails_processed"`
	TasksCreated       int            `json:"tasks_created"`
	Status             WorkflowStatus `json:"status"`
}

// WorkflowSummary aggregates execution counts for dashboard widgets
type WorkflowSummary struct {
	WorkflowID     string `json:"workflow_id"`
	TotalRuns      int    `json:"total_runs"`
	ActiveRuns     int    `json:"active_runs"`
	FailedRuns     int    `json:"failed_runs"`
	EmailsTotal    int    `json:"emails_total"`
	TasksTotal     int    `json:"tasks_total"`
	PendingReviews int    `json:"pending_reviews"`
}

// EmailMessage represents an email surfaced by the backend search endpoint
type EmailMessage struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	To         []string  `json:"to,omitempty"`
	Snippet    string    `json:"snippet,omitempty"`
	Important  bool      `json:"important"`
	ReceivedAt time.Time `json:"received_at"`
}

// SecurityIncident represents a sandbox/security event reported by the backend
type SecurityIncident struct {
	ID         string    `json:"id"`
	Severity   Severity  `json:"severity"`
	Summary    string    `json:"summary"`
	AgentID    string    `json:"agent_id,omitempty"`
	Resolved   bool      `json:"resolved"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Severity classifies security incidents
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SystemMetrics is the backend's self-reported health snapshot
type SystemMetrics struct {
	ActiveAgents     int     `json:"active_agents"`
	QueuedTasks      int     `json:"queued_tasks"`
	EmailsPerMinute  float64 `json:"emails_per_minute"`
	CPUPercent       float64 `json:"cpu_percent"`
	MemoryPercent    float64 `json:"memory_percent"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
	BackendVersion   string  `json:"backend_version"`
	StreamGeneration int64   `json:"stream_generation"`
}

// Notification is a user-facing event kept in the bounded notification log
type Notification struct {
	ID         string           `json:"id"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Timestamp  time.Time        `json:"timestamp"`
	Read       bool             `json:"read"`
	ActionURL  string           `json:"action_url,omitempty"`
	ActionText string           `json:"action_text,omitempty"`
	Data       map[string]any   `json:"data,omitempty"`
}

// NotificationType classifies notifications
type NotificationType string

const (
	NotificationEmail   NotificationType = "email"
	NotificationSync    NotificationType = "sync"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Page describes limit/offset pagination for list endpoints
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// DefaultPage is used when callers pass a zero Page
var DefaultPage = Page{Limit: 50, Offset: 0}
