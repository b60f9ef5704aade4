package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/agentdeck/agentdeck/pkg/types"
)

// LoginRequest is the credentials payload for Login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and user identity
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// VerifyResponse is the result of a token verification
type VerifyResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// AgentList is the agents list envelope
type AgentList struct {
	Agents     []types.Agent `json:"agents"`
	TotalCount int           `json:"total_count"`
}

// TaskList is the tasks list envelope
type TaskList struct {
	Tasks      []types.Task `json:"tasks"`
	TotalCount int          `json:"total_count"`
}

// WorkflowList is the workflows list envelope
type WorkflowList struct {
	Workflows  []types.Workflow `json:"workflows"`
	TotalCount int              `json:"total_count"`
}

// ExecutionList is the workflow executions list envelope
type ExecutionList struct {
	Executions []types.WorkflowExecution `json:"executions"`
	TotalCount int                       `json:"total_count"`
}

// EmailList is the email search result envelope
type EmailList struct {
	Emails     []types.EmailMessage `json:"emails"`
	TotalCount int                  `json:"total_count"`
}

// IncidentList is the security incidents list envelope
type IncidentList struct {
	Incidents  []types.SecurityIncident `json:"incidents"`
	TotalCount int                      `json:"total_count"`
}

// Login authenticates and returns a bearer token
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.request(ctx, http.MethodPost, "/api/auth/login",
		nil, &LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyToken validates the current token and returns the user it belongs to
func (c *Client) VerifyToken(ctx context.Context) (*VerifyResponse, error) {
	var resp VerifyResponse
	if err := c.request(ctx, http.MethodGet, "/api/auth/verify", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAgents returns registered agents
func (c *Client) ListAgents(ctx context.Context, page types.Page) (*AgentList, error) {
	var resp AgentList
	if err := c.request(ctx, http.MethodGet, "/api/agents", pageQuery(page.Limit, page.Offset), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasks returns tasks extracted from processed email
func (c *Client) ListTasks(ctx context.Context, page types.Page) (*TaskList, error) {
	var resp TaskList
	if err := c.request(ctx, http.MethodGet, "/api/tasks", pageQuery(page.Limit, page.Offset), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTaskImportance flips the important flag on a task
func (c *Client) UpdateTaskImportance(ctx context.Context, taskID string, important bool) (*types.Task, error) {
	var resp types.Task
	body := map[string]bool{"important": important}
	if err := c.request(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(taskID)+"/importance", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListWorkflows returns workflow definitions
func (c *Client) ListWorkflows(ctx context.Context, page types.Page) (*WorkflowList, error) {
	var resp WorkflowList
	if err := c.request(ctx, http.MethodGet, "/api/workflows", pageQuery(page.Limit, page.Offset), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListWorkflowExecutions returns runs for one workflow
func (c *Client) ListWorkflowExecutions(ctx context.Context, workflowID string, page types.Page) (*ExecutionList, error) {
	var resp ExecutionList
	path := "/api/workflows/" + url.PathEscape(workflowID) + "/executions"
	if err := c.request(ctx, http.MethodGet, path, pageQuery(page.Limit, page.Offset), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WorkflowSummary returns aggregate counters for one workflow
func (c *Client) WorkflowSummary(ctx context.Context, workflowID string) (*types.WorkflowSummary, error) {
	var resp types.WorkflowSummary
	path := "/api/workflows/" + url.PathEscape(workflowID) + "/summary"
	if err := c.request(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchEmails runs a backend email search
func (c *Client) SearchEmails(ctx context.Context, query string, page types.Page) (*EmailList, error) {
	q := pageQuery(page.Limit, page.Offset)
	q.Set("q", query)
	var resp EmailList
	if err := c.request(ctx, http.MethodGet, "/api/emails/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListIncidents returns security incidents from the backend sandbox
func (c *Client) ListIncidents(ctx context.Context, page types.Page) (*IncidentList, error) {
	var resp IncidentList
	if err := c.request(ctx, http.MethodGet, "/api/security/incidents", pageQuery(page.Limit, page.Offset), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SystemMetrics returns the backend health snapshot
func (c *Client) SystemMetrics(ctx context.Context) (*types.SystemMetrics, error) {
	var resp types.SystemMetrics
	if err := c.request(ctx, http.MethodGet, "/api/system/metrics", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
