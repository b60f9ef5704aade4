package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/agentdeck/agentdeck/pkg/api"
	"github.com/agentdeck/agentdeck/pkg/auth"
	"github.com/agentdeck/agentdeck/pkg/config"
	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/notify"
	"github.com/agentdeck/agentdeck/pkg/query"
	"github.com/agentdeck/agentdeck/pkg/store"
	"github.com/agentdeck/agentdeck/pkg/stream"
	"github.com/agentdeck/agentdeck/pkg/types"
)

// App wires the client stack together: one database, one auth store, one
// API client, one query cache, one notification store and one stream
// client per process.
type App struct {
	Config *config.Config
	DB     *store.BoltStore
	Auth   *auth.Store
	API    *api.Client
	Cache  *query.Cache
	Notify *notify.Store
	Stream *stream.Client
}

// New builds the full client stack from configuration. The stream client is
// created but not connected; callers that need realtime data call
// App.Stream.Connect themselves.
func New(cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	authStore, err := auth.NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{
		Config: cfg,
		DB:     db,
		Auth:   authStore,
		API:    api.NewClient(cfg.BackendURL, authStore.Token),
		Cache:  query.NewCache(query.CacheOptions{}),
		Notify: notify.NewStore(db, notify.Options{ToastTypes: cfg.ToastTypes}),
		Stream: stream.NewClient(cfg.StreamURL, authStore.Token, stream.Options{}),
	}
	return a, nil
}

// Close tears the stack down in reverse dependency order
func (a *App) Close() {
	a.Stream.Disconnect()
	a.Cache.Close()
	a.Notify.Close()
	a.DB.Close()
}

// Preferences are small client-side settings persisted across runs
type Preferences struct {
	DashboardTab   int    `json:"dashboard_tab"`
	LastEmailQuery string `json:"last_email_query"`
}

// Preferences loads the persisted preferences; absence yields the zero value
func (a *App) Preferences() Preferences {
	var p Preferences
	err := a.DB.GetPreferences(store.KeySyncPreferences, &p)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger := log.WithComponent("app")
		logger.Warn().Err(err).Msg("failed to load preferences")
	}
	return p
}

// SavePreferences persists the preferences
func (a *App) SavePreferences(p Preferences) error {
	return a.DB.PutPreferences(store.KeySyncPreferences, p)
}

// reqCtx bounds one API request with the configured timeout
func (a *App) reqCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.Config.RequestTimeout)
}

// listOpts is the failure policy for primary list views: retry with
// backoff, keep stale data on final failure.
func (a *App) listOpts() query.Options {
	return query.Options{Retry: a.Config.Retry.Policy()}
}

// widgetOpts is the failure policy for passive dashboard widgets: no retry,
// degrade to the given empty value.
func widgetOpts(fallback any) query.Options {
	return query.Options{Retry: query.NoRetry, ErrorFallback: fallback}
}

// KeyTasks etc. are the query keys shared by CLI commands and the TUI, so a
// mutation issued from one view invalidates the other's data.
var (
	KeyTasks     = query.NewKey("tasks")
	KeyAgents    = query.NewKey("agents")
	KeyWorkflows = query.NewKey("workflows")
	KeyIncidents = query.NewKey("incidents")
	KeyMetrics   = query.NewKey("system-metrics")
)

// Tasks returns the cached task list
func (a *App) Tasks(ctx context.Context) (*api.TaskList, error) {
	return query.FetchAs(ctx, a.Cache, KeyTasks, func(ctx context.Context) (*api.TaskList, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListTasks(ctx, types.DefaultPage)
	}, a.listOpts())
}

// Agents returns the cached agent list
func (a *App) Agents(ctx context.Context) (*api.AgentList, error) {
	return query.FetchAs(ctx, a.Cache, KeyAgents, func(ctx context.Context) (*api.AgentList, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListAgents(ctx, types.DefaultPage)
	}, a.listOpts())
}

// Workflows returns the cached workflow list
func (a *App) Workflows(ctx context.Context) (*api.WorkflowList, error) {
	return query.FetchAs(ctx, a.Cache, KeyWorkflows, func(ctx context.Context) (*api.WorkflowList, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListWorkflows(ctx, types.DefaultPage)
	}, a.listOpts())
}

// Incidents returns the cached incident list as a passive widget: on
// failure it degrades to an empty list instead of erroring the view.
func (a *App) Incidents(ctx context.Context) (*api.IncidentList, error) {
	return query.FetchAs(ctx, a.Cache, KeyIncidents, func(ctx context.Context) (*api.IncidentList, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListIncidents(ctx, types.DefaultPage)
	}, widgetOpts(&api.IncidentList{}))
}

// Metrics returns the cached system metrics widget
func (a *App) Metrics(ctx context.Context) (*types.SystemMetrics, error) {
	return query.FetchAs(ctx, a.Cache, KeyMetrics, func(ctx context.Context) (*types.SystemMetrics, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.SystemMetrics(ctx)
	}, widgetOpts(&types.SystemMetrics{}))
}

// Emails runs a cached email search for one query string
func (a *App) Emails(ctx context.Context, q string) (*api.EmailList, error) {
	key := query.NewKey("emails", q)
	return query.FetchAs(ctx, a.Cache, key, func(ctx context.Context) (*api.EmailList, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.SearchEmails(ctx, q, types.DefaultPage)
	}, a.listOpts())
}

// WorkflowSummary returns cached aggregates for one workflow
func (a *App) WorkflowSummary(ctx context.Context, workflowID string) (*types.WorkflowSummary, error) {
	key := query.NewKey("workflow-summary", workflowID)
	return query.FetchAs(ctx, a.Cache, key, func(ctx context.Context) (*types.WorkflowSummary, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.WorkflowSummary(ctx, workflowID)
	}, a.listOpts())
}

// SubscribeTasks attaches a live polling subscription to the task list
func (a *App) SubscribeTasks(interval time.Duration) (*query.Subscription, error) {
	opts := a.listOpts()
	opts.RefetchInterval = interval
	return a.Cache.Subscribe(KeyTasks, func(ctx context.Context) (any, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListTasks(ctx, types.DefaultPage)
	}, opts)
}

// SubscribeAgents attaches a live polling subscription to the agent list
func (a *App) SubscribeAgents(interval time.Duration) (*query.Subscription, error) {
	opts := a.listOpts()
	opts.RefetchInterval = interval
	return a.Cache.Subscribe(KeyAgents, func(ctx context.Context) (any, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListAgents(ctx, types.DefaultPage)
	}, opts)
}

// SubscribeWorkflows attaches a live polling subscription to the workflows
func (a *App) SubscribeWorkflows(interval time.Duration) (*query.Subscription, error) {
	opts := a.listOpts()
	opts.RefetchInterval = interval
	return a.Cache.Subscribe(KeyWorkflows, func(ctx context.Context) (any, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListWorkflows(ctx, types.DefaultPage)
	}, opts)
}

// SubscribeIncidents attaches a live polling subscription to the incident
// widget; it degrades to an empty list on failure.
func (a *App) SubscribeIncidents(interval time.Duration) (*query.Subscription, error) {
	opts := widgetOpts(&api.IncidentList{})
	opts.RefetchInterval = interval
	return a.Cache.Subscribe(KeyIncidents, func(ctx context.Context) (any, error) {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		return a.API.ListIncidents(ctx, types.DefaultPage)
	}, opts)
}

// MarkTaskImportance updates a task's important flag and invalidates every
// query whose data it affects.
func (a *App) MarkTaskImportance(ctx context.Context, taskID string, important bool, workflowID string) error {
	keys := []query.Key{KeyTasks}
	if workflowID != "" {
		keys = append(keys, query.NewKey("workflow-summary", workflowID))
	}
	m := a.Cache.NewMutation(keys...)
	return m.Mutate(ctx, func(ctx context.Context) error {
		ctx, cancel := a.reqCtx(ctx)
		defer cancel()
		_, err := a.API.UpdateTaskImportance(ctx, taskID, important)
		return err
	})
}
