package dashboard

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/agentdeck/agentdeck/pkg/app"
	"github.com/agentdeck/agentdeck/pkg/log"
	"github.com/agentdeck/agentdeck/pkg/notify"
	"github.com/agentdeck/agentdeck/pkg/query"
)

// Run starts the dashboard TUI and blocks until the user quits. A panic in
// the view tears the screen down and re-mounts once; a second panic
// propagates as an error.
func Run(ctx context.Context, a *app.App) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = runOnce(ctx, a)
		if r, ok := err.(remountError); ok {
			logger := log.WithComponent("dashboard")
			logger.Error().Interface("panic", r.cause).Msg("dashboard crashed, remounting")
			continue
		}
		return err
	}
	return err
}

// remountError wraps a recovered panic from the TUI loop
type remountError struct {
	cause any
}

func (e remountError) Error() string {
	return fmt.Sprintf("dashboard panic: %v", e.cause)
}

func runOnce(ctx context.Context, a *app.App) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = remountError{cause: r}
		}
	}()

	if err := a.Stream.Connect(ctx); err != nil {
		logger := log.WithComponent("dashboard")
		logger.Warn().Err(err).Msg("stream already running")
	}

	p := tea.NewProgram(newModel(a), tea.WithAltScreen(), tea.WithContext(ctx))

	pumpCtx, stopPumps := context.WithCancel(ctx)
	defer stopPumps()

	// Live query subscriptions drive the panels after the first snapshot.
	subs, err := attachSubscriptions(a, p, pumpCtx)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range subs {
			s.Close()
		}
	}()

	attachNotifications(a, p, pumpCtx)

	// First paint: fetch every panel in parallel. Failures surface in the
	// snapshot; panels degrade per their own query policy afterwards.
	go func() {
		p.Send(fetchSnapshot(ctx, a))
	}()

	_, err = p.Run()
	return err
}

// fetchSnapshot loads all panels concurrently for the initial render
func fetchSnapshot(ctx context.Context, a *app.App) snapshotMsg {
	var snap snapshotMsg
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l, err := a.Tasks(gctx)
		if err != nil {
			return err
		}
		snap.tasks = l.Tasks
		return nil
	})
	g.Go(func() error {
		l, err := a.Agents(gctx)
		if err != nil {
			return err
		}
		snap.agents = l.Agents
		return nil
	})
	g.Go(func() error {
		l, err := a.Workflows(gctx)
		if err != nil {
			return err
		}
		snap.workflows = l.Workflows
		return nil
	})
	g.Go(func() error {
		l, err := a.Incidents(gctx)
		if err != nil {
			return err
		}
		snap.incidents = l.Incidents
		return nil
	})

	snap.err = g.Wait()
	return snap
}

// attachSubscriptions wires each panel's live query into the program
func attachSubscriptions(a *app.App, p *tea.Program, ctx context.Context) ([]*query.Subscription, error) {
	interval := a.Config.PollInterval

	specs := []struct {
		key       query.Key
		subscribe func() (*query.Subscription, error)
	}{
		{app.KeyTasks, func() (*query.Subscription, error) { return a.SubscribeTasks(interval) }},
		{app.KeyAgents, func() (*query.Subscription, error) { return a.SubscribeAgents(interval) }},
		{app.KeyWorkflows, func() (*query.Subscription, error) { return a.SubscribeWorkflows(interval) }},
		{app.KeyIncidents, func() (*query.Subscription, error) { return a.SubscribeIncidents(interval) }},
	}

	subs := make([]*query.Subscription, 0, len(specs))
	for _, spec := range specs {
		sub, err := spec.subscribe()
		if err != nil {
			for _, s := range subs {
				s.Close()
			}
			return nil, err
		}
		subs = append(subs, sub)

		go func(key query.Key, sub *query.Subscription) {
			for {
				select {
				case res, ok := <-sub.Updates():
					if !ok {
						return
					}
					p.Send(queryMsg{key: key, res: res})
				case <-ctx.Done():
					return
				}
			}
		}(spec.key, sub)
	}
	return subs, nil
}

// attachNotifications wires toasts and the unread bell into the program
func attachNotifications(a *app.App, p *tea.Program, ctx context.Context) {
	a.Notify.SetToastHandler(func(t notify.Toast) {
		p.Send(toastMsg{toast: t})
	})

	sub, err := a.Notify.Subscribe()
	if err != nil {
		logger := log.WithComponent("dashboard")
		logger.Warn().Err(err).Msg("notification store closed")
		return
	}
	go func() {
		defer a.Notify.Unsubscribe(sub)
		for {
			select {
			case _, ok := <-sub:
				if !ok {
					return
				}
				p.Send(bellMsg{unread: a.Notify.UnreadCount()})
			case <-ctx.Done():
				return
			}
		}
	}()
}
