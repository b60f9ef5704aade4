/*
Package dashboard renders the Agentdeck terminal dashboard: a tabbed live
view over tasks, agents, workflows and security incidents.

# Architecture

	┌──────────────────────── DASHBOARD ────────────────────────┐
	│                                                            │
	│  query subscriptions ──┐                                   │
	│  stream state/progress ├──► tea.Program ──► tabbed view    │
	│  notification store ───┘      (messages)                   │
	│                                                            │
	│  key "r" ──► cache invalidate ──► pump delivers fresh data │
	│  key "m" ──► importance mutation ──► invalidated queries   │
	└────────────────────────────────────────────────────────────┘

The dashboard never fetches on its own: every panel is a query cache
subscription, so data shown here and in CLI commands stays consistent and a
mutation issued from either side refreshes both. A panic in the view loop
re-mounts the program once rather than losing the session.
*/
package dashboard
