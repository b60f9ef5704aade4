/*
Package api provides the Go client for the Agentdeck backend HTTP API.

The api package is the single point of outbound HTTP calls. It attaches
bearer-token authentication where a token is present, handles JSON
serialization, and normalizes error shapes so the rest of the sync layer can
branch on them.

# Architecture

	┌──────────────────── APPLICATION CODE ──────────────────────┐
	│                                                              │
	│  client := api.NewClient(baseURL, authStore.Token)          │
	│  tasks, err := client.ListTasks(ctx, types.DefaultPage)     │
	│                                                              │
	└──────────────────┬───────────────────────────────────────┘
	                   │
	┌──────────────────▼──── pkg/api ────────────────────────────┐
	│                                                              │
	│  ┌──────────────────────────────────────────────┐          │
	│  │           Resource Methods                    │          │
	│  │  - Login / VerifyToken                        │          │
	│  │  - ListAgents / ListTasks / ListWorkflows     │          │
	│  │  - SearchEmails / ListIncidents / Metrics     │          │
	│  │  - limit/offset pagination envelopes          │          │
	│  └──────────────────┬───────────────────────────┘          │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐          │
	│  │           request()                           │          │
	│  │  - Authorization: Bearer <token>              │          │
	│  │  - JSON encode/decode                         │          │
	│  │  - non-2xx → *Error{Status, Detail}           │          │
	│  │  - transport failure → ErrNetwork             │          │
	│  └──────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────────┘

# Error Handling

Three shapes reach callers:

  - *Error{Status, Detail}: the backend answered with a non-2xx status.
    The Detail field is the backend's human-readable message.
  - ErrNetwork (wrapped): no response was received at all.
  - plain errors: request construction or JSON decoding failed.

The client never retries and never redirects on 401. A 401 is surfaced
as *Error and the caller (pkg/auth, CLI commands) decides whether to clear
the session and prompt for login. Timeouts come from the caller's context;
nothing is hard-coded per request.
*/
package api
