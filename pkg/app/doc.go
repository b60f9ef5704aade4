// Package app assembles the Agentdeck client stack (storage, auth, API
// client, query cache, notifications, stream) and exposes the shared query
// keys and fetchers used by the CLI and the dashboard.
package app
