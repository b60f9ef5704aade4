/*
Package types defines the shared data model for Agentdeck.

These are the wire shapes exchanged with the backend (agents, tasks,
workflows, email search results, security incidents, system metrics) plus the
client-owned records (Session, Notification, WorkflowProgress). The backend
owns the semantics of its resources; this package only fixes their JSON
encoding on the client side.

WorkflowProgress is transient: each stream push replaces the previous
snapshot for its WorkflowID, there is no merge logic.
*/
package types
