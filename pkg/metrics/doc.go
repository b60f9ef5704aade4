/*
Package metrics provides Prometheus instrumentation for the Agentdeck sync
layer.

Collectors are package-level variables registered in init(), grouped by
subsystem:

  - API client: request counts by method/status, request duration.
  - Query cache: fetch results, shared in-flight joins, stale-response
    drops, retries, idle evictions.
  - Stream client: connects, reconnects, messages by type, drops by reason,
    active subscriber gauge.
  - Notifications: additions by type, unread gauge.

Handler() exposes the standard promhttp handler for embedding in a debug
listener. The backend's own observability is out of scope; these series
describe only the client process.
*/
package metrics
