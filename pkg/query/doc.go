/*
Package query implements Agentdeck's keyed query cache: request
de-duplication, polling, retry policy and invalidation for data fetched from
the backend.

Every logical request is identified by a Key (name plus parameters, e.g.
"tasks" or "workflow-executions/wf-42"). The cache is a process-wide
singleton; views attach with Subscribe and observe {Data, Err, IsLoading}
snapshots.

# Architecture

	┌──────────────────── QUERY CACHE ─────────────────────────┐
	│                                                            │
	│  Fetch(key) ──► entry ──► in-flight? ──► join it           │
	│                     │          └───no──► start flight      │
	│                     │                                      │
	│  Refetch(key) ─────►│  supersede: new flight, seq++        │
	│  Invalidate(key) ──►│  (pending response will be dropped)  │
	│                     │                                      │
	│  flight completes ──► seq check ──► apply + push to subs   │
	│                            └─ stale ──► discard            │
	│                                                            │
	│  Subscription: initial fetch + ticker poll + Updates chan  │
	│  Sweeper: evicts entries with no subscribers (idle TTL)    │
	└────────────────────────────────────────────────────────────┘

# Ordering

At most one request per key is in flight at a time: overlapping callers
share the same flight and resolve to the same value. A manual Refetch (or
Invalidate) supersedes a pending poll instead of racing it: every request
carries a per-key sequence number, and a response is applied only when it
belongs to the most recently issued request. Anything older is discarded,
so a slow response can never overwrite newer data.

# Failure policy

Two per-call-site policies, chosen by whether stale or empty data is an
acceptable user-facing default for the view:

  - RetryList: up to 3 attempts with exponential backoff (1s base, doubling,
    30s cap). On final failure the last successful data is kept and Err is
    set (stale-but-displayed).
  - NoRetry + Options.ErrorFallback: a single attempt; on failure the named
    fallback value (usually an empty list) replaces the data and the error
    is suppressed. For passive dashboard widgets.

Mutations never retry. A Mutation invalidates its declared keys on success;
the caller surfaces failures to the user.
*/
package query
