/*
Package store provides Agentdeck's durable local key-value storage.

The store package wraps bbolt with three fixed buckets (auth, notifications
and preferences) holding JSON-encoded values. It backs the persisted pieces
of the sync layer: the bearer token, the bounded notification log, and user
sync preferences.

# Semantics

  - Absence of a key is not an error condition for callers: Get* returns
    ErrNotFound and callers fall back to defaults.
  - Every mutation runs in a single bbolt transaction, so a concurrent
    reader never observes a partial write.
  - Values are plain JSON; corruption is surfaced as an unmarshal error and
    handled fail-soft by the owning store (see pkg/notify).

The database file lives at <dataDir>/agentdeck.db with 0600 permissions.
*/
package store
