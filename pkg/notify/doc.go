/*
Package notify maintains Agentdeck's bounded, persisted notification log.

The notification store is a process-wide singleton independent of the query
cache: producers (mutation handlers, stream events) call Add, and any number
of view subscribers (header bell, side panel, transient toast) observe the
log.

# Architecture

	┌──────────────────── NOTIFICATION STORE ──────────────────┐
	│                                                            │
	│  Producers ──► Add ──┬──► bounded list (cap 50, newest    │
	│                      │    first, oldest evicted)           │
	│                      ├──► persist (one bbolt transaction)  │
	│                      ├──► subscriber channels (buffered,   │
	│                      │    non-blocking fan-out)            │
	│                      └──► toast callback when the type is  │
	│                           in the configured toast set      │
	│                                                            │
	│  MarkAsRead / MarkAllAsRead / Remove / ClearAll            │
	│    pure list mutations, each persisted atomically          │
	│                                                            │
	│  UnreadCount: derived, count of read == false              │
	└────────────────────────────────────────────────────────────┘

# Persistence

The entire list is serialized after every mutation and rehydrated at
startup, timestamps included. Corrupt persisted content yields an empty
store rather than failing application boot.

# Lifecycle

Using a closed store returns ErrClosed: silent no-ops would hide wiring
bugs, so misuse fails fast.

Which types toast is configurable (Options.ToastTypes); the default set is
error, warning and success, with a 6 second auto-dismiss duration.
*/
package notify
