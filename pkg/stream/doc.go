/*
Package stream maintains Agentdeck's realtime WebSocket session to the
backend event stream: one shared connection, any number of subscribers.

# Architecture

	┌──────────────────── STREAM CLIENT ────────────────────────┐
	│                                                            │
	│  Connect ──► run loop:                                     │
	│      Disconnected ─► Connecting ─► Connected               │
	│            ▲              │             │                  │
	│            │        401/403: AuthFailed │ read frames      │
	│            │         (loop stops)       ▼                  │
	│            └────── 5s fixed delay ◄── connection lost      │
	│                                                            │
	│  frame ─► decode ─► known type? ─► tracker + dispatch      │
	│              │           └──no──► log + ignore             │
	│              └──malformed──────► log + drop                │
	│                                                            │
	│  Subscribe(topic, filter, handler) ──► unsubscribe func    │
	└────────────────────────────────────────────────────────────┘

# Lifecycle

The handshake is bounded by a 10s dial timeout and carries the current auth
token as a query parameter, re-read on every redial. An unexpected close
triggers reconnection after a fixed 5s delay, indefinitely; an explicit
Disconnect never does. A handshake rejected with 401/403 moves the client to
AuthFailed and stops the loop: retrying with the same bad token would only
hammer the backend.

# Dispatch

Frames are decoded and delivered to matching subscribers synchronously, in
arrival order. A malformed payload or an unknown type discriminator is
logged and skipped; the read loop survives both. Unsubscribing one handler
never affects the others and never touches the connection.
*/
package stream
