/*
Package auth manages the Agentdeck user session.

The auth store owns the single Session instance and the persisted bearer
token. It is created once at startup, verifies any stored token against the
backend (fail-soft: a rejected token yields a clean logged-out state, it
never fails the boot), and feeds the current token to pkg/api via
Store.Token.

Route guarding is the caller's job: commands and views check
Session().IsAuthenticated and redirect to login. The store never does that
itself, and pkg/api never retries a 401.
*/
package auth
