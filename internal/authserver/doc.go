// Package authserver receives OAuth 2.0 authorization code redirects on a loopback port.
//
// # Flow
//
// The frontend invokes start_auth_server and gets back http://localhost:{port}/callback. It registers that
// URL as the redirect URI and opens the provider's authorization page. When the browser is redirected to
// /callback?code=..., the code is emitted to the main window as an auth-callback event with payload
// {"code": "..."} before the browser gets its response. The frontend then invokes stop_auth_server.
//
// # Lifecycle
//
// At most one server runs at a time. The shutdown handle of the running server lives in [AuthState],
// which is managed state on the host app. Starting again replaces the handle; dropping the old handle
// shuts the old server down. Stopping takes the handle out of the slot and signals it.
//
// # Security
//
// The server binds 127.0.0.1 only. It does not check state, headers or origin, and it never exchanges the
// code for tokens.
package authserver
