// Package server provides HTTP routing and middleware shared by the loopback servers of the host.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware
//
// [RequestLogger] logs one line per request, [Recoverer] turns handler panics into 500 responses, and
// [RateLimit] applies a token bucket from [golang.org/x/time/rate].
//
// # Current Usage
//
// The OAuth callback server (internal/authserver) registers a single [Handler] for /callback.
// The IPC bridge (internal/bridge) registers the invoke, events, metrics and health routes.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
