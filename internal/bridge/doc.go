// Package bridge exposes an [host.App] over loopback HTTP so a frontend or the CLI can reach it.
//
// Routes:
//   - POST /invoke/{command} : run a command; the body is its JSON argument object
//   - GET /events?window=main : Server-Sent Events stream of a window's events
//   - GET /metrics : Prometheus exposition
//   - GET /health : liveness
//
// [Client] is the matching caller for /invoke.
package bridge
