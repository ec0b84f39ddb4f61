// Package host is the runtime the native commands live in.
//
// An [App] owns three registries:
//
//   - managed state, keyed by Go type and fetched with [State];
//   - named webview windows ([Window]), each with its own event channel;
//   - commands, invoked by name with a JSON argument object.
//
// Plugins ([Plugin]) bundle commands and state and are installed with [App.Plugin]. Plugins that also
// implement [io.Closer] are closed by [App.Close] in reverse install order.
//
// Events emitted on a window are delivered synchronously to its listeners, so an emit that returns nil has
// reached every listener registered at that moment.
package host
