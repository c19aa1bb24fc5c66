// Package cli provides the interactive sgtrakt command-line client.
//
// It wires configuration, the local settings database, the trakt API client
// and the application services into a REPL. Network operations run in their
// own goroutines; their results arrive on the event bus and are printed by a
// subscriber, so the prompt never blocks on trakt.
//
// Key features:
//   - Connect / disconnect a trakt account (browser or pasted redirect)
//   - Check in to episodes and movies, resolving conflicts with cancel or wait
//   - Comment on and rate items
//   - Keep display titles for the items you use
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
