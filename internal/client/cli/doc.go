// Package cli provides the interactive daylog command-line client.
//
// It wires configuration, the local SQLite database, the server client (in
// remote mode) and the reconciliation engine into a REPL. Saves return as
// soon as the entry is stored; summaries arrive later and are printed when
// the engine reports them.
//
// Key features:
//   - write / show / summary for a single day
//   - month listings served from the cached view first, then refreshed
//   - monthly review, keywords and the year calendar
//   - export / import (file or URL) and server-side backups
//   - register / login / logout and an online/offline watcher in remote mode
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
