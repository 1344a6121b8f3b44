// Package cli provides the interactive mediavault command-line client.
//
// It wires configuration, the local asset cache, the API client, and an
// interactive REPL that supports online/offline operation. Typical flow:
// prompt for an access token, start a background connectivity watcher, and
// execute user commands.
//
// Key features:
//   - Login / Logout (token entry without echo)
//   - Upload files through signed URLs with integrity finalize
//   - List assets (with an offline cache fallback), rename, delete
//   - Share / revoke download grants
//   - Download through short-lived signed URLs
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
