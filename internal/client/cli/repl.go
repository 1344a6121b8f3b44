package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Refresh(ctx context.Context) error
	Upload(ctx context.Context) error
	Download(ctx context.Context) error
	Rename(ctx context.Context) error
	Share(ctx context.Context) error
	Revoke(ctx context.Context) error
	Delete(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the mediavault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - login          — enter an access token
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - list           — list assets (offline falls back to the cache)
//	  - refresh        — re-fetch the listing from the server
//	  - upload         — upload a local file
//	  - download       — fetch an asset through a signed URL
//	  - rename         — rename an asset
//	  - share          — grant download access to another subject
//	  - revoke         — revoke a grant
//	  - delete         — delete an asset
//	  - logout         — drop the token
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("mv> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist, refresh, upload, download, rename, share, revoke, delete, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}
		case "exit", "quit":
			return
		case "login":
			if !a.isLoggedIn() {
				_ = a.Login(ctx)
				continue
			}
			printlnFn("Already logged in")
		case "logout":
			if a.isLoggedIn() {
				_ = a.Logout(ctx)
				continue
			}
			printlnFn("Not logged in")
		case "list", "l":
			if a.isLoggedIn() {
				_ = a.List(ctx)
				continue
			}
			printlnFn("Please login first")
		case "refresh":
			if a.isLoggedIn() {
				_ = a.Refresh(ctx)
				continue
			}
			printlnFn("Please login first")
		case "upload":
			if a.isLoggedIn() {
				_ = a.Upload(ctx)
				continue
			}
			printlnFn("Please login first")
		case "download":
			if a.isLoggedIn() {
				_ = a.Download(ctx)
				continue
			}
			printlnFn("Please login first")
		case "rename":
			if a.isLoggedIn() {
				_ = a.Rename(ctx)
				continue
			}
			printlnFn("Please login first")
		case "share":
			if a.isLoggedIn() {
				_ = a.Share(ctx)
				continue
			}
			printlnFn("Please login first")
		case "revoke":
			if a.isLoggedIn() {
				_ = a.Revoke(ctx)
				continue
			}
			printlnFn("Please login first")
		case "delete":
			if a.isLoggedIn() {
				_ = a.Delete(ctx)
				continue
			}
			printlnFn("Please login first")
		default:
			printlnFn(fmt.Sprintf("Unknown command: %s", cmd))
		}
	}
}
