// Package main hosts the takeoutfix CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// each invocation to the internal packages: preflight checks, the workflow
// runner, the flat copy helper and the history ledger. Output meant for
// scripts (--json, unresolved sidecar listings) goes to stdout or stderr
// without log decoration; logs always go to stderr and the log file.
package main
