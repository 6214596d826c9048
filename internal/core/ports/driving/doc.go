// Package driving lists the operations docrag offers to its front ends:
// the CLI, the chat TUI, the HTTP API and the MCP server all call these
// interfaces and never reach past them into adapters.
package driving
