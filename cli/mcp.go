// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for desktop assistant integration
package cli

import (
	"context"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio. Logs go to the app logger,
// never stdout, since stdout carries the protocol.
func MCPCommand(a *app.App, version string) error {
	if _, err := requireUser(a); err != nil {
		return err
	}

	a.Logger.Info("starting MCP server")
	server := handlers.NewServer(a.Records, version)
	return server.Run(context.Background(), &mcp.StdioTransport{})
}
