package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"beanbook/internal/adapters/beanparse"
	mcpadapter "beanbook/internal/adapters/mcp"
	"beanbook/internal/adapters/sqlquery"
	"beanbook/internal/config"
	"beanbook/internal/ledger"
	"beanbook/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("beanbook-mcp: %v", err)
	}
	logger := logging.Configure(cfg.Log.Level, cfg.Log.Format)
	mgr := ledger.NewManager(cfg, beanparse.New(), sqlquery.New(), logger)

	mcpServer := server.NewMCPServer(
		"beanbook-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check — returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, mgr)
	mcpadapter.RegisterWriteTools(mcpServer, mgr)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("beanbook-mcp: %v", err)
	}
}
