package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/foomo/onenote-mcp/mcp"
	"github.com/foomo/onenote-mcp/onenote"
	"github.com/foomo/onenote-mcp/service"
)

func main() {
	// Define command line flags
	stdioMode := flag.Bool("stdio", true, "Run in stdio mode")
	httpAddr := flag.String("http", "", "HTTP server address (e.g., ':8080')")
	bridgeURL := flag.String("bridge", "http://127.0.0.1:8484", "Base URL of the host automation bridge")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	client, err := onenote.Connect(ctx, *bridgeURL, http.DefaultClient)
	if err != nil {
		logger.Fatal("could not connect to host bridge", zap.String("bridge", *bridgeURL), zap.Error(err))
	}
	defer func() {
		// The host session is a scoped resource; a failed release is
		// reported, never swallowed.
		if err := client.Close(context.Background()); err != nil {
			logger.Error("failed to release host session", zap.Error(err))
		}
	}()

	serviceInstance := service.NewService(client, logger)
	s := mcp.NewServer(logger, serviceInstance)

	if *httpAddr != "" {
		logger.Info("starting MCP server", zap.String("http", *httpAddr))
		handler := mcp.NewHTTPSSEServer(logger, s, serviceInstance, "/mcp", nil)
		if err := http.ListenAndServe(*httpAddr, handler); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
		return
	}

	if *stdioMode {
		logger.Info("starting MCP server in stdio mode")
	}
	if err := server.ServeStdio(s); err != nil {
		logger.Fatal("stdio server failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
