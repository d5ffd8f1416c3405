// flowdoc: MCP server for flow documents
//
// Serves CRUD and partial-patch tools over *.cf.json flow documents to any
// MCP-capable AI coding tool, and offers the same validator on the command
// line.
//
// Usage:
//
//	flowdoc serve                 # Start MCP server (stdio transport)
//	flowdoc validate a.cf.json    # Lint documents, exit 1 on violations
//	flowdoc list                  # List the flows directory
//	flowdoc version
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/flowdoc/internal/config"
	"github.com/HendryAvila/flowdoc/internal/logging"
	flowserver "github.com/HendryAvila/flowdoc/internal/server"
)

type cli struct {
	cfg config.Config
	log *zap.Logger
}

// setupConfig resolves flags, FLOWDOC_* env vars and the optional config
// file into c.cfg, then builds the logger.
func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return err
	}
	if c.cfg, err = config.Load(v); err != nil {
		return err
	}
	if c.log, err = logging.New(c.cfg.LogLevel, c.cfg.LogFormat); err != nil {
		return err
	}
	return nil
}

func (c *cli) serve(cmd *cobra.Command, args []string) error {
	defer func() { _ = c.log.Sync() }()

	s, cleanup, err := flowserver.New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdio := server.NewStdioServer(s)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return err
	}
	c.log.Info("server stopped")
	return nil
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "flowdoc",
		Short:         "MCP server for flow documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	serve := &cobra.Command{
		Use:     "serve",
		Short:   "Start the MCP server on stdio",
		Args:    cobra.NoArgs,
		PreRunE: c.setupConfig,
		RunE:    c.serve,
	}

	root.AddCommand(serve, newValidateCmd(c), newListCmd(c), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if code, ok := exitCode(err); ok {
			os.Exit(code)
		}
		log.Fatal(err)
	}
}
