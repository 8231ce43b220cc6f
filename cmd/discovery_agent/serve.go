package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manwithoutsleep/basic-ai-chatbot/internal/server"
)

var (
	serveFlags sharedFlags
	servePort  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the discovery conversation over REST endpoints.`,
	RunE:  runServe,
}

func init() {
	serveFlags.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadMergedConfig(&serveFlags)
	if err != nil {
		return err
	}
	if cfg.Port != 0 && !cmd.Flags().Changed("port") {
		servePort = cfg.Port
	}

	eng, cleanup, err := buildEngine(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer cleanup()

	return server.New(eng, server.Config{Port: servePort}).Start()
}
