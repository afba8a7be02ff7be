// main.go
// Application entry point: loads configuration, initializes the logger and
// runs the chat server until SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/erilali/roomchat/internal/api"
	"github.com/erilali/roomchat/internal/logger"
	"github.com/erilali/roomchat/internal/util"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	config, err := util.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v, using defaults where possible\n", err)
	}

	logger.InitLogger(config.Logger)
	serverLogger := logger.NewLogger("server")
	serverLogger.WithFields(map[string]interface{}{
		"tcp_addr":    config.TCPAddr,
		"http_addr":   config.HTTPAddr,
		"framing":     config.Framing,
		"level":       config.Logger.Level,
		"log_to_file": config.Logger.LogToFile,
		"log_to_json": config.Logger.LogToJSON,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.StartServer(ctx, config, serverLogger); err != nil {
		serverLogger.Errorf("Server stopped with error: %v", err)
		os.Exit(1)
	}
	serverLogger.Info("Server stopped")
}
