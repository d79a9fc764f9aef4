package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/red-numbers/internal/config"
	"github.com/ironsheep/red-numbers/internal/logging"
	"github.com/ironsheep/red-numbers/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("red-numbers-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("red-numbers-mcp - MCP server for red part number extraction")
			fmt.Println()
			fmt.Println("Usage: red-numbers-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  RED_NUMBERS_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println("  RED_NUMBERS_*                  Detection parameters, as for red-numbers")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	config.LoadDotEnv(".env")
	level := logging.ParseLevel(os.Getenv(config.EnvPrefix + "LOG_LEVEL"))
	logger := logging.NewStderr("red-numbers-mcp", level)
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	cfg := config.FromEnv(config.Default())
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	srv := server.New(cfg, server.WithLogger(logger))
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
