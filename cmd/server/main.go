// Package main provides the raster frame HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/gridframe/ncanimate/internal/adapter/ncfile"
	httpHandler "github.com/gridframe/ncanimate/internal/http"
	"github.com/gridframe/ncanimate/internal/usecase"
)

const version = "0.1.0"

// serverConfig is the environment configuration of the server process.
type serverConfig struct {
	Port     string `env:"PORT" envDefault:"8080"`
	DataRoot string `env:"DATA_ROOT" envDefault:"."`
}

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("ncanimate-server version %s\n", version)
		return
	}

	// Load configuration from environment.
	var cfg serverConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to parse environment: %v", err)
	}

	log.Printf("Starting frame server...")
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Data root: %s", cfg.DataRoot)

	// File patterns in requests resolve against the data root.
	if cfg.DataRoot != "." {
		if err := os.Chdir(cfg.DataRoot); err != nil {
			log.Fatalf("Failed to enter data root: %v", err)
		}
	}

	// Initialize frame producer over the NetCDF adapter.
	producer := usecase.NewProducer(ncfile.Opener())

	// Setup router.
	router := httpHandler.SetupRouter(producer)

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/filesets")
	log.Printf("  - GET /v1/variables")
	log.Printf("  - GET /v1/range")
	log.Printf("  - GET /v1/frames")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("ncanimate frame server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  ncanimate-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATA_ROOT               Directory file patterns resolve against (default: .)")
	fmt.Println("  GIN_MODE                Gin mode: debug or release (default: debug)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health         Health check")
	fmt.Println("  GET /v1/filesets    Discover and order a NetCDF file batch")
	fmt.Println("  GET /v1/variables   List variables common to a file batch")
	fmt.Println("  GET /v1/range       Sample a global value range for a variable")
	fmt.Println("  GET /v1/frames      Extract one raster frame from a file")
	fmt.Println()
}
