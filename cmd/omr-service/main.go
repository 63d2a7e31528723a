package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gradeworks/omr-engine/internal/config"
	"github.com/gradeworks/omr-engine/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("omr-service %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("omr-service - answer-sheet decoding service")
			fmt.Println()
			fmt.Println("Usage: omr-service [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  PORT                     Listen port (default 8080)")
			fmt.Println("  OMR_CLASSIFIER_URL       Remote row-classifier base URL (optional)")
			fmt.Println("  OMR_CLASSIFIER_TIMEOUT   Per-row classifier timeout (default 15s)")
			fmt.Println("  OMR_CLASSIFIER_WORKERS   Concurrent classifier calls (default 5)")
			fmt.Println("  OMR_FETCH_TIMEOUT        Image download timeout (default 30s)")
			fmt.Println("  OMR_TUNING_FILE          YAML file overriding pipeline tunables")
			return
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.Load()
	cfg.Version = Version

	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		log.Fatalf("Tuning error: %v", err)
	}

	srv, err := server.New(cfg, tuning)
	if err != nil {
		log.Fatalf("Setup error: %v", err)
	}

	log.Printf("omr-service %s (built %s, commit %s)", Version, BuildTime, GitCommit)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
