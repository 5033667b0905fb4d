package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/shape-dataset-gen/internal/config"
	"github.com/ironsheep/shape-dataset-gen/internal/dataset"
	"github.com/ironsheep/shape-dataset-gen/internal/logger"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// EnvConfig names the YAML config file to load.
const EnvConfig = "SHAPEGEN_CONFIG"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("shapegen %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("shapegen - render a labeled dataset of simple shapes")
			fmt.Println()
			fmt.Println("Usage: shapegen [options]")
			fmt.Println()
			fmt.Println("Writes output-1/train_images/img_NNNNN.png with COCO annotations in")
			fmt.Println("output-1/coco_annotations.json, and output-1/test_images/<shape>_NNNNN.png.")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SHAPEGEN_CONFIG=path.yaml    Load settings from a YAML file")
			fmt.Println("  SHAPEGEN_SEED=n              Fix the random seed (0 = from clock)")
			fmt.Println("  SHAPEGEN_WORKERS=n           Render on n goroutines")
			fmt.Println("  SHAPEGEN_OUTPUT_DIR=dir      Write all output under dir")
			fmt.Println("  SHAPEGEN_LOG_LEVEL=debug     Enable debug logging")
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown argument %q (see --help)\n", os.Args[1])
			os.Exit(2)
		}
	}

	log, err := logger.New("development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Error("generation failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	cfg, err := config.Load(os.Getenv(EnvConfig))
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if err := cfg.Resolve(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := dataset.Run(ctx, cfg, log)
	if err != nil {
		return err
	}

	log.Info("dataset ready",
		"seed", res.Seed,
		"train_images", len(res.Dataset.Images),
		"test_images", len(res.TestFiles),
		"annotations", cfg.AnnotationsFile)
	return nil
}
