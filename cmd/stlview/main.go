// Package main is the entry point for the STL viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/app"
	"github.com/Faultbox/meshdiff/internal/config"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/internal/preview"
	"github.com/Faultbox/meshdiff/internal/worker"
	"github.com/Faultbox/meshdiff/pkg/csg"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Process isolation runs this executable as "stlview worker".
	if len(os.Args) > 1 && os.Args[1] == "worker" {
		if err := worker.Serve(ctx, os.Stdin, os.Stdout, csg.NewEvaluator()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	flags := config.BindFlags(flag.CommandLine)
	against := flag.String("against", "", "Diff against an older copy of the file")
	ref := flag.String("rev", "", "Diff against a git revision (~ means HEAD)")
	watch := flag.Bool("watch", true, "Reload when the file changes, close when it is deleted")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `stlview - STL viewer with git-aware diff

Usage:
  stlview [options] <file.stl>
  stlview -against <old.stl> [options] <file.stl>
  stlview -rev <ref> [options] <file.stl>

Keys:
  1-5 view presets   r reset view   i info   g grid   a axes
  b bounding box     s screenshot   q/esc quit

Options:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	src := preview.Source{Path: flag.Arg(0), Against: *against, Ref: *ref}

	// Load configuration
	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Named("main")
	log.Debug("config", zap.Any("config", cfg))

	a, err := app.New(cfg, src, *watch)
	if err != nil {
		log.Error("failed to start viewer", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("viewer error", zap.Error(err))
		a.Close()
		logger.Sync()
		os.Exit(1)
	}
	log.Info("viewer closed normally")
}
