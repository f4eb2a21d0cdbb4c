// stldiff is a CLI utility for inspecting STL meshes and diffing two
// versions of one with CSG booleans.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/meshdiff/internal/config"
	"github.com/Faultbox/meshdiff/internal/diff"
	"github.com/Faultbox/meshdiff/internal/engine/camera"
	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/internal/preview"
	"github.com/Faultbox/meshdiff/internal/worker"
	"github.com/Faultbox/meshdiff/pkg/csg"
	"github.com/Faultbox/meshdiff/pkg/formats"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args, os.Stdout)
	case "diff":
		err = cmdDiff(ctx, args, os.Stdout)
	case "rev":
		err = cmdRev(ctx, args, os.Stdout)
	case "watch":
		err = cmdWatch(ctx, args, os.Stdout)
	case "worker":
		err = worker.Serve(ctx, os.Stdin, os.Stdout, csg.NewEvaluator())
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `stldiff - STL mesh inspection and diff utility

Usage:
  stldiff <command> [options]

Commands:
  info <file.stl>                      Show mesh information
  diff [options] <before> <after>      Diff two files and export the parts
  rev [options] <file.stl> [ref]       Diff a file against a git revision (default ~ = HEAD)
  watch [options] <before> <after>     Re-run diff whenever a file changes
  watch -rev <ref> [options] <file>    Same, against a git revision
  worker                               Evaluate one request from stdin (internal)

Options (diff, rev, watch):
  -o <dir>            Output directory for added/removed/intersection/sum.stl
  -mode <mode>        in-process or isolated
  -isolation <kind>   goroutine or process
  -config <path>      Config file
  -debug              Debug logging

Examples:
  stldiff info part.stl
  stldiff diff -o out old/part.stl part.stl
  stldiff rev part.stl HEAD~2
  stldiff watch -rev ~ part.stl`)
}

func cmdInfo(args []string, w io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: stldiff info <file.stl>")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	stl, err := formats.DecodeSTL(data)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	m := stl.Mesh
	b := m.Bounds()
	encoding := "binary"
	if stl.ASCII {
		encoding = "ascii"
	}

	fmt.Fprintf(w, "File:       %s\n", args[0])
	fmt.Fprintf(w, "Format:     %s\n", encoding)
	if stl.Name != "" {
		fmt.Fprintf(w, "Name:       %s\n", stl.Name)
	}
	fmt.Fprintf(w, "Triangles:  %d\n", m.TriangleCount())
	fmt.Fprintf(w, "Volume:     %.2f\n", m.Volume())
	fmt.Fprintf(w, "Area:       %.2f\n", m.SurfaceArea())
	if !b.IsEmpty() {
		lo, hi, size := camera.Round2(b.Min), camera.Round2(b.Max), camera.Round2(b.Size())
		fmt.Fprintf(w, "Min:        %.2f %.2f %.2f\n", lo.X, lo.Y, lo.Z)
		fmt.Fprintf(w, "Max:        %.2f %.2f %.2f\n", hi.X, hi.Y, hi.Z)
		fmt.Fprintf(w, "Dimensions: %.2f %.2f %.2f\n", size.X, size.Y, size.Z)
	}
	return nil
}

// diffFlags are shared by diff, rev and watch.
type diffFlags struct {
	fs     *flag.FlagSet
	config *config.Flags
	out    *string
}

func newDiffFlags(name string) *diffFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &diffFlags{
		fs:     fs,
		config: config.BindFlags(fs),
		out:    fs.String("o", "", "Output directory (empty: print summary only)"),
	}
}

// load parses args and sets up config and logging.
func (f *diffFlags) load(args []string) (*config.Config, error) {
	if err := f.fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdDiff(ctx context.Context, args []string, w io.Writer) error {
	f := newDiffFlags("diff")
	cfg, err := f.load(args)
	if err != nil {
		return err
	}
	if f.fs.NArg() != 2 {
		return errors.New("usage: stldiff diff [options] <before.stl> <after.stl>")
	}

	d, err := preview.LoadPair(ctx, f.fs.Arg(0), f.fs.Arg(1))
	if err != nil {
		return err
	}
	return runDiff(ctx, cfg, d, *f.out, w)
}

func cmdRev(ctx context.Context, args []string, w io.Writer) error {
	f := newDiffFlags("rev")
	cfg, err := f.load(args)
	if err != nil {
		return err
	}
	if f.fs.NArg() < 1 || f.fs.NArg() > 2 {
		return errors.New("usage: stldiff rev [options] <file.stl> [ref]")
	}
	ref := "~"
	if f.fs.NArg() == 2 {
		ref = f.fs.Arg(1)
	}

	d, err := preview.LoadRevision(ctx, f.fs.Arg(0), ref)
	if err != nil {
		return err
	}
	return runDiff(ctx, cfg, d, *f.out, w)
}

func cmdWatch(ctx context.Context, args []string, w io.Writer) error {
	f := newDiffFlags("watch")
	ref := f.fs.String("rev", "", "Diff against this git revision instead of a second file")
	cfg, err := f.load(args)
	if err != nil {
		return err
	}

	var src preview.Source
	switch {
	case *ref != "" && f.fs.NArg() == 1:
		src = preview.Source{Path: f.fs.Arg(0), Ref: *ref}
	case *ref == "" && f.fs.NArg() == 2:
		src = preview.Source{Path: f.fs.Arg(1), Against: f.fs.Arg(0)}
	default:
		return errors.New("usage: stldiff watch [options] <before> <after> | stldiff watch -rev <ref> [options] <file>")
	}

	once := func() {
		d, err := src.Load(ctx)
		if err == nil {
			err = runDiff(ctx, cfg, d, *f.out, w)
		}
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	}

	watcher, err := preview.NewWatcher(src.Paths()...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	once()
	err = watcher.Run(ctx, func(path string) {
		fmt.Fprintf(w, "\n%s changed\n", path)
		once()
	})
	switch {
	case errors.Is(err, preview.ErrRemoved):
		fmt.Fprintf(w, "%v, stopping\n", err)
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}

// runDiff computes the diff of d, prints a summary and, when outDir is set,
// writes one STL file per category.
func runDiff(ctx context.Context, cfg *config.Config, d *preview.Data, outDir string, w io.Writer) error {
	meshes, err := d.Parse(ctx)
	if err != nil {
		return err
	}

	log := logger.Named("stldiff")
	opts := append(cfg.DiffOptions(), diff.WithLogger(log))
	eng, err := diff.New(meshes.Prev, meshes.Current, cfg.MeshMaterial, opts...)
	if err != nil {
		return err
	}
	log.Debug("computing diff", zap.Stringer("mode", eng.Mode()))

	res, err := eng.ComputeDiff(ctx).Wait(ctx)
	if err != nil {
		return err
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%-14s %10s %12s  %s\n", "CATEGORY", "TRIANGLES", "VOLUME", "FILE")
	for _, c := range diff.Categories {
		if cerr, ok := res.Errors[c]; ok {
			fmt.Fprintf(w, "%-14s %10s %12s  %v\n", c, "-", "-", cerr)
			continue
		}
		b := res.Brush(c)
		if b == nil {
			fmt.Fprintf(w, "%-14s %10s %12s\n", c, "-", "-")
			continue
		}
		file := ""
		if outDir != "" {
			file = filepath.Join(outDir, c.String()+".stl")
			if err := exportBrush(file, b); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%-14s %10d %12.2f  %s\n", c, triangles(b), volume(b), file)
	}
	return res.Err()
}

func exportBrush(path string, b *mesh.Brush) error {
	geometry := b.Geometry
	if geometry == nil {
		geometry = &mesh.TriangleMesh{}
	}
	return formats.WriteSTL(path, geometry)
}

func triangles(b *mesh.Brush) int {
	if b.Geometry == nil {
		return 0
	}
	return b.Geometry.TriangleCount()
}

func volume(b *mesh.Brush) float64 {
	if b.Geometry == nil {
		return 0
	}
	return float64(b.Geometry.Volume())
}
