// Package preview loads the content shown by the viewer and the CLI: a
// single STL file, or two versions of one to diff, read from disk or from
// git history.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshdiff/internal/logger"
	"github.com/Faultbox/meshdiff/pkg/formats"
	"github.com/Faultbox/meshdiff/pkg/mesh"
)

// ErrNothingToShow is returned when neither version of a diff exists.
var ErrNothingToShow = errors.New("no content to preview")

// Data is raw STL content. Either File is set (single mode), or at least
// one of Prev and Current (diff mode). A nil side of a diff means the file
// does not exist in that version.
type Data struct {
	File    []byte
	Prev    []byte
	Current []byte
}

// IsDiff reports whether d holds two versions.
func (d *Data) IsDiff() bool {
	return d.File == nil
}

// Meshes is parsed Data.
type Meshes struct {
	File    *mesh.TriangleMesh
	Prev    *mesh.TriangleMesh
	Current *mesh.TriangleMesh
}

// LoadFile reads a single file.
func LoadFile(path string) (*Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Data{File: b}, nil
}

// LoadPair reads two files concurrently. A missing file leaves its side nil.
func LoadPair(ctx context.Context, prevPath, currentPath string) (*Data, error) {
	d := &Data{}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Prev, err = readOptional(prevPath)
		return err
	})
	g.Go(func() (err error) {
		d.Current, err = readOptional(currentPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d.check()
}

// LoadRevision reads path at ref from git and from the working tree
// concurrently. ref "~" means HEAD.
func LoadRevision(ctx context.Context, path, ref string) (*Data, error) {
	repo, err := FindRepo(path)
	if err != nil {
		return nil, err
	}
	log := logger.Named("preview")
	log.Debug("loading revision",
		zap.String("path", path),
		zap.String("ref", SanitizeRef(ref)),
		zap.String("root", repo.Root),
	)

	d := &Data{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := repo.Show(gctx, ref, path)
		if errors.Is(err, ErrNotAtRevision) {
			log.Debug("file is new", zap.String("path", path))
			return nil
		}
		d.Prev = b
		return err
	})
	g.Go(func() (err error) {
		d.Current, err = readOptional(path)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d.check()
}

func (d *Data) check() (*Data, error) {
	if d.Prev == nil && d.Current == nil {
		return nil, ErrNothingToShow
	}
	return d, nil
}

func readOptional(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// Parse decodes every present part of d concurrently.
func (d *Data) Parse(ctx context.Context) (*Meshes, error) {
	m := &Meshes{}
	g, _ := errgroup.WithContext(ctx)
	parse := func(name string, data []byte, dst **mesh.TriangleMesh) {
		if data == nil {
			return
		}
		g.Go(func() error {
			tm, err := formats.ParseSTL(data)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = tm
			return nil
		})
	}
	parse("file", d.File, &m.File)
	parse("previous", d.Prev, &m.Prev)
	parse("current", d.Current, &m.Current)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}
