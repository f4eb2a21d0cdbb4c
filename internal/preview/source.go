package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Source names what to preview: a file on its own, a file against an
// older copy on disk, or a file against a git revision.
type Source struct {
	Path    string
	Against string // previous version on disk
	Ref     string // previous version in git; "~" is HEAD
}

// Validate checks that s names exactly one preview kind.
func (s Source) Validate() error {
	if s.Path == "" {
		return errors.New("no file given")
	}
	if s.Against != "" && s.Ref != "" {
		return errors.New("a file and a revision cannot both be compared against")
	}
	return nil
}

// IsDiff reports whether s compares two versions.
func (s Source) IsDiff() bool {
	return s.Against != "" || s.Ref != ""
}

// Load reads the content s names.
func (s Source) Load(ctx context.Context) (*Data, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	switch {
	case s.Ref != "":
		return LoadRevision(ctx, s.Path, s.Ref)
	case s.Against != "":
		return LoadPair(ctx, s.Against, s.Path)
	}
	return LoadFile(s.Path)
}

// Paths returns the files of s that currently exist, for watching.
func (s Source) Paths() []string {
	var paths []string
	for _, p := range []string{s.Path, s.Against} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

// Name is a short label for titles and screenshot names.
func (s Source) Name() string {
	name := filepath.Base(s.Path)
	switch {
	case s.Ref != "":
		return fmt.Sprintf("%s @ %s", name, SanitizeRef(s.Ref))
	case s.Against != "":
		return fmt.Sprintf("%s vs %s", filepath.Base(s.Against), name)
	}
	return name
}
