package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Masterminds/vcs"
)

// Repository errors.
var (
	ErrNotInRepository = errors.New("not inside a git repository")
	ErrNotAtRevision   = errors.New("file does not exist at revision")
)

// SanitizeRef maps the "~" shorthand, and the empty ref, to HEAD.
func SanitizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "~" {
		return "HEAD"
	}
	return ref
}

// Repo is a git working tree.
type Repo struct {
	Root string
}

// FindRepo walks up from path to the nearest directory holding a git
// repository.
func FindRepo(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for dir := abs; ; {
		t, err := vcs.DetectVcsFromFS(dir)
		switch {
		case err == nil && t == vcs.Git:
			return &Repo{Root: dir}, nil
		case err == nil:
			return nil, fmt.Errorf("%w: %s uses %s", ErrNotInRepository, dir, t)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("%w: %s", ErrNotInRepository, path)
		}
		dir = parent
	}
}

// Rel returns path relative to the repository root, with forward slashes.
func (r *Repo) Rel(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.Root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrNotInRepository, path, r.Root)
	}
	return filepath.ToSlash(rel), nil
}

// Show returns the content of path at ref. A file missing at ref yields
// ErrNotAtRevision.
func (r *Repo) Show(ctx context.Context, ref, path string) ([]byte, error) {
	rel, err := r.Rel(path)
	if err != nil {
		return nil, err
	}
	ref = SanitizeRef(ref)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "show", ref+":"+rel)
	cmd.Dir = r.Root
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "does not exist") || strings.Contains(msg, "exists on disk, but not in") {
			return nil, fmt.Errorf("%w: %s at %s", ErrNotAtRevision, rel, ref)
		}
		return nil, fmt.Errorf("git show %s:%s: %w: %s", ref, rel, err, msg)
	}
	if stdout.Len() == 0 {
		return []byte{}, nil
	}
	return stdout.Bytes(), nil
}
