// Package workspace maps paths between the served root and the workspace root
// that annotations are keyed by.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-git/go-git/v5"

	"annoloom/internal/storage"
)

// Scope binds a served root directory to the workspace that contains it.
// Annotations are stored with workspace-relative paths; callers of the API see
// root-relative ones.
type Scope struct {
	root          string
	workspaceRoot string
	prefix        string // root relative to workspaceRoot, "." when equal
}

// DiscoverRoot returns the top of the git work tree enclosing start, or start itself
// when it is not inside a repository.
func DiscoverRoot(start string) string {
	repo, err := git.PlainOpenWithOptions(start, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return start
	}
	wt, err := repo.Worktree()
	if err != nil {
		return start
	}
	return wt.Filesystem.Root()
}

// NewScope creates a Scope. An empty workspaceRoot is discovered from root.
// A workspaceRoot that does not contain root is replaced by root.
func NewScope(root, workspaceRoot string) (*Scope, error) {
	canonRoot, err := canonical(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	if workspaceRoot == "" {
		workspaceRoot = DiscoverRoot(canonRoot)
	}
	canonWS, err := canonical(workspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace root: %w", err)
	}

	prefix, err := filepath.Rel(canonWS, canonRoot)
	if err != nil || prefix == ".." || strings.HasPrefix(prefix, ".."+string(filepath.Separator)) {
		canonWS = canonRoot
		prefix = "."
	}

	return &Scope{
		root:          canonRoot,
		workspaceRoot: canonWS,
		prefix:        filepath.ToSlash(prefix),
	}, nil
}

// Root returns the canonical served root.
func (s *Scope) Root() string {
	return s.root
}

// WorkspaceRoot returns the canonical workspace root.
func (s *Scope) WorkspaceRoot() string {
	return s.workspaceRoot
}

// Key returns the stable key the workspace is stored under.
func (s *Scope) Key() string {
	return normalizeKey(s.workspaceRoot)
}

// ToWorkspaceRelative converts a root-relative path into a workspace-relative one.
// Paths that leave the workspace are returned unchanged.
func (s *Scope) ToWorkspaceRelative(rootRel string) string {
	abs := filepath.Join(s.root, filepath.FromSlash(rootRel))
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(s.workspaceRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return rootRel
	}
	return filepath.ToSlash(rel)
}

// FromWorkspaceToRoot converts a workspace-relative path back into a root-relative one.
func (s *Scope) FromWorkspaceToRoot(wsRel string) string {
	if s.prefix == "." {
		return wsRel
	}
	if wsRel == s.prefix {
		return "."
	}
	if rest, ok := strings.CutPrefix(wsRel, s.prefix+"/"); ok {
		return rest
	}
	return wsRel
}

// Contains reports whether a workspace-relative path lies under the served root.
func (s *Scope) Contains(wsRel string) bool {
	if s.prefix == "." {
		return true
	}
	return wsRel == s.prefix || strings.HasPrefix(wsRel, s.prefix+"/")
}

// Filter keeps the annotations under the served root and rewrites their paths
// to be root-relative.
func (s *Scope) Filter(in []storage.Annotation) []storage.Annotation {
	out := make([]storage.Annotation, 0, len(in))
	for _, a := range in {
		if !s.Contains(a.FilePath) {
			continue
		}
		a.FilePath = s.FromWorkspaceToRoot(a.FilePath)
		out = append(out, a)
	}
	return out
}

func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", errors.New("not a directory")
	}
	return resolved, nil
}

// normalizeKey folds the macOS /private prefix so a workspace keeps one key
// whichever spelling of the path it was opened with.
func normalizeKey(p string) string {
	if runtime.GOOS != "darwin" {
		return p
	}
	for _, dir := range []string{"/var", "/tmp"} {
		private := "/private" + dir
		if p == private {
			return dir
		}
		if rest, ok := strings.CutPrefix(p, private+"/"); ok {
			return dir + "/" + rest
		}
	}
	return p
}
