package fileaccess

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/patrickmn/go-cache"
)

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// DirEntry is one element of a directory listing. Path is relative to the root.
type DirEntry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Type EntryType `json:"type"`
	Size *int64    `json:"size,omitempty"`
}

// ignoreFiles are read from the root down to the listed directory.
var ignoreFiles = []string{".gitignore", ".annoloomignore"}

// ListDir lists one level of dir: directories first, then files, each group in
// case-insensitive name order. Entries excluded by ignore files are skipped.
func (a *Accessor) ListDir(dir string) ([]DirEntry, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	abs, err := a.resolve(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, classifyOSError(err)
	}
	if !info.IsDir() {
		return nil, newError(CodeInvalidPath, "not a directory", nil)
	}

	if cached, ok := a.tree.Get(abs); ok {
		return cached.([]DirEntry), nil
	}

	items, err := os.ReadDir(abs)
	if err != nil {
		return nil, classifyOSError(err)
	}

	matcher := a.ignoreMatcher(abs)
	relDir := a.relative(abs)

	entries := make([]DirEntry, 0, len(items))
	for _, item := range items {
		name := item.Name()
		if name == ".git" || name == "node_modules" {
			continue
		}
		full := filepath.Join(abs, name)
		st, err := os.Stat(full)
		if err != nil {
			continue
		}

		relPath := name
		if relDir != "." {
			relPath = relDir + "/" + name
		}
		if matcher.Match(strings.Split(relPath, "/"), st.IsDir()) {
			continue
		}

		entry := DirEntry{Name: name, Path: relPath, Type: EntryFile}
		if st.IsDir() {
			entry.Type = EntryDir
		} else {
			size := st.Size()
			entry.Size = &size
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type == EntryDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	a.tree.Set(abs, entries, cache.DefaultExpiration)
	return entries, nil
}

func (a *Accessor) invalidateDir(absDir string) {
	a.tree.Delete(absDir)
}

// ignoreMatcher collects patterns from every ignore file between the root and absDir.
func (a *Accessor) ignoreMatcher(absDir string) gitignore.Matcher {
	var patterns []gitignore.Pattern

	var domain []string
	dirs := []string{a.root}
	if rel := a.relative(absDir); rel != "." {
		cur := a.root
		for _, part := range strings.Split(rel, "/") {
			cur = filepath.Join(cur, part)
			dirs = append(dirs, cur)
		}
	}

	for i, d := range dirs {
		if i > 0 {
			domain = append(domain, filepath.Base(d))
		}
		for _, name := range ignoreFiles {
			patterns = append(patterns, readPatterns(filepath.Join(d, name), append([]string(nil), domain...))...)
		}
	}
	return gitignore.NewMatcher(patterns)
}

func readPatterns(path string, domain []string) []gitignore.Pattern {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var ps []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	return ps
}
