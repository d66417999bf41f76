// Package fileaccess reads and writes text files confined to a single root directory.
package fileaccess

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
)

const (
	// SoftLimitBytes marks a chunk truncated when the window stops short of EOF.
	SoftLimitBytes int64 = 2 * 1024 * 1024
	// HardLimitBytes always marks a chunk truncated and bounds full reads by default.
	HardLimitBytes int64 = 5 * 1024 * 1024

	sniffBytes = 64 * 1024
)

// Chunk is a window of lines from a file.
type Chunk struct {
	Path       string `json:"path"`
	Language   string `json:"language"`
	Size       int64  `json:"size"`
	TotalLines int    `json:"totalLines"`
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	Content    string `json:"content"`
	Truncated  bool   `json:"truncated"`
}

// FullFile is the entire content of a file together with its digest.
type FullFile struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Digest   string `json:"digest"`
}

// Accessor provides confined file operations under root.
type Accessor struct {
	root      string
	hardLimit int64
	tree      *cache.Cache
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithFullReadLimit overrides the size ceiling for ReadFull.
func WithFullReadLimit(n int64) Option {
	return func(a *Accessor) {
		if n > 0 {
			a.hardLimit = n
		}
	}
}

// WithTreeCacheTTL sets how long directory listings are cached.
func WithTreeCacheTTL(ttl time.Duration) Option {
	return func(a *Accessor) {
		if ttl > 0 {
			a.tree = cache.New(ttl, 2*ttl)
		}
	}
}

// New creates an Accessor rooted at root. The root is resolved to an absolute,
// symlink-free directory.
func New(root string, opts ...Option) (*Accessor, error) {
	if root == "" {
		return nil, newError(CodeInvalidPath, "empty root", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, newError(CodeInvalidPath, "invalid root", err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, newError(CodeNotFound, "root not found", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, newError(CodeNotFound, "root not found", err)
	}
	if !info.IsDir() {
		return nil, newError(CodeNotAFile, "root is not a directory", nil)
	}

	a := &Accessor{
		root:      abs,
		hardLimit: HardLimitBytes,
		tree:      cache.New(30*time.Second, time.Minute),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Root returns the canonical root directory.
func (a *Accessor) Root() string {
	return a.root
}

// Digest returns the hex-encoded SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadChunk returns up to maxLines lines starting at the 1-based startLine.
// Lines are joined with "\n" and carry no trailing terminator.
func (a *Accessor) ReadChunk(path string, startLine, maxLines int) (*Chunk, error) {
	abs, err := a.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := statFile(abs)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, classifyOSError(err)
	}
	defer f.Close()

	if err := sniffText(f); err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, newError(CodeInternal, "seek failed", err)
	}

	if startLine < 1 {
		startLine = 1
	}
	if maxLines < 0 {
		maxLines = 0
	}
	endTarget := startLine + maxLines - 1

	var (
		lines []string
		total int
	)
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadString('\n')
		if line == "" && readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, newError(CodeInternal, "read failed", readErr)
		}
		total++
		if total >= startLine && total <= endTarget {
			lines = append(lines, trimEOL(line))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, newError(CodeInternal, "read failed", readErr)
		}
	}

	endLine := min(endTarget, total)
	size := info.Size()
	hard := size > HardLimitBytes
	soft := size > SoftLimitBytes

	rel := a.relative(abs)
	return &Chunk{
		Path:       rel,
		Language:   Language(rel),
		Size:       size,
		TotalLines: total,
		StartLine:  startLine,
		EndLine:    endLine,
		Content:    strings.Join(lines, "\n"),
		Truncated:  hard || (soft && endLine < total),
	}, nil
}

// ReadFull returns the whole file when it is within the configured ceiling.
func (a *Accessor) ReadFull(path string) (*FullFile, error) {
	abs, err := a.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := statFile(abs)
	if err != nil {
		return nil, err
	}
	if info.Size() > a.hardLimit {
		return nil, newError(CodeOverLimit, "file too large for full read", nil)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, classifyOSError(err)
	}
	if !isText(data) {
		return nil, newError(CodeNonText, "non-text file", nil)
	}

	rel := a.relative(abs)
	return &FullFile{
		Path:     rel,
		Language: Language(rel),
		Size:     int64(len(data)),
		Content:  string(data),
		Digest:   Digest(data),
	}, nil
}

// Write replaces the file content atomically. When expectedDigest is non-empty and
// does not match the current content, nothing is written and a CodeConflict error
// carrying the current digest is returned.
func (a *Accessor) Write(path, content, expectedDigest string) (string, error) {
	abs, err := a.resolve(path)
	if err != nil {
		return "", err
	}
	info, err := statFile(abs)
	if err != nil {
		return "", err
	}

	current, err := os.ReadFile(abs)
	if err != nil {
		return "", classifyOSError(err)
	}
	if currentDigest := Digest(current); expectedDigest != "" && expectedDigest != currentDigest {
		return "", conflictError(currentDigest)
	}

	data := []byte(content)
	if err := writeFileAtomic(abs, data, info.Mode().Perm()); err != nil {
		return "", newError(CodeInternal, "write failed", err)
	}
	a.invalidateDir(filepath.Dir(abs))

	return Digest(data), nil
}

func (a *Accessor) resolve(userPath string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", newError(CodeInvalidPath, "empty path", nil)
	}
	clean := filepath.Clean(filepath.FromSlash(userPath))
	if clean == "." {
		return a.root, nil
	}

	isAbs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	if !isAbs && (clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))) {
		return "", newError(CodeInvalidPath, "path escapes root", nil)
	}

	joined := clean
	if !isAbs {
		joined = filepath.Join(a.root, clean)
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", newError(CodeNotFound, "file not found", err)
		}
		return "", newError(CodeInvalidPath, "cannot resolve path", err)
	}
	if !hasPathPrefix(resolved, a.root) {
		return "", newError(CodeInvalidPath, "path escapes root", nil)
	}
	return resolved, nil
}

func (a *Accessor) relative(abs string) string {
	rel, err := filepath.Rel(a.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func statFile(abs string) (fs.FileInfo, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, classifyOSError(err)
	}
	if !info.Mode().IsRegular() {
		return nil, newError(CodeNotAFile, "not a regular file", nil)
	}
	return info, nil
}

func classifyOSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return newError(CodeNotFound, "file not found", err)
	}
	return newError(CodeInternal, "file access failed", err)
}

func hasPathPrefix(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return true
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}

// sniffText rejects content whose first bytes hold a NUL or invalid UTF-8.
func sniffText(r io.Reader) error {
	buf := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(CodeInternal, "read failed", err)
	}
	sample := buf[:n]
	if n == sniffBytes {
		sample = trimPartialRune(sample)
	}
	if !isText(sample) {
		return newError(CodeNonText, "non-text file", nil)
	}
	return nil
}

func isText(data []byte) bool {
	return bytes.IndexByte(data, 0) < 0 && utf8.Valid(data)
}

// trimPartialRune drops a multi-byte sequence cut off by the sample boundary.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
