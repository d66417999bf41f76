// Package resync re-anchors stored annotations to the current content of a file.
package resync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"annoloom/internal/contextutil"
	"annoloom/internal/fileaccess"
	"annoloom/internal/storage"
)

const (
	// DefaultWindow is the number of lines searched on each side of the recorded position.
	DefaultWindow = 40
	// MaxWindow bounds the window accepted from callers.
	MaxWindow = 2000
	// DefaultFullLimitBytes bounds the full-file fallback.
	DefaultFullLimitBytes int64 = 5 * 1024 * 1024
)

// FileReader is the subset of the file accessor the engine reads through.
type FileReader interface {
	ReadChunk(path string, startLine, maxLines int) (*fileaccess.Chunk, error)
	ReadFull(path string) (*fileaccess.FullFile, error)
}

// Store is the subset of the annotation store a pass mutates.
type Store interface {
	ListByFile(ctx context.Context, filePath string) ([]storage.Annotation, error)
	Update(ctx context.Context, a *storage.Annotation) error
	Delete(ctx context.Context, id string) error
}

// Options tune a single pass. Zero values fall back to the engine defaults.
type Options struct {
	Window         int
	FullLimitBytes int64
	RemoveBroken   bool
	// IDs restricts the pass to these annotations of the file; empty means all.
	IDs []string
}

// Result aggregates the outcome of a pass. Annotations still in place count
// only toward Checked.
type Result struct {
	Checked    int      `json:"checked"`
	Updated    int      `json:"updated"`
	Deleted    int      `json:"deleted"`
	Skipped    int      `json:"skipped"`
	UpdatedIDs []string `json:"updatedIds"`
	DeletedIDs []string `json:"deletedIds"`
	SkippedIDs []string `json:"skippedIds"`
}

func newResult() Result {
	return Result{
		UpdatedIDs: []string{},
		DeletedIDs: []string{},
		SkippedIDs: []string{},
	}
}

// Engine runs resynchronization passes.
type Engine struct {
	files     FileReader
	store     Store
	window    int
	fullLimit int64
	fileKey   func(string) string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWindow sets the default search window.
func WithWindow(w int) EngineOption {
	return func(e *Engine) {
		if w > 0 {
			e.window = min(w, MaxWindow)
		}
	}
}

// WithFullLimitBytes sets the default full-file fallback ceiling.
func WithFullLimitBytes(n int64) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.fullLimit = n
		}
	}
}

// WithFileKey maps the path files are read by to the path annotations are stored under.
func WithFileKey(fn func(string) string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.fileKey = fn
		}
	}
}

// NewEngine creates a new Engine.
func NewEngine(files FileReader, store Store, opts ...EngineOption) *Engine {
	e := &Engine{
		files:     files,
		store:     store,
		window:    DefaultWindow,
		fullLimit: DefaultFullLimitBytes,
		fileKey:   func(p string) string { return p },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// fullText is the captured whole-file content used by the fallback stage.
type fullText struct {
	content string
	digest  string
}

// Resync verifies every annotation of path against the file's current content,
// relocating, deleting or skipping each one. Only a failure to list the file's
// annotations is returned as an error.
func (e *Engine) Resync(ctx context.Context, path string, opts Options) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx).With("path", path)
	res := newResult()

	annotations, err := e.store.ListByFile(ctx, e.fileKey(path))
	if err != nil {
		return res, fmt.Errorf("failed to list annotations: %w", err)
	}
	if len(opts.IDs) > 0 {
		annotations = slices.DeleteFunc(annotations, func(a storage.Annotation) bool {
			return !slices.Contains(opts.IDs, a.ID)
		})
	}
	if len(annotations) == 0 {
		return res, nil
	}

	window := e.window
	if opts.Window > 0 {
		window = min(opts.Window, MaxWindow)
	}
	limit := e.fullLimit
	if opts.FullLimitBytes > 0 {
		limit = opts.FullLimitBytes
	}

	full := e.captureFull(ctx, logger, path, limit)

	for i := range annotations {
		a := &annotations[i]
		res.Checked++

		if strings.TrimSpace(a.SelectedText) != "" {
			needle := normalizeEOL(a.SelectedText)
			if e.unchanged(ctx, logger, path, a, needle) {
				continue
			}
			if s, ok := e.locate(ctx, logger, path, a, needle, window, full); ok {
				if samePosition(a, s) {
					continue
				}
				if err := e.relocate(ctx, a, s, full); err != nil {
					logger.WarnContext(ctx, "failed to persist relocated annotation", "annotation_id", a.ID, "error", err)
					res.Skipped++
					res.SkippedIDs = append(res.SkippedIDs, a.ID)
					continue
				}
				res.Updated++
				res.UpdatedIDs = append(res.UpdatedIDs, a.ID)
				continue
			}
		}

		if !opts.RemoveBroken {
			res.Skipped++
			res.SkippedIDs = append(res.SkippedIDs, a.ID)
			continue
		}
		if err := e.store.Delete(ctx, a.ID); err != nil {
			logger.WarnContext(ctx, "failed to delete broken annotation", "annotation_id", a.ID, "error", err)
			res.Skipped++
			res.SkippedIDs = append(res.SkippedIDs, a.ID)
			continue
		}
		res.Deleted++
		res.DeletedIDs = append(res.DeletedIDs, a.ID)
	}

	logger.InfoContext(ctx, "resync completed",
		"checked", res.Checked,
		"updated", res.Updated,
		"deleted", res.Deleted,
		"skipped", res.Skipped,
	)
	return res, nil
}

func (e *Engine) captureFull(ctx context.Context, logger *slog.Logger, path string, limit int64) *fullText {
	f, err := e.files.ReadFull(path)
	if err != nil {
		logger.DebugContext(ctx, "full read unavailable", "error", err)
		return nil
	}
	if int64(len(f.Content)) > limit {
		logger.DebugContext(ctx, "file over full fallback limit", "size", len(f.Content), "limit", limit)
		return nil
	}
	return &fullText{
		content: normalizeEOL(f.Content),
		digest:  f.Digest,
	}
}

// unchanged reports whether the recorded span still denotes the selected text.
func (e *Engine) unchanged(ctx context.Context, logger *slog.Logger, path string, a *storage.Annotation, needle string) bool {
	if a.StartLine < 1 || a.EndLine < a.StartLine {
		return false
	}
	want := a.EndLine - a.StartLine + 1
	chunk, err := e.files.ReadChunk(path, a.StartLine, want)
	if err != nil {
		logger.WarnContext(ctx, "exact re-check read failed", "annotation_id", a.ID, "error", err)
		return false
	}
	lines := chunkLines(chunk)
	if len(lines) != want {
		return false
	}
	return sliceByCols(lines, a.StartColumn, a.EndColumn) == needle
}

// samePosition reports whether s is where a already points. Without columns
// only the line range is recorded, so a match on the same lines is no move.
func samePosition(a *storage.Annotation, s span) bool {
	if s.startLine != a.StartLine || s.endLine != a.EndLine {
		return false
	}
	return a.StartColumn == nil && a.EndColumn == nil
}

// normalizeEOL folds CRLF to LF; file content is compared with line endings stripped.
func normalizeEOL(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// locate runs the windowed search, boundary anchoring and full-file fallback in order.
func (e *Engine) locate(ctx context.Context, logger *slog.Logger, path string, a *storage.Annotation, needle string, window int, full *fullText) (span, bool) {
	startLine := max(a.StartLine, 1)
	endLine := max(a.EndLine, startLine)
	winStart := max(1, startLine-window)
	winLines := endLine + window - winStart + 1

	chunk, err := e.files.ReadChunk(path, winStart, winLines)
	if err != nil {
		logger.WarnContext(ctx, "windowed read failed", "annotation_id", a.ID, "error", err)
	} else {
		if s, ok := closest(findAll(chunk.Content, needle, chunk.StartLine), a.StartLine); ok {
			return s, true
		}
		if strings.Contains(needle, "\n") {
			if s, ok := anchor(chunkLines(chunk), chunk.StartLine, needle, a.StartLine, a.EndLine); ok {
				return s, true
			}
		}
	}

	if full != nil {
		if s, ok := closest(findAll(full.content, needle, 1), a.StartLine); ok {
			return s, true
		}
	}
	return span{}, false
}

func (e *Engine) relocate(ctx context.Context, a *storage.Annotation, s span, full *fullText) error {
	a.StartLine = s.startLine
	a.EndLine = s.endLine
	if a.StartColumn != nil {
		a.StartColumn = &s.startCol
	}
	if a.EndColumn != nil {
		a.EndColumn = &s.endCol
	}
	a.UpdatedAt = storage.Now()
	if full != nil {
		digest := full.digest
		a.FileDigest = &digest
	}
	return e.store.Update(ctx, a)
}

func chunkLines(c *fileaccess.Chunk) []string {
	if c.EndLine < c.StartLine {
		return nil
	}
	return strings.Split(c.Content, "\n")
}
