package handlers

import (
	"net/http"
	"strconv"

	"annoloom/internal/service"
)

const (
	defaultMaxLines = 2000
	maxMaxLines     = 5000
)

// FileHandler serves the file tree and file content under the root.
type FileHandler struct {
	files service.FileService
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// WriteFileRequest is the payload of PUT /api/file.
type WriteFileRequest struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	BaseDigest string `json:"baseDigest,omitempty"`
}

// WriteFileResponse acknowledges a write with the new content digest.
type WriteFileResponse struct {
	OK     bool   `json:"ok"`
	Digest string `json:"digest"`
}

// Tree lists one directory level: GET /api/tree?dir=
func (h *FileHandler) Tree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.files.Tree(ctx, r.URL.Query().Get("dir"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list directory")
		return
	}
	writeJSON(ctx, w, http.StatusOK, entries)
}

// Chunk reads a window of lines: GET /api/file?path=&startLine=&maxLines=
func (h *FileHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	startLine, ok := queryInt(q.Get("startLine"), 1)
	if !ok || startLine < 1 {
		writeError(ctx, w, http.StatusBadRequest, CodeInvalidInput, "startLine must be a positive integer")
		return
	}
	maxLines, ok := queryInt(q.Get("maxLines"), defaultMaxLines)
	if !ok || maxLines < 1 {
		writeError(ctx, w, http.StatusBadRequest, CodeInvalidInput, "maxLines must be a positive integer")
		return
	}
	maxLines = min(maxLines, maxMaxLines)

	chunk, err := h.files.ReadChunk(ctx, q.Get("path"), startLine, maxLines)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read file")
		return
	}
	writeJSON(ctx, w, http.StatusOK, chunk)
}

// Full reads a whole file: GET /api/file/full?path=
func (h *FileHandler) Full(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, err := h.files.ReadFull(ctx, r.URL.Query().Get("path"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read file")
		return
	}
	writeJSON(ctx, w, http.StatusOK, file)
}

// Write replaces a file: PUT /api/file
func (h *FileHandler) Write(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req WriteFileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	digest, err := h.files.Write(ctx, req.Path, req.Content, req.BaseDigest)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to write file")
		return
	}
	writeJSON(ctx, w, http.StatusOK, WriteFileResponse{OK: true, Digest: digest})
}

func queryInt(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
