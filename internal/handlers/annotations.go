package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"annoloom/internal/contextutil"
	"annoloom/internal/render"
	"annoloom/internal/service"
	"annoloom/internal/storage"
)

// AnnotationHandler serves the annotation CRUD, import and export endpoints.
type AnnotationHandler struct {
	annotations service.AnnotationService
	markdown    *render.Markdown
}

// NewAnnotationHandler creates a new AnnotationHandler.
func NewAnnotationHandler(annotations service.AnnotationService, markdown *render.Markdown) *AnnotationHandler {
	return &AnnotationHandler{
		annotations: annotations,
		markdown:    markdown,
	}
}

// CreateAnnotationRequest is the payload of POST /api/annotations.
type CreateAnnotationRequest struct {
	FilePath        string   `json:"filePath"`
	StartLine       int      `json:"startLine"`
	EndLine         int      `json:"endLine"`
	StartColumn     *int     `json:"startColumn,omitempty"`
	EndColumn       *int     `json:"endColumn,omitempty"`
	SelectedText    string   `json:"selectedText"`
	Comment         string   `json:"comment"`
	PreContextHash  *string  `json:"preContextHash,omitempty"`
	PostContextHash *string  `json:"postContextHash,omitempty"`
	FileDigest      *string  `json:"fileDigest,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Priority        string   `json:"priority,omitempty"`
}

// UpdateAnnotationRequest is the payload of PUT /api/annotations/{id}.
// Absent fields are left unchanged.
type UpdateAnnotationRequest struct {
	FilePath     *string   `json:"filePath,omitempty"`
	StartLine    *int      `json:"startLine,omitempty"`
	EndLine      *int      `json:"endLine,omitempty"`
	StartColumn  *int      `json:"startColumn,omitempty"`
	EndColumn    *int      `json:"endColumn,omitempty"`
	SelectedText *string   `json:"selectedText,omitempty"`
	Comment      *string   `json:"comment,omitempty"`
	FileDigest   *string   `json:"fileDigest,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	Priority     *string   `json:"priority,omitempty"`
}

// AnnotationView is an annotation with its comment optionally rendered to HTML.
type AnnotationView struct {
	storage.Annotation
	CommentHTML string `json:"commentHtml,omitempty"`
}

// List returns the annotations: GET /api/annotations[?render=html]
func (h *AnnotationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	list, err := h.annotations.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list annotations")
		return
	}

	renderHTML := r.URL.Query().Get("render") == "html" && h.markdown != nil
	views := make([]AnnotationView, len(list))
	for i, a := range list {
		views[i] = AnnotationView{Annotation: a}
		if !renderHTML || a.Comment == "" {
			continue
		}
		html, err := h.markdown.Render(a.Comment)
		if err != nil {
			logger.WarnContext(ctx, "failed to render comment", "annotation_id", a.ID, "error", err)
			continue
		}
		views[i].CommentHTML = html
	}
	writeJSON(ctx, w, http.StatusOK, views)
}

// Create stores a new annotation: POST /api/annotations
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAnnotationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.annotations.Create(ctx, service.CreateAnnotationRequest{
		FilePath:        req.FilePath,
		StartLine:       req.StartLine,
		EndLine:         req.EndLine,
		StartColumn:     req.StartColumn,
		EndColumn:       req.EndColumn,
		SelectedText:    req.SelectedText,
		Comment:         req.Comment,
		PreContextHash:  req.PreContextHash,
		PostContextHash: req.PostContextHash,
		FileDigest:      req.FileDigest,
		Tags:            req.Tags,
		Priority:        req.Priority,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create annotation")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, a)
}

// Update applies a partial update: PUT /api/annotations/{id}
func (h *AnnotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateAnnotationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	a, err := h.annotations.Update(ctx, service.UpdateAnnotationRequest{
		ID:           chi.URLParam(r, "id"),
		FilePath:     req.FilePath,
		StartLine:    req.StartLine,
		EndLine:      req.EndLine,
		StartColumn:  req.StartColumn,
		EndColumn:    req.EndColumn,
		SelectedText: req.SelectedText,
		Comment:      req.Comment,
		FileDigest:   req.FileDigest,
		Tags:         req.Tags,
		Priority:     req.Priority,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update annotation")
		return
	}
	writeJSON(ctx, w, http.StatusOK, a)
}

// Delete removes an annotation: DELETE /api/annotations/{id}
func (h *AnnotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.annotations.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete annotation")
		return
	}
	writeJSON(ctx, w, http.StatusOK, OKResponse{OK: true})
}

// Import merges a bundle: POST /api/annotations/import
func (h *AnnotationHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var bundle service.ImportBundle
	if !decodeJSON(w, r, &bundle) {
		return
	}

	res, err := h.annotations.Import(ctx, bundle)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to import annotations")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}

// Export returns every annotation: GET /api/annotations/export
func (h *AnnotationHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bundle, err := h.annotations.Export(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to export annotations")
		return
	}
	writeJSON(ctx, w, http.StatusOK, bundle)
}
