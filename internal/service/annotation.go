package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_annotation_service.go -package=mocks annoloom/internal/service AnnotationService

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"annoloom/internal/contextutil"
	"annoloom/internal/storage"
)

// SchemaVersion is written into every export and accepted on import.
const SchemaVersion = "1"

// PathScope translates between the root-relative paths callers use and the
// workspace-relative paths annotations are stored under.
type PathScope interface {
	ToWorkspaceRelative(rootRel string) string
	FromWorkspaceToRoot(wsRel string) string
	Contains(wsRel string) bool
	Filter(in []storage.Annotation) []storage.Annotation
}

// CreateAnnotationRequest carries the fields of a new annotation.
type CreateAnnotationRequest struct {
	FilePath        string
	StartLine       int
	EndLine         int
	StartColumn     *int
	EndColumn       *int
	SelectedText    string
	Comment         string
	PreContextHash  *string
	PostContextHash *string
	FileDigest      *string
	Tags            []string
	Priority        string
}

// UpdateAnnotationRequest carries a partial update; nil fields are left unchanged.
type UpdateAnnotationRequest struct {
	ID           string
	FilePath     *string
	StartLine    *int
	EndLine      *int
	StartColumn  *int
	EndColumn    *int
	SelectedText *string
	Comment      *string
	FileDigest   *string
	Tags         *[]string
	Priority     *string
}

// ImportBundle is the payload accepted by Import.
type ImportBundle struct {
	SchemaVersion string               `json:"schemaVersion,omitempty"`
	Annotations   []storage.Annotation `json:"annotations"`
}

// ExportBundle is the payload produced by Export.
type ExportBundle struct {
	SchemaVersion string               `json:"schemaVersion"`
	Annotations   []storage.Annotation `json:"annotations"`
	ExportedAt    string               `json:"exportedAt"`
}

// AnnotationService manages the annotations visible under the served root.
// Paths in requests and results are root-relative.
type AnnotationService interface {
	// List returns the annotations under the served root, newest first.
	List(ctx context.Context) ([]storage.Annotation, error)
	// Create validates and stores a new annotation.
	Create(ctx context.Context, req CreateAnnotationRequest) (storage.Annotation, error)
	// Update applies a partial update. Returns ErrNotFound if the id is unknown.
	Update(ctx context.Context, req UpdateAnnotationRequest) (storage.Annotation, error)
	// Delete removes an annotation. Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) error
	// Import merges a bundle into the store by id and updatedAt.
	Import(ctx context.Context, bundle ImportBundle) (storage.ImportResult, error)
	// Export returns every annotation under the served root.
	Export(ctx context.Context) (ExportBundle, error)
}

// annotationService implements AnnotationService.
type annotationService struct {
	store storage.AnnotationStore
	scope PathScope
}

// NewAnnotationService creates a new AnnotationService.
func NewAnnotationService(store storage.AnnotationStore, scope PathScope) AnnotationService {
	return &annotationService{
		store: store,
		scope: scope,
	}
}

func (s *annotationService) List(ctx context.Context) ([]storage.Annotation, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to list annotations", "error", err)
		return nil, WrapError(err, "failed to list annotations")
	}
	return s.scope.Filter(all), nil
}

func (s *annotationService) Create(ctx context.Context, req CreateAnnotationRequest) (storage.Annotation, error) {
	logger := contextutil.LoggerFromContext(ctx)

	now := storage.Now()
	a := storage.Annotation{
		ID:              uuid.New().String(),
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
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if a.Priority == "" {
		a.Priority = storage.DefaultPriority
	}
	if err := validate(&a, ""); err != nil {
		logger.WarnContext(ctx, "invalid annotation", "error", err)
		return storage.Annotation{}, err
	}

	rootRel := a.FilePath
	a.FilePath = s.scope.ToWorkspaceRelative(rootRel)
	if err := s.store.Insert(ctx, &a); err != nil {
		logger.ErrorContext(ctx, "failed to insert annotation", "error", err)
		return storage.Annotation{}, WrapError(err, "failed to create annotation")
	}

	logger.InfoContext(ctx, "annotation created", "annotation_id", a.ID, "file_path", rootRel)
	a.FilePath = rootRel
	return a, nil
}

func (s *annotationService) Update(ctx context.Context, req UpdateAnnotationRequest) (storage.Annotation, error) {
	logger := contextutil.LoggerFromContext(ctx)

	a, err := s.get(ctx, req.ID)
	if err != nil {
		return storage.Annotation{}, err
	}

	if req.FilePath != nil {
		a.FilePath = *req.FilePath
	} else {
		a.FilePath = s.scope.FromWorkspaceToRoot(a.FilePath)
	}
	if req.StartLine != nil {
		a.StartLine = *req.StartLine
	}
	if req.EndLine != nil {
		a.EndLine = *req.EndLine
	}
	if req.StartColumn != nil {
		a.StartColumn = req.StartColumn
	}
	if req.EndColumn != nil {
		a.EndColumn = req.EndColumn
	}
	if req.SelectedText != nil {
		a.SelectedText = *req.SelectedText
	}
	if req.Comment != nil {
		a.Comment = *req.Comment
	}
	if req.FileDigest != nil {
		a.FileDigest = req.FileDigest
	}
	if req.Tags != nil {
		a.Tags = *req.Tags
	}
	if req.Priority != nil {
		a.Priority = *req.Priority
	}
	if err := validate(a, ""); err != nil {
		logger.WarnContext(ctx, "invalid annotation update", "annotation_id", req.ID, "error", err)
		return storage.Annotation{}, err
	}

	rootRel := a.FilePath
	a.FilePath = s.scope.ToWorkspaceRelative(rootRel)
	a.UpdatedAt = storage.Now()
	if err := s.store.Update(ctx, a); err != nil {
		logger.ErrorContext(ctx, "failed to update annotation", "annotation_id", req.ID, "error", err)
		return storage.Annotation{}, WrapError(err, "failed to update annotation")
	}

	a.FilePath = rootRel
	return *a, nil
}

func (s *annotationService) Delete(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to delete annotation", "annotation_id", id, "error", err)
		return WrapError(err, "failed to delete annotation")
	}
	return nil
}

func (s *annotationService) Import(ctx context.Context, bundle ImportBundle) (storage.ImportResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if bundle.SchemaVersion != "" && bundle.SchemaVersion != SchemaVersion {
		return storage.ImportResult{}, &ValidationError{
			Field:   "schemaVersion",
			Message: fmt.Sprintf("unsupported version %q", bundle.SchemaVersion),
		}
	}

	in := make([]storage.Annotation, len(bundle.Annotations))
	for i, a := range bundle.Annotations {
		if a.Priority == "" {
			a.Priority = storage.DefaultPriority
		}
		prefix := fmt.Sprintf("annotations[%d].", i)
		if err := validate(&a, prefix); err != nil {
			return storage.ImportResult{}, err
		}
		if err := normalizeTimes(&a, prefix); err != nil {
			return storage.ImportResult{}, err
		}
		a.FilePath = s.scope.ToWorkspaceRelative(a.FilePath)
		in[i] = a
	}

	res, err := s.store.ImportMerge(ctx, in)
	var conflict *storage.IDConflictError
	if errors.As(err, &conflict) {
		logger.WarnContext(ctx, "import rejected", "annotation_id", conflict.ID, "error", err)
		return storage.ImportResult{}, &ValidationError{
			Field:   fmt.Sprintf("annotations[%d].id", indexOfID(in, conflict.ID)),
			Message: fmt.Sprintf("%q is already used by another workspace", conflict.ID),
		}
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to import annotations", "error", err)
		return storage.ImportResult{}, WrapError(err, "failed to import annotations")
	}

	logger.InfoContext(ctx, "annotations imported", "added", res.Added, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

func (s *annotationService) Export(ctx context.Context) (ExportBundle, error) {
	list, err := s.List(ctx)
	if err != nil {
		return ExportBundle{}, err
	}
	return ExportBundle{
		SchemaVersion: SchemaVersion,
		Annotations:   list,
		ExportedAt:    storage.Now(),
	}, nil
}

// get loads an annotation that lies under the served root.
func (s *annotationService) get(ctx context.Context, id string) (*storage.Annotation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Message: "is required"}
	}
	a, err := s.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get annotation", "annotation_id", id, "error", err)
		return nil, WrapError(err, "failed to get annotation")
	}
	if !s.scope.Contains(a.FilePath) {
		return nil, ErrNotFound
	}
	return a, nil
}

// validate checks a's fields; prefix qualifies field names in batch input.
func validate(a *storage.Annotation, prefix string) error {
	a.FilePath = strings.TrimSpace(a.FilePath)
	switch {
	case a.FilePath == "":
		return &ValidationError{Field: prefix + "filePath", Message: "is required"}
	case path.IsAbs(a.FilePath) || escapesRoot(path.Clean(a.FilePath)):
		return &ValidationError{Field: prefix + "filePath", Message: "must be relative to the root"}
	case a.StartLine < 1:
		return &ValidationError{Field: prefix + "startLine", Message: "must be at least 1"}
	case a.EndLine < a.StartLine:
		return &ValidationError{Field: prefix + "endLine", Message: "must not be before startLine"}
	case a.StartColumn != nil && *a.StartColumn < 1:
		return &ValidationError{Field: prefix + "startColumn", Message: "must be at least 1"}
	case a.EndColumn != nil && *a.EndColumn < 1:
		return &ValidationError{Field: prefix + "endColumn", Message: "must be at least 1"}
	case !storage.ValidPriority(a.Priority):
		return &ValidationError{Field: prefix + "priority", Message: "must be one of P0, P1, P2"}
	}
	a.FilePath = path.Clean(a.FilePath)
	return nil
}

// normalizeTimes rewrites imported timestamps into the stored format so the
// merge compares them chronologically.
func normalizeTimes(a *storage.Annotation, prefix string) error {
	created, err := storage.NormalizeTime(a.CreatedAt)
	if err != nil {
		return &ValidationError{Field: prefix + "createdAt", Message: "must be an RFC3339 timestamp"}
	}
	updated, err := storage.NormalizeTime(a.UpdatedAt)
	if err != nil {
		return &ValidationError{Field: prefix + "updatedAt", Message: "must be an RFC3339 timestamp"}
	}
	a.CreatedAt, a.UpdatedAt = created, updated
	return nil
}

func indexOfID(in []storage.Annotation, id string) int {
	for i, a := range in {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func escapesRoot(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}
