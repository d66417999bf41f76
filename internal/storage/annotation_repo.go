package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_annotation_store.go -package=mocks annoloom/internal/storage AnnotationStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// IDConflictError is returned by ImportMerge when an incoming id already
// belongs to an annotation of another workspace.
type IDConflictError struct {
	ID string
}

func (e *IDConflictError) Error() string {
	return fmt.Sprintf("annotation id %s belongs to another workspace", e.ID)
}

// AnnotationStore defines the interface for annotation storage operations.
// Every operation is scoped to the workspace the store was created for.
type AnnotationStore interface {
	// List returns all annotations, newest first.
	List(ctx context.Context) ([]Annotation, error)
	// ListByFile returns the annotations pinned to filePath, newest first.
	ListByFile(ctx context.Context, filePath string) ([]Annotation, error)
	// ListByIDs returns the annotations with the given ids. An empty slice means all.
	ListByIDs(ctx context.Context, ids []string) ([]Annotation, error)
	// Get returns nil and ErrNotFound if the annotation does not exist.
	Get(ctx context.Context, id string) (*Annotation, error)
	Insert(ctx context.Context, a *Annotation) error
	// Update replaces every field of the annotation with the same id.
	Update(ctx context.Context, a *Annotation) error
	// Delete removes the annotation; deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	// ImportMerge merges records by id, keeping whichever has the later UpdatedAt.
	ImportMerge(ctx context.Context, in []Annotation) (ImportResult, error)
}

const annotationColumns = `id, file_path, start_line, end_line, start_column, end_column, selected_text, comment,
	pre_context_hash, post_context_hash, file_digest, tags, priority, created_at, updated_at`

// AnnotationRepo provides methods for annotation operations.
// It implements the AnnotationStore interface.
type AnnotationRepo struct {
	db          *sql.DB
	workspaceID string
}

// NewAnnotationRepo creates a new AnnotationRepo bound to workspaceID.
func NewAnnotationRepo(db *sql.DB, workspaceID string) *AnnotationRepo {
	return &AnnotationRepo{db: db, workspaceID: workspaceID}
}

// List returns all annotations of the workspace ordered by creation time, newest first.
func (r *AnnotationRepo) List(ctx context.Context) ([]Annotation, error) {
	return r.query(ctx,
		"SELECT "+annotationColumns+" FROM annotations WHERE workspace_id = ? ORDER BY created_at DESC",
		r.workspaceID,
	)
}

// ListByFile returns the annotations of one file ordered by creation time, newest first.
func (r *AnnotationRepo) ListByFile(ctx context.Context, filePath string) ([]Annotation, error) {
	return r.query(ctx,
		"SELECT "+annotationColumns+" FROM annotations WHERE workspace_id = ? AND file_path = ? ORDER BY created_at DESC",
		r.workspaceID, filePath,
	)
}

// ListByIDs returns the annotations with the given ids; an empty id list returns all.
func (r *AnnotationRepo) ListByIDs(ctx context.Context, ids []string) ([]Annotation, error) {
	if len(ids) == 0 {
		return r.List(ctx)
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, r.workspaceID)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	return r.query(ctx,
		"SELECT "+annotationColumns+" FROM annotations WHERE workspace_id = ? AND id IN ("+placeholders+") ORDER BY created_at DESC",
		args...,
	)
}

// Get gets an annotation by id.
// Returns nil and ErrNotFound if not found.
func (r *AnnotationRepo) Get(ctx context.Context, id string) (*Annotation, error) {
	return getAnnotation(ctx, r.db, r.workspaceID, id)
}

// Insert stores a new annotation. A missing id is generated.
func (r *AnnotationRepo) Insert(ctx context.Context, a *Annotation) error {
	return insertAnnotation(ctx, r.db, r.workspaceID, a)
}

// Update replaces the stored annotation with the same id.
func (r *AnnotationRepo) Update(ctx context.Context, a *Annotation) error {
	return updateAnnotation(ctx, r.db, r.workspaceID, a)
}

// Delete removes an annotation by id.
func (r *AnnotationRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM annotations WHERE id = ? AND workspace_id = ?",
		id, r.workspaceID,
	); err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}
	return nil
}

// ImportMerge inserts unknown records, replaces known ones whose UpdatedAt is strictly
// later than the stored one, and skips the rest. The whole batch runs in one transaction.
func (r *AnnotationRepo) ImportMerge(ctx context.Context, in []Annotation) (ImportResult, error) {
	var res ImportResult

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := range in {
		a := in[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}

		existing, err := getAnnotation(ctx, tx, r.workspaceID, a.ID)
		switch {
		case err == ErrNotFound:
			taken, err := idTaken(ctx, tx, a.ID)
			if err != nil {
				return ImportResult{}, err
			}
			if taken {
				return ImportResult{}, &IDConflictError{ID: a.ID}
			}
			if err := insertAnnotation(ctx, tx, r.workspaceID, &a); err != nil {
				return ImportResult{}, err
			}
			res.Added++
		case err != nil:
			return ImportResult{}, err
		case a.UpdatedAt > existing.UpdatedAt:
			if err := updateAnnotation(ctx, tx, r.workspaceID, &a); err != nil {
				return ImportResult{}, err
			}
			res.Updated++
		default:
			res.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return res, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getAnnotation(ctx context.Context, q queryer, workspaceID, id string) (*Annotation, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+annotationColumns+" FROM annotations WHERE id = ? AND workspace_id = ?",
		id, workspaceID,
	)
	a, err := scanAnnotation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query annotation: %w", err)
	}
	return a, nil
}

// idTaken reports whether id exists in any workspace.
func idTaken(ctx context.Context, q queryer, id string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM annotations WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check annotation id: %w", err)
	}
	return n > 0, nil
}

func insertAnnotation(ctx context.Context, q queryer, workspaceID string, a *Annotation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	normalize(a)

	tags, err := encodeTags(a.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO annotations (id, workspace_id, file_path, start_line, end_line, start_column, end_column,
		 selected_text, comment, pre_context_hash, post_context_hash, file_digest, tags, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, workspaceID, a.FilePath, a.StartLine, a.EndLine, a.StartColumn, a.EndColumn,
		a.SelectedText, a.Comment, a.PreContextHash, a.PostContextHash, a.FileDigest, tags, a.Priority,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}
	return nil
}

func updateAnnotation(ctx context.Context, q queryer, workspaceID string, a *Annotation) error {
	normalize(a)

	tags, err := encodeTags(a.Tags)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`UPDATE annotations SET file_path = ?, start_line = ?, end_line = ?, start_column = ?, end_column = ?,
		 selected_text = ?, comment = ?, pre_context_hash = ?, post_context_hash = ?, file_digest = ?, tags = ?,
		 priority = ?, created_at = ?, updated_at = ?
		 WHERE id = ? AND workspace_id = ?`,
		a.FilePath, a.StartLine, a.EndLine, a.StartColumn, a.EndColumn,
		a.SelectedText, a.Comment, a.PreContextHash, a.PostContextHash, a.FileDigest, tags,
		a.Priority, a.CreatedAt, a.UpdatedAt,
		a.ID, workspaceID,
	)
	if err != nil {
		return fmt.Errorf("failed to update annotation: %w", err)
	}
	return nil
}

// normalize fills defaults for records coming from older exports or partial input.
func normalize(a *Annotation) {
	if a.Priority == "" {
		a.Priority = DefaultPriority
	}
	if a.CreatedAt == "" {
		a.CreatedAt = Now()
	}
	if a.UpdatedAt == "" {
		a.UpdatedAt = a.CreatedAt
	}
}

func (r *AnnotationRepo) query(ctx context.Context, query string, args ...any) ([]Annotation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	annotations := []Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotations: %w", err)
	}
	return annotations, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(s scanner) (*Annotation, error) {
	var (
		a                      Annotation
		startCol, endCol       sql.NullInt64
		preHash, postHash, dig sql.NullString
		tags, priority         sql.NullString
	)
	if err := s.Scan(
		&a.ID, &a.FilePath, &a.StartLine, &a.EndLine, &startCol, &endCol, &a.SelectedText, &a.Comment,
		&preHash, &postHash, &dig, &tags, &priority, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.StartColumn = intPtr(startCol)
	a.EndColumn = intPtr(endCol)
	a.PreContextHash = stringPtr(preHash)
	a.PostContextHash = stringPtr(postHash)
	a.FileDigest = stringPtr(dig)
	a.Priority = priority.String
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &a.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	return &a, nil
}

func encodeTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
