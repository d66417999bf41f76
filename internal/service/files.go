package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_file_service.go -package=mocks annoloom/internal/service FileService

import (
	"context"

	"annoloom/internal/contextutil"
	"annoloom/internal/fileaccess"
)

// FileAccessor is the file accessor as seen by the service layer.
type FileAccessor interface {
	ListDir(dir string) ([]fileaccess.DirEntry, error)
	ReadChunk(path string, startLine, maxLines int) (*fileaccess.Chunk, error)
	ReadFull(path string) (*fileaccess.FullFile, error)
	Write(path, content, expectedDigest string) (string, error)
}

// ResyncTrigger schedules a background pass for a file.
type ResyncTrigger interface {
	Trigger(path string)
}

// FileService exposes the served root. Errors are *fileaccess.Error values.
type FileService interface {
	Tree(ctx context.Context, dir string) ([]fileaccess.DirEntry, error)
	ReadChunk(ctx context.Context, path string, startLine, maxLines int) (*fileaccess.Chunk, error)
	ReadFull(ctx context.Context, path string) (*fileaccess.FullFile, error)
	// Write replaces a file and schedules a resync of its annotations.
	// A non-empty baseDigest that no longer matches fails with a conflict.
	Write(ctx context.Context, path, content, baseDigest string) (string, error)
}

type fileService struct {
	files   FileAccessor
	trigger ResyncTrigger
}

// NewFileService creates a new FileService.
func NewFileService(files FileAccessor, trigger ResyncTrigger) FileService {
	return &fileService{files: files, trigger: trigger}
}

func (s *fileService) Tree(ctx context.Context, dir string) ([]fileaccess.DirEntry, error) {
	return s.files.ListDir(dir)
}

func (s *fileService) ReadChunk(ctx context.Context, path string, startLine, maxLines int) (*fileaccess.Chunk, error) {
	return s.files.ReadChunk(path, startLine, maxLines)
}

func (s *fileService) ReadFull(ctx context.Context, path string) (*fileaccess.FullFile, error) {
	return s.files.ReadFull(path)
}

func (s *fileService) Write(ctx context.Context, path, content, baseDigest string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	digest, err := s.files.Write(path, content, baseDigest)
	if err != nil {
		logger.WarnContext(ctx, "file write rejected", "path", path, "code", fileaccess.CodeOf(err), "error", err)
		return "", err
	}

	logger.InfoContext(ctx, "file written", "path", path, "bytes", len(content))
	if s.trigger != nil {
		s.trigger.Trigger(path)
	}
	return digest, nil
}
