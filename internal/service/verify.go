package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_verifier.go -package=mocks annoloom/internal/service Verifier

import (
	"context"
	"strings"

	"annoloom/internal/contextutil"
	"annoloom/internal/resync"
)

// Resyncer runs a resynchronization pass for one file.
type Resyncer interface {
	Resync(ctx context.Context, path string, opts resync.Options) (resync.Result, error)
}

// VerifyRequest asks for a pass over one file. Nil fields use the defaults.
type VerifyRequest struct {
	FilePath       string
	IDs            []string
	Window         *int
	FullLimitBytes *int64
	RemoveBroken   *bool
}

// Verifier runs explicit, synchronous verification passes.
type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (resync.Result, error)
}

type verifier struct {
	engine Resyncer
}

// NewVerifier creates a new Verifier backed by engine.
func NewVerifier(engine Resyncer) Verifier {
	return &verifier{engine: engine}
}

// Verify validates the request and runs the pass. The window is clamped to
// 1..resync.MaxWindow and removeBroken defaults to true.
func (v *verifier) Verify(ctx context.Context, req VerifyRequest) (resync.Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.FilePath) == "" {
		return resync.Result{}, &ValidationError{Field: "filePath", Message: "is required"}
	}

	opts := resync.Options{
		RemoveBroken: true,
		IDs:          req.IDs,
	}
	if req.Window != nil {
		opts.Window = min(max(*req.Window, 1), resync.MaxWindow)
	}
	if req.FullLimitBytes != nil {
		if *req.FullLimitBytes <= 0 {
			return resync.Result{}, &ValidationError{Field: "fullLimitBytes", Message: "must be positive"}
		}
		opts.FullLimitBytes = *req.FullLimitBytes
	}
	if req.RemoveBroken != nil {
		opts.RemoveBroken = *req.RemoveBroken
	}

	res, err := v.engine.Resync(ctx, req.FilePath, opts)
	if err != nil {
		logger.ErrorContext(ctx, "verification failed", "file_path", req.FilePath, "error", err)
		return resync.Result{}, WrapError(err, "failed to verify annotations")
	}
	return res, nil
}
