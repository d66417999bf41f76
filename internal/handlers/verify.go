package handlers

import (
	"net/http"

	"annoloom/internal/service"
)

// VerifyHandler runs a synchronous resynchronization pass.
type VerifyHandler struct {
	verifier service.Verifier
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(verifier service.Verifier) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

// VerifyRequest is the payload of POST /api/annotations/verify.
type VerifyRequest struct {
	FilePath       string   `json:"filePath"`
	IDs            []string `json:"ids,omitempty"`
	Window         *int     `json:"window,omitempty"`
	FullLimitBytes *int64   `json:"fullLimitBytes,omitempty"`
	RemoveBroken   *bool    `json:"removeBroken,omitempty"`
}

// ServeHTTP verifies the annotations of one file and returns the pass result.
func (h *VerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.verifier.Verify(ctx, service.VerifyRequest{
		FilePath:       req.FilePath,
		IDs:            req.IDs,
		Window:         req.Window,
		FullLimitBytes: req.FullLimitBytes,
		RemoveBroken:   req.RemoveBroken,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to verify annotations")
		return
	}
	writeJSON(ctx, w, http.StatusOK, res)
}
