package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/starford/lookviz/internal/apperr"
)

const defaultMaxUploadBytes = 10 << 20

// uploadName validates that the client filename is a plain name (no path
// separators, no traversal) and returns it.
func uploadName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required: %w", apperr.ErrInvalidArgument)
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename %s: %w", name, apperr.ErrInvalidArgument)
	}
	return cleaned, nil
}

// UploadDashboard handles POST /api/dashboards (multipart/form-data, field
// "file"). The stored dashboard becomes the session's current dashboard.
//
//	@Summary		Upload and analyze a dashboard file
//	@Tags			dashboards
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"LookML dashboard (.lookml, .yaml, .yml)"
//	@Success		201		{object}	models.Report
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dashboards [post]
func (h *Handler) UploadDashboard(maxBytes int64) http.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
			return
		}
		defer file.Close()

		name, err := uploadName(header.Filename)
		if err != nil {
			writeError(w, r, "upload", err)
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
			return
		}

		report, err := h.svc.Save(r.Context(), name, data)
		if err != nil {
			writeError(w, r, "upload", err)
			return
		}
		if err := h.sessions.SetCurrent(w, r, name); err != nil {
			writeError(w, r, "save session", err)
			return
		}
		writeJSON(w, http.StatusCreated, report)
	}
}
