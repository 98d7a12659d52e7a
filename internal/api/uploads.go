package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes is used when no upload limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// UploadHandler stores uploaded images and serves them back.
type UploadHandler struct {
	dir      string
	maxBytes int64
}

// NewUploadHandler creates a handler storing files in dir.
func NewUploadHandler(dir string, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadHandler{dir: dir, maxBytes: maxBytes}
}

// safeName validates that name is a plain file name inside the upload dir
// and returns its absolute path.
func (h *UploadHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.dir, cleaned)
	if !strings.HasPrefix(abs, filepath.Clean(h.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes upload directory")
	}
	return abs, nil
}

// storedName is a time-ordered UUID plus the lowercased original extension.
func storedName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String() + ext
}

// publicURL builds the absolute URL clients use to fetch an upload.
func publicURL(r *http.Request, name string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return fmt.Sprintf("%s://%s/uploads/%s", scheme, r.Host, name)
}

// ServeFile handles GET /uploads/{filename}.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "filename"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/upload (multipart/form-data, field "image").
//
//	@Summary	Upload an image for a topic note
//	@Tags		uploads
//	@Accept		mpfd
//	@Produce	json
//	@Param		image	formData	file	true	"Image file"
//	@Success	200		{object}	UploadResponse
//	@Failure	400		{object}	errResponse
//	@Router		/upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No file uploaded"))
		return
	}
	defer file.Close()

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		writeError(w, "create upload dir", err)
		return
	}

	name := storedName(header.Filename)
	abs, err := h.safeName(name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	dst, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		writeError(w, "create upload", err, slog.String("name", name))
		return
	}
	written, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(abs)
		writeError(w, "write upload", err, slog.String("name", name))
		return
	}

	slog.Info("image uploaded", slog.String("name", name), slog.Int64("size", written))
	writeJSON(w, http.StatusOK, UploadResponse{ImageURL: publicURL(r, name)})
}
