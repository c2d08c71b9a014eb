package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/codepanda/gestureimage/internal/engine"
	"github.com/codepanda/gestureimage/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

var (
	ErrNotFound          = errors.New("asset not found")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyImage        = errors.New("image has no pixels")
)

// extensions maps decoder format names to stored file extensions.
var extensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"bmp":  ".bmp",
	"tiff": ".tiff",
	"webp": ".webp",
}

// Dimensions reads only the image header and returns the intrinsic size and
// the decoder format name.
func Dimensions(r io.Reader) (engine.Content, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return engine.Content{}, "", ErrUnsupportedFormat
		}
		return engine.Content{}, "", fmt.Errorf("decode image header: %w", err)
	}
	if _, ok := extensions[format]; !ok {
		return engine.Content{}, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return engine.Content{}, "", ErrEmptyImage
	}
	return engine.Content{Width: float64(cfg.Width), Height: float64(cfg.Height)}, format, nil
}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir string // directory to store asset files
}

// NewHandler creates a new asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
// The file is stored unchanged; only its header is decoded.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	size, format, err := Dimensions(bytes.NewReader(data))
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	assetID := typeid.NewAssetID()
	filename := assetID + extensions[format]
	filePath := filepath.Join(h.dir, filename)

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		slog.Error("write asset file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	slog.Info("asset stored", "id", assetID, "format", format, "width", size.Width, "height", size.Height)

	resp := UploadResponse{
		ID:     assetID,
		URL:    fmt.Sprintf("/assets/%s", filename),
		Width:  int(size.Width),
		Height: int(size.Height),
		Type:   format,
		Name:   header.Filename,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// path finds the stored file for assetID.
func (h *Handler) path(assetID string) (string, error) {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	for _, ext := range extensions {
		p := filepath.Join(h.dir, assetID+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, assetID)
}

// Content returns the intrinsic size of a stored asset.
func (h *Handler) Content(assetID string) (engine.Content, error) {
	p, err := h.path(assetID)
	if err != nil {
		return engine.Content{}, err
	}
	f, err := os.Open(p)
	if err != nil {
		return engine.Content{}, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()

	size, _, err := Dimensions(f)
	return size, err
}

// Delete removes an asset file from disk.
func (h *Handler) Delete(assetID string) error {
	p, err := h.path(assetID)
	if err != nil {
		return err
	}
	return os.Remove(p)
}
