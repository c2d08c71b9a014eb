package asset

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func TestDimensions(t *testing.T) {
	encoders := []struct {
		format string
		encode func(io.Writer, image.Image) error
	}{
		{"png", png.Encode},
		{"bmp", bmp.Encode},
		{"tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }},
	}
	for _, e := range encoders {
		t.Run(e.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := e.encode(&buf, testImage(40, 25)); err != nil {
				t.Fatalf("encode: %v", err)
			}
			size, format, err := Dimensions(&buf)
			if err != nil {
				t.Fatalf("Dimensions() error = %v", err)
			}
			if format != e.format || size.Width != 40 || size.Height != 25 {
				t.Errorf("Dimensions() = %+v, %q", size, format)
			}
		})
	}
}

func TestDimensionsRejectsNonImage(t *testing.T) {
	_, _, err := Dimensions(strings.NewReader("not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Dimensions() error = %v, want ErrUnsupportedFormat", err)
	}
}

func upload(t *testing.T, h *Handler, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	return rec
}

func TestUploadAndContent(t *testing.T) {
	h := NewHandler(t.TempDir())

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, testImage(64, 48)); err != nil {
		t.Fatal(err)
	}
	rec := upload(t, h, "plan.bmp", buf.Bytes())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Width != 64 || resp.Height != 48 || resp.Type != "bmp" || resp.Name != "plan.bmp" {
		t.Errorf("response = %+v", resp)
	}
	if !strings.HasSuffix(resp.URL, resp.ID+".bmp") {
		t.Errorf("URL = %q", resp.URL)
	}

	size, err := h.Content(resp.ID)
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	if size.Width != 64 || size.Height != 48 {
		t.Errorf("Content() = %+v", size)
	}

	if err := h.Delete(resp.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := h.Content(resp.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Content() after delete error = %v, want ErrNotFound", err)
	}
}

func TestUploadRejectsText(t *testing.T) {
	h := NewHandler(t.TempDir())
	rec := upload(t, h, "notes.txt", []byte("hello"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestContentRejectsForeignID(t *testing.T) {
	h := NewHandler(t.TempDir())
	if _, err := h.Content("../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Content() error = %v, want ErrNotFound", err)
	}
}
