package maps

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/auth"
	"github.com/codepanda/gestureimage/internal/mapfile"
	"github.com/codepanda/gestureimage/internal/store"
)

const maxMapSize = 1 << 20

// Notifier is told when a stored map changes.
type Notifier interface {
	MapChanged(name string, deleted bool)
}

type Handler struct {
	repo     store.Repository
	reg      *mapfile.IDRegistry
	notifier Notifier
}

func NewHandler(repo store.Repository, reg *mapfile.IDRegistry) *Handler {
	return &Handler{repo: repo, reg: reg}
}

// SetNotifier registers n to hear about puts and deletes.
func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

func (h *Handler) notify(name string, deleted bool) {
	if h.notifier != nil {
		h.notifier.MapChanged(name, deleted)
	}
}

// RegionView describes one loaded region.
type RegionView struct {
	ID     int               `json:"id"`
	Symbol string            `json:"symbol,omitempty"`
	Name   string            `json:"name,omitempty"`
	Kind   area.Kind         `json:"kind"`
	Origin [2]float64        `json:"origin"`
	Bounds area.Bounds       `json:"bounds"`
	Area   float64           `json:"area"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// MapView is a stored map after it went through the region catalog.
type MapView struct {
	Name    string       `json:"name"`
	Width   float64      `json:"width,omitempty"`
	Height  float64      `json:"height,omitempty"`
	Regions []RegionView `json:"regions"`
	Skipped []area.Skip  `json:"skipped,omitempty"`
}

type hitRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type hitResponse struct {
	Hit    bool        `json:"hit"`
	Region *RegionView `json:"region,omitempty"`
}

func (h *Handler) regionView(r area.Region) RegionView {
	x, y := r.Origin()
	v := RegionView{
		ID:     r.ID,
		Name:   r.Name,
		Kind:   r.Shape.Kind(),
		Origin: [2]float64{x, y},
		Bounds: r.Shape.Bounds(),
		Area:   r.Shape.Area(),
		Attrs:  r.Attrs(),
	}
	if name, ok := h.reg.Name(r.ID); ok {
		v.Symbol = name
	}
	return v
}

func (h *Handler) view(m *store.Map) (*MapView, *area.Catalog) {
	catalog := area.NewCatalog()
	report := catalog.Load(m.Areas)

	v := &MapView{
		Name:    m.Name,
		Width:   m.Width,
		Height:  m.Height,
		Regions: make([]RegionView, 0, report.Loaded),
		Skipped: report.Skipped,
	}
	for _, r := range catalog.Regions() {
		v.Regions = append(v.Regions, h.regionView(r))
	}
	return v, catalog
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	maps, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("list maps failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, maps)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m, err := h.repo.Get(r.Context(), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	v, _ := h.view(m)
	writeJSON(w, http.StatusOK, v)
}

// Hit tests an image-space point against a stored map.
func (h *Handler) Hit(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req hitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	m, err := h.repo.Get(r.Context(), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	_, catalog := h.view(m)
	region, ok := catalog.RegionAt(req.X, req.Y)
	if !ok {
		writeJSON(w, http.StatusOK, hitResponse{})
		return
	}
	v := h.regionView(region)
	writeJSON(w, http.StatusOK, hitResponse{Hit: true, Region: &v})
}

// Put stores a map. The body is JSON, XML or TOML according to the
// Content-Type header. For files holding several maps the one named in the
// path is taken; a file with a single map is stored under the path name.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	format, err := mapfile.FormatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
		return
	}

	maps, err := mapfile.DecodeAll(io.LimitReader(r.Body, maxMapSize), format, h.reg)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m, err := mapfile.Find(maps, name)
	if err != nil {
		if len(maps) != 1 {
			handleServiceError(w, err)
			return
		}
		m = &maps[0]
	}
	m.Name = name

	stored, err := h.repo.Put(r.Context(), *m)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	v, _ := h.view(stored)
	slog.Info("map stored", "name", name, "regions", len(v.Regions), "skipped", len(v.Skipped),
		"by", auth.Editor(r.Context()))
	h.notify(stored.Name, false)
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.repo.Delete(r.Context(), name); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("map deleted", "name", name, "by", auth.Editor(r.Context()))
	h.notify(name, true)
	w.WriteHeader(http.StatusNoContent)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, mapfile.ErrMapNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, store.ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
