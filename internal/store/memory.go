package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/mapfile"
)

// MemoryRepository keeps maps in process memory.
type MemoryRepository struct {
	mu   sync.RWMutex
	maps map[string]*Map
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		maps: make(map[string]*Map),
		now:  time.Now,
	}
}

func (r *MemoryRepository) Get(_ context.Context, name string) (*Map, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.maps[key(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return clone(m), nil
}

func (r *MemoryRepository) Put(_ context.Context, m mapfile.Map) (*Map, error) {
	k := key(m.Name)
	if k == "" {
		return nil, ErrInvalidName
	}

	stored := clone(&Map{Map: m, UpdatedAt: r.now().UTC()})

	r.mu.Lock()
	r.maps[k] = stored
	r.mu.Unlock()

	return clone(stored), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Summary, 0, len(r.maps))
	for _, m := range r.maps {
		out = append(out, summarize(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(name)
	if _, ok := r.maps[k]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(r.maps, k)
	return nil
}

func summarize(m *Map) Summary {
	return Summary{
		Name:      m.Name,
		Areas:     len(m.Areas),
		Width:     m.Width,
		Height:    m.Height,
		UpdatedAt: m.UpdatedAt,
	}
}

// clone copies the area slice and attribute maps so callers never share
// state with the repository.
func clone(m *Map) *Map {
	out := *m
	out.Areas = make([]area.Descriptor, len(m.Areas))
	for i, d := range m.Areas {
		d.Coords = append([]float64(nil), d.Coords...)
		if d.Attrs != nil {
			attrs := make(map[string]string, len(d.Attrs))
			for k, v := range d.Attrs {
				attrs[k] = v
			}
			d.Attrs = attrs
		}
		out.Areas[i] = d
	}
	return &out
}
