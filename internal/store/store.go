// Package store keeps region maps so that surfaces can load them by name.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/codepanda/gestureimage/internal/mapfile"
)

var (
	ErrNotFound    = errors.New("map not found")
	ErrInvalidName = errors.New("map name is required")
)

// Map is a stored region map.
type Map struct {
	mapfile.Map
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary describes a stored map without its areas.
type Summary struct {
	Name      string    `json:"name"`
	Areas     int       `json:"areas"`
	Width     float64   `json:"width,omitempty"`
	Height    float64   `json:"height,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository stores maps by name. Names compare case-insensitively.
type Repository interface {
	Get(ctx context.Context, name string) (*Map, error)
	Put(ctx context.Context, m mapfile.Map) (*Map, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, name string) error
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Seed stores every map, stopping at the first failure.
func Seed(ctx context.Context, repo Repository, maps []mapfile.Map) error {
	for _, m := range maps {
		if _, err := repo.Put(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
