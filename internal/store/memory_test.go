package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/codepanda/gestureimage/internal/area"
	"github.com/codepanda/gestureimage/internal/mapfile"
)

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)

func floor() mapfile.Map {
	return mapfile.Map{
		Name: "Floor",
		Areas: []area.Descriptor{
			{Shape: "rect", ID: 1, Name: "door", Coords: []float64{0, 0, 10, 10}, Attrs: map[string]string{"href": "/door"}},
		},
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	if _, err := repo.Get(ctx, "floor"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() on empty repo error = %v, want ErrNotFound", err)
	}

	stored, err := repo.Put(ctx, floor())
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if !stored.UpdatedAt.Equal(fixed) {
		t.Errorf("UpdatedAt = %v, want %v", stored.UpdatedAt, fixed)
	}

	got, err := repo.Get(ctx, "FLOOR")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Floor" || len(got.Areas) != 1 {
		t.Errorf("Get() = %+v", got)
	}

	// Mutating a returned map must not leak into the repository.
	got.Areas[0].Coords[0] = 99
	got.Areas[0].Attrs["href"] = "changed"
	again, _ := repo.Get(ctx, "floor")
	if again.Areas[0].Coords[0] != 0 || again.Areas[0].Attrs["href"] != "/door" {
		t.Errorf("repository state changed through a returned map: %+v", again.Areas[0])
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 || list[0].Areas != 1 {
		t.Errorf("List() = %+v, %v", list, err)
	}

	if err := repo.Delete(ctx, "floor"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "floor"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryRepositoryRejectsEmptyName(t *testing.T) {
	_, err := NewMemoryRepository().Put(context.Background(), mapfile.Map{Name: "  "})
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("Put() error = %v, want ErrInvalidName", err)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	maps, err := mapfile.SampleMaps(nil)
	if err != nil {
		t.Fatalf("SampleMaps() error = %v", err)
	}
	if err := Seed(ctx, repo, maps); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	list, _ := repo.List(ctx)
	if len(list) != len(maps) {
		t.Errorf("List() has %d maps, want %d", len(list), len(maps))
	}
	if list[0].Name != "detail" || list[1].Name != "sample" {
		t.Errorf("List() order = %v", list)
	}
}

func TestMalformedCoordsStoreAsJSON(t *testing.T) {
	ctx := context.Background()
	m, err := mapfile.Decode(strings.NewReader(`<maps><map name="smudged">
  <area shape="rect" coords="20,x,30,30" id="@+id/smudge" />
  <area shape="rect" coords="0,0,10,10" id="@+id/door" />
</map></maps>`), mapfile.FormatXML, "smudged", nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	repo := NewMemoryRepository()
	if _, err := repo.Put(ctx, *m); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	stored, err := repo.Get(ctx, "smudged")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// The Postgres repository stores areas with this call.
	if _, err := json.Marshal(stored.Areas); err != nil {
		t.Fatalf("json.Marshal(areas) error = %v", err)
	}

	report := area.NewCatalog().Load(stored.Areas)
	if report.Loaded != 1 || len(report.Skipped) != 1 || !errors.Is(report.Skipped[0].Err, area.ErrCoordCount) {
		t.Errorf("load report = %+v", report)
	}
}
