package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFetchSpecs(t *testing.T) {
	t.Run("everything", func(t *testing.T) {
		specs, err := fetchSpecs(nil, "all")
		if err != nil {
			t.Fatalf("fetchSpecs failed: %v", err)
		}
		if len(specs) != 21 {
			t.Errorf("Expected 21 specs, got %d", len(specs))
		}
	})

	t.Run("one feature one scale", func(t *testing.T) {
		specs, err := fetchSpecs([]string{"coastline"}, "h")
		if err != nil {
			t.Fatalf("fetchSpecs failed: %v", err)
		}
		if len(specs) != 1 || specs[0].ID != "ne_10m_coastline" {
			t.Errorf("Expected ne_10m_coastline, got %v", specs)
		}
	})

	t.Run("county vocabulary", func(t *testing.T) {
		specs, err := fetchSpecs([]string{"counties"}, "l")
		if err != nil {
			t.Fatalf("fetchSpecs failed: %v", err)
		}
		if len(specs) != 1 || specs[0].ID != "us_counties_20m" {
			t.Errorf("Expected us_counties_20m, got %v", specs)
		}
	})

	t.Run("unknown feature", func(t *testing.T) {
		if _, err := fetchSpecs([]string{"rivers"}, "all"); err == nil {
			t.Error("Expected error for unknown feature, got nil")
		}
	})

	t.Run("unknown resolution", func(t *testing.T) {
		if _, err := fetchSpecs([]string{"coastline"}, "ultra"); err == nil {
			t.Error("Expected error for unknown resolution, got nil")
		}
	})
}

func TestReadGridCSV(t *testing.T) {
	csvData := `,-10,0,10
30,1,2,3
40,4,5,6`
	grid, err := readGridCSV(strings.NewReader(csvData), "test.csv")
	if err != nil {
		t.Fatalf("readGridCSV failed: %v", err)
	}
	if len(grid.Lon) != 3 || grid.Lon[0] != -10 || grid.Lon[2] != 10 {
		t.Errorf("Expected longitudes [-10 0 10], got %v", grid.Lon)
	}
	if len(grid.Lat) != 2 || grid.Lat[0] != 30 || grid.Lat[1] != 40 {
		t.Errorf("Expected latitudes [30 40], got %v", grid.Lat)
	}
	if len(grid.Z) != 2 || grid.Z[1][2] != 6 {
		t.Errorf("Expected z[1][2] = 6, got %v", grid.Z)
	}
}

func TestReadGridCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"ragged row", ",0,10\n30,1\n"},
		{"bad value", ",0,10\n30,1,x\n"},
		{"header only", ",0,10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readGridCSV(strings.NewReader(tt.csv), "test.csv"); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

// offlineEnv confines dataset lookups to temp dirs with downloads off.
func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BASEMAP_DATA_DIR", t.TempDir())
	t.Setenv("BASEMAP_CACHE_DIR", t.TempDir())
	t.Setenv("BASEMAP_OFFLINE", "true")
}

func TestBuildMap(t *testing.T) {
	offlineEnv(t)
	logger := zerolog.Nop()

	spec := MapSpec{
		Projection: "Robinson",
		Width:      400,
		Height:     300,
		Title:      "World",
		Features: []FeatureSpec{
			{Name: "land"},
			{Name: "coastlines", LineWidth: 0.8},
		},
		Graticule: &GraticuleSpec{Labels: false},
	}
	m, err := buildMap(spec, &logger)
	if err != nil {
		t.Fatalf("buildMap failed: %v", err)
	}
	if m.Proj.Name() != "Robinson" {
		t.Errorf("Expected Robinson projection, got %s", m.Proj.Name())
	}
}

func TestBuildMapErrors(t *testing.T) {
	offlineEnv(t)
	logger := zerolog.Nop()

	t.Run("unknown feature", func(t *testing.T) {
		_, err := buildMap(MapSpec{Features: []FeatureSpec{{Name: "rivers"}}}, &logger)
		if err == nil || !strings.Contains(err.Error(), "rivers") {
			t.Errorf("Expected unknown feature error, got %v", err)
		}
	})

	t.Run("short extent", func(t *testing.T) {
		_, err := buildMap(MapSpec{Extent: []float64{0, 10}}, &logger)
		if err == nil {
			t.Error("Expected error for short extent, got nil")
		}
	})

	t.Run("unknown projection", func(t *testing.T) {
		_, err := buildMap(MapSpec{Projection: "Gnomonic"}, &logger)
		if err == nil {
			t.Error("Expected error for unknown projection, got nil")
		}
	})
}

func TestLoadMapRejectsUnknownKeys(t *testing.T) {
	offlineEnv(t)
	logger := zerolog.Nop()

	path := filepath.Join(t.TempDir(), "map.yaml")
	if err := os.WriteFile(path, []byte("projection: Mercator\nbogus: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadMap(path, &logger); err == nil {
		t.Error("Expected error for unknown spec key, got nil")
	}
}

func TestLoadMapSpec(t *testing.T) {
	offlineEnv(t)
	logger := zerolog.Nop()

	path := filepath.Join(t.TempDir(), "map.yaml")
	doc := `projection: PlateCarree
extent: [-20, 40, 30, 60]
features:
  - name: land
    color: "#e6e6e6"
  - name: coastlines
title: Europe
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := loadMap(path, &logger)
	if err != nil {
		t.Fatalf("loadMap failed: %v", err)
	}
	if m == nil {
		t.Fatal("Expected a map, got nil")
	}
}
