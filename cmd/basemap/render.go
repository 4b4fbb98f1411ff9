package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/beetlebugorg/basemap/pkg/basemap"
)

var (
	renderConfig string
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a map described by a YAML spec to PNG",
	Long: `Render reads a map spec and writes the finished image. A minimal spec:

    projection: LambertConformal
    centralLongitude: -96
    centralLatitude: 39
    extent: [-120, -70, 22, 50]
    features:
      - name: coastlines
      - name: states
        lineWidth: 0.7
    title: CONUS

Gridded data plots reference a JSON grid file ({"lon": [...], "lat":
[...], "z": [[...]]}, plus "u"/"v" for vector plots) or a CSV matrix
whose first row holds longitudes and first column latitudes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		m, err := loadMap(renderConfig, &logger)
		if err != nil {
			return err
		}
		if err := m.SavePNG(renderOutput); err != nil {
			return err
		}
		logger.Info().Str("output", renderOutput).Msg("map rendered")
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderConfig, "config", "c", "",
		"map spec file (required)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "map.png",
		"output PNG path")
	renderCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(renderCmd)
}

// MapSpec is the YAML description of one map.
type MapSpec struct {
	Projection        string    `json:"projection,omitempty"`
	Resolution        string    `json:"resolution,omitempty"`
	CentralLongitude  float64   `json:"centralLongitude,omitempty"`
	CentralLatitude   float64   `json:"centralLatitude,omitempty"`
	StandardParallels []float64 `json:"standardParallels,omitempty"`
	TrueScaleLatitude float64   `json:"trueScaleLatitude,omitempty"`
	BoundingLatitude  float64   `json:"boundingLatitude,omitempty"`

	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// Extent is [lonMin, lonMax, latMin, latMax] in degrees.
	Extent []float64 `json:"extent,omitempty"`

	Title      string `json:"title,omitempty"`
	Background string `json:"background,omitempty"`

	Features  []FeatureSpec  `json:"features,omitempty"`
	Graticule *GraticuleSpec `json:"graticule,omitempty"`
	Data      *DataSpec      `json:"data,omitempty"`
}

// FeatureSpec styles one drawn or filled feature.
type FeatureSpec struct {
	Name       string  `json:"name"`
	Resolution string  `json:"resolution,omitempty"`
	Color      string  `json:"color,omitempty"`
	EdgeColor  string  `json:"edgeColor,omitempty"`
	LineWidth  float64 `json:"lineWidth,omitempty"`
	LineStyle  string  `json:"lineStyle,omitempty"`
}

// GraticuleSpec draws parallels and meridians.
type GraticuleSpec struct {
	Parallels []float64 `json:"parallels,omitempty"`
	Meridians []float64 `json:"meridians,omitempty"`
	Labels    bool      `json:"labels,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// DataSpec plots a gridded field from a file.
type DataSpec struct {
	File string `json:"file"`

	// Plot is "contour", "contourf", "barbs", or "quiver".
	Plot string `json:"plot"`

	Levels    []float64     `json:"levels,omitempty"`
	Cmap      string        `json:"cmap,omitempty"`
	Colors    string        `json:"colors,omitempty"`
	LineWidth float64       `json:"lineWidth,omitempty"`
	Colorbar  *ColorbarSpec `json:"colorbar,omitempty"`
}

// ColorbarSpec appends a colorbar for the plotted data.
type ColorbarSpec struct {
	Location string `json:"location,omitempty"`
	Label    string `json:"label,omitempty"`
}

// loadMap reads a spec file and builds the fully drawn map.
func loadMap(path string, logger *zerolog.Logger) (*basemap.Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map spec: %w", err)
	}
	var spec MapSpec
	if err := yaml.UnmarshalStrict(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse map spec %s: %w", path, err)
	}
	return buildMap(spec, logger)
}

// buildMap realizes a spec: construct, set extent, draw features,
// graticule, data, and title in that order.
func buildMap(spec MapSpec, logger *zerolog.Logger) (*basemap.Map, error) {
	m, err := basemap.New(basemap.Options{
		Projection:        spec.Projection,
		Resolution:        spec.Resolution,
		CentralLongitude:  spec.CentralLongitude,
		CentralLatitude:   spec.CentralLatitude,
		StandardParallels: spec.StandardParallels,
		TrueScaleLatitude: spec.TrueScaleLatitude,
		BoundingLatitude:  spec.BoundingLatitude,
		Width:             spec.Width,
		Height:            spec.Height,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	if len(spec.Extent) > 0 {
		if len(spec.Extent) != 4 {
			return nil, fmt.Errorf("extent wants [lonMin, lonMax, latMin, latMax], got %v", spec.Extent)
		}
		e := spec.Extent
		if err := m.SetExtent(e[0], e[1], e[2], e[3]); err != nil {
			return nil, err
		}
	}

	if spec.Background != "" {
		if err := m.DrawMapBoundary(basemap.BoundaryOptions{FillColor: spec.Background}); err != nil {
			return nil, err
		}
	}

	for _, f := range spec.Features {
		if err := drawFeature(m, f); err != nil {
			return nil, err
		}
	}

	if g := spec.Graticule; g != nil {
		opts := basemap.GridOptions{Labels: g.Labels, Color: g.Color}
		if err := m.DrawParallels(g.Parallels, opts); err != nil {
			return nil, err
		}
		if err := m.DrawMeridians(g.Meridians, opts); err != nil {
			return nil, err
		}
	}

	if spec.Data != nil {
		if err := plotData(m, *spec.Data); err != nil {
			return nil, err
		}
	}

	if spec.Title != "" {
		m.Title(spec.Title)
	}
	return m, nil
}

func drawFeature(m *basemap.Map, f FeatureSpec) error {
	line := basemap.LineOptions{
		Resolution: f.Resolution,
		Color:      f.Color,
		LineWidth:  f.LineWidth,
		LineStyle:  f.LineStyle,
	}
	fill := basemap.FillOptions{
		Resolution: f.Resolution,
		Color:      f.Color,
		EdgeColor:  f.EdgeColor,
	}
	switch strings.ToLower(f.Name) {
	case "coastlines", "coastline":
		return m.DrawCoastlines(line)
	case "countries":
		return m.DrawCountries(line)
	case "states":
		return m.DrawStates(line)
	case "counties":
		return m.DrawCounties(line)
	case "land", "continents":
		return m.FillContinents(fill)
	case "ocean", "oceans":
		return m.FillOceans(fill)
	case "lakes":
		return m.FillLakes(fill)
	}
	return fmt.Errorf("unknown feature %q", f.Name)
}

func plotData(m *basemap.Map, d DataSpec) error {
	grid, err := readGridFile(d.File)
	if err != nil {
		return err
	}

	switch strings.ToLower(d.Plot) {
	case "contour":
		cs, err := m.Contour(grid.Lon, grid.Lat, grid.Z, basemap.ContourOptions{
			Levels:    d.Levels,
			Cmap:      d.Cmap,
			Colors:    d.Colors,
			LineWidth: d.LineWidth,
		})
		if err != nil {
			return err
		}
		return appendColorbar(m, cs, d.Colorbar)
	case "contourf", "":
		cs, err := m.Contourf(grid.Lon, grid.Lat, grid.Z, basemap.ContourOptions{
			Levels: d.Levels,
			Cmap:   d.Cmap,
		})
		if err != nil {
			return err
		}
		return appendColorbar(m, cs, d.Colorbar)
	case "barbs":
		if grid.U == nil || grid.V == nil {
			return fmt.Errorf("%s has no u/v components for a barbs plot", d.File)
		}
		return m.Barbs(grid.Lon, grid.Lat, grid.U, grid.V)
	case "quiver":
		if grid.U == nil || grid.V == nil {
			return fmt.Errorf("%s has no u/v components for a quiver plot", d.File)
		}
		return m.Quiver(grid.Lon, grid.Lat, grid.U, grid.V)
	}
	return fmt.Errorf("unknown plot kind %q", d.Plot)
}

func appendColorbar(m *basemap.Map, cs *basemap.ContourSet, spec *ColorbarSpec) error {
	if spec == nil {
		return nil
	}
	_, err := m.Colorbar(cs, basemap.ColorbarOptions{
		Location: spec.Location,
		Label:    spec.Label,
	})
	return err
}

// GridFile is the decoded form of a data file.
type GridFile struct {
	Lon []float64   `json:"lon"`
	Lat []float64   `json:"lat"`
	Z   [][]float64 `json:"z"`
	U   [][]float64 `json:"u,omitempty"`
	V   [][]float64 `json:"v,omitempty"`
}

func readGridFile(path string) (*GridFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return readGridCSV(f, path)
	}
	var grid GridFile
	if err := json.NewDecoder(f).Decode(&grid); err != nil {
		return nil, fmt.Errorf("parse grid %s: %w", path, err)
	}
	return &grid, nil
}

// readGridCSV reads a matrix whose first row is the longitudes and
// first column the latitudes.
func readGridCSV(r io.Reader, path string) (*GridFile, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse grid %s: %w", path, err)
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, fmt.Errorf("grid %s must have a longitude header row and a latitude column", path)
	}

	grid := &GridFile{}
	for _, cell := range records[0][1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("grid %s: bad longitude %q", path, cell)
		}
		grid.Lon = append(grid.Lon, v)
	}
	for _, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return nil, fmt.Errorf("grid %s: row of %d cells under a %d-cell header",
				path, len(rec), len(records[0]))
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("grid %s: bad latitude %q", path, rec[0])
		}
		grid.Lat = append(grid.Lat, lat)
		row := make([]float64, 0, len(rec)-1)
		for _, cell := range rec[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("grid %s: bad value %q", path, cell)
			}
			row = append(row, v)
		}
		grid.Z = append(grid.Z, row)
	}
	return grid, nil
}
