package main

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
)

var viewConfig string

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Render a map spec into a live window",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		m, err := loadMap(viewConfig, &logger)
		if err != nil {
			return err
		}
		img := m.Render()

		ebiten.SetWindowTitle("basemap: " + viewConfig)
		ebiten.SetWindowSize(img.Bounds().Dx(), img.Bounds().Dy())
		return ebiten.RunGame(&mapGame{img: img})
	},
}

func init() {
	viewCmd.Flags().StringVarP(&viewConfig, "config", "c", "",
		"map spec file (required)")
	viewCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(viewCmd)
}

// mapGame displays one pre-rendered frame.
type mapGame struct {
	img    *image.RGBA
	screen *ebiten.Image
}

func (g *mapGame) Update() error {
	return nil
}

func (g *mapGame) Draw(screen *ebiten.Image) {
	if g.screen == nil {
		b := g.img.Bounds()
		g.screen = ebiten.NewImage(b.Dx(), b.Dy())
		g.screen.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.screen, nil)
}

func (g *mapGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	b := g.img.Bounds()
	return b.Dx(), b.Dy()
}
