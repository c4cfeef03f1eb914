package planner

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// FieldColors is the palette shared by the raster and vector renderers
type FieldColors struct {
	Background color.RGBA
	Inflated   color.RGBA
	Obstacle   color.RGBA
	Route      color.RGBA
	Start      color.RGBA
	Goal       color.RGBA
	Waypoint   color.RGBA
	Grid       color.RGBA
	Text       color.RGBA
}

// DefaultFieldColors returns the standard palette
func DefaultFieldColors() FieldColors {
	return FieldColors{
		Background: color.RGBA{240, 240, 240, 255},
		Inflated:   color.RGBA{180, 180, 180, 255},
		Obstacle:   color.RGBA{0, 0, 0, 255},
		Route:      color.RGBA{250, 200, 0, 255},
		Start:      color.RGBA{0, 160, 0, 255},
		Goal:       color.RGBA{200, 0, 0, 255},
		Waypoint:   color.RGBA{30, 90, 220, 255},
		Grid:       color.RGBA{220, 220, 220, 255},
		Text:       color.RGBA{0, 0, 0, 255},
	}
}

// captionHeight is the pixel band above the field used for the status line
const captionHeight = 18

// FieldRenderer draws a session's grid as a raster image, one square block
// per cell with row 0 at the top.
type FieldRenderer struct {
	Session       *Session
	Colors        FieldColors
	PixelsPerCell int
	Caption       bool
	GridLines     bool
}

// NewFieldRenderer creates a renderer with default settings
func NewFieldRenderer(s *Session) *FieldRenderer {
	return &FieldRenderer{
		Session:       s,
		Colors:        DefaultFieldColors(),
		PixelsPerCell: 8,
		Caption:       true,
		GridLines:     true,
	}
}

// Render draws the field. Inflated cells are drawn first so base obstacles
// stay visible on top, then the route and the endpoint markers.
func (r *FieldRenderer) Render() *image.RGBA {
	ppc := r.PixelsPerCell
	if ppc < 1 {
		ppc = 1
	}
	n := r.Session.Grid().Size()
	top := 0
	if r.Caption {
		top = captionHeight
	}
	width := n * ppc
	height := n*ppc + top

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, r.Colors.Background)
		}
	}

	fillCell := func(c Cell, col color.RGBA) {
		x0, y0 := c.X*ppc, c.Y*ppc+top
		for dy := 0; dy < ppc; dy++ {
			for dx := 0; dx < ppc; dx++ {
				img.Set(x0+dx, y0+dy, col)
			}
		}
	}

	field := r.Session.Field()
	for _, c := range field.Inflated().Cells() {
		fillCell(c, r.Colors.Inflated)
	}
	for _, c := range field.Base().Cells() {
		fillCell(c, r.Colors.Obstacle)
	}
	for _, c := range r.Session.Route() {
		fillCell(c, r.Colors.Route)
	}

	if r.GridLines && ppc >= 4 {
		for i := 0; i <= n; i++ {
			for j := 0; j < n*ppc; j++ {
				img.Set(i*ppc, j+top, r.Colors.Grid)
				img.Set(j, i*ppc+top, r.Colors.Grid)
			}
		}
	}

	center := func(c Cell) (int, int) {
		return c.X*ppc + ppc/2, c.Y*ppc + ppc/2 + top
	}
	markerRadius := ppc
	for _, wp := range r.Session.Waypoints() {
		x, y := center(wp)
		drawDisk(img, x, y, markerRadius, r.Colors.Waypoint)
	}
	if c, ok := r.Session.Start(); ok {
		x, y := center(c)
		drawDisk(img, x, y, markerRadius, r.Colors.Start)
	}
	if c, ok := r.Session.Goal(); ok {
		x, y := center(c)
		drawDisk(img, x, y, markerRadius, r.Colors.Goal)
	}

	if r.Caption {
		drawText(img, 4, captionHeight-5, r.caption(), r.Colors.Text)
	}
	return img
}

func (r *FieldRenderer) caption() string {
	g := r.Session.Grid()
	parts := []string{fmt.Sprintf("route: %s", r.Session.RouteStatus())}
	if route := r.Session.Route(); len(route) > 0 {
		parts = append(parts, fmt.Sprintf("%d cells", len(route)))
	}
	if c, ok := r.Session.Start(); ok {
		p := g.GridToGPS(c)
		parts = append(parts, fmt.Sprintf("start (%.0f, %.0f)", p.X, p.Y))
	}
	if c, ok := r.Session.Goal(); ok {
		p := g.GridToGPS(c)
		parts = append(parts, fmt.Sprintf("goal (%.0f, %.0f)", p.X, p.Y))
	}
	return strings.Join(parts, "  ")
}

// WritePNG encodes the rendered field as PNG
func (r *FieldRenderer) WritePNG(w io.Writer) error {
	return png.Encode(w, r.Render())
}

// SavePNG renders the field to a PNG file
func (r *FieldRenderer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return r.WritePNG(f)
}

// drawDisk draws a filled circle clipped to the image
func drawDisk(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	b := img.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				x, y := cx+dx, cy+dy
				if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
					img.Set(x, y, c)
				}
			}
		}
	}
}

// drawText renders text onto an image with its baseline at y
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
