package planner

import (
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
)

// canvasRenderer is the subset of the canvas renderers used here
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// VectorRenderer draws a session's grid as vector graphics in field
// millimeters. Canvas coordinates are y-up with the origin at the field's
// bottom-left corner, so a physical point maps by a plain translation.
type VectorRenderer struct {
	Session    *Session
	Colors     FieldColors
	RouteWidth float64           // route stroke width in mm
	GridLines  bool              // draw cell boundaries
	Resolution canvas.Resolution // PNG output only
}

// NewVectorRenderer creates a vector renderer with default settings
func NewVectorRenderer(s *Session) *VectorRenderer {
	return &VectorRenderer{
		Session:    s,
		Colors:     DefaultFieldColors(),
		RouteWidth: s.Grid().CellSize() / 2,
		GridLines:  true,
		Resolution: canvas.DPMM(8 / s.Grid().CellSize()),
	}
}

// RenderToSVG writes the field as an SVG to w
func (r *VectorRenderer) RenderToSVG(w io.Writer) error {
	size := r.Session.Grid().FieldSize()
	svgRenderer := svg.New(w, size, size, nil)
	r.renderToCanvas(svgRenderer)
	return svgRenderer.Close()
}

// RenderToPNG rasterizes the vector drawing and writes it as a PNG to w
func (r *VectorRenderer) RenderToPNG(w io.Writer) error {
	size := r.Session.Grid().FieldSize()
	rast := rasterizer.New(size, size, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast)
	return png.Encode(w, rast)
}

// SaveSVG renders the field to an SVG file
func (r *VectorRenderer) SaveSVG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return r.RenderToSVG(f)
}

func (r *VectorRenderer) renderToCanvas(renderer canvasRenderer) {
	g := r.Session.Grid()
	size := g.FieldSize()
	cs := g.CellSize()
	half := size / 2

	toCanvas := func(p Point) (float64, float64) {
		return p.X + half, p.Y + half
	}

	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: r.Colors.Background}
	bgStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	renderer.RenderPath(canvas.Rectangle(size, size), bgStyle, canvas.Identity)

	cellStyle := func(c color.RGBA) canvas.Style {
		st := canvas.DefaultStyle
		st.Fill = canvas.Paint{Color: c}
		st.Stroke = canvas.Paint{Color: canvas.Transparent}
		return st
	}
	drawCell := func(c Cell, st canvas.Style) {
		// lower-left corner of row gy sits one cell below its top edge
		x := float64(c.X) * cs
		y := size - float64(c.Y+1)*cs
		renderer.RenderPath(canvas.Rectangle(cs, cs).Translate(x, y), st, canvas.Identity)
	}

	field := r.Session.Field()
	inflatedStyle := cellStyle(r.Colors.Inflated)
	for _, c := range field.Inflated().Cells() {
		drawCell(c, inflatedStyle)
	}
	obstacleStyle := cellStyle(r.Colors.Obstacle)
	for _, c := range field.Base().Cells() {
		drawCell(c, obstacleStyle)
	}

	if r.GridLines {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: r.Colors.Grid}
		gridStyle.StrokeWidth = cs / 25
		extent := float64(g.Size()) * cs
		for i := 0; i <= g.Size(); i++ {
			v := float64(i) * cs
			gridPath := &canvas.Path{}
			gridPath.MoveTo(v, size-extent)
			gridPath.LineTo(v, size)
			gridPath.MoveTo(0, size-v)
			gridPath.LineTo(extent, size-v)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	if route := r.Session.Route(); len(route) > 0 {
		routeStyle := canvas.DefaultStyle
		routeStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		routeStyle.Stroke = canvas.Paint{Color: r.Colors.Route}
		routeStyle.StrokeWidth = r.RouteWidth

		routePath := &canvas.Path{}
		for i, c := range route {
			cx, cy := toCanvas(g.GridToGPS(c))
			if i == 0 {
				routePath.MoveTo(cx, cy)
			} else {
				routePath.LineTo(cx, cy)
			}
		}
		renderer.RenderPath(routePath, routeStyle, canvas.Identity)
	}

	marker := func(c Cell, col color.RGBA) {
		st := canvas.DefaultStyle
		st.Fill = canvas.Paint{Color: col}
		st.Stroke = canvas.Paint{Color: canvas.Black}
		st.StrokeWidth = cs / 10
		cx, cy := toCanvas(g.GridToGPS(c))
		renderer.RenderPath(canvas.Circle(cs).Translate(cx, cy), st, canvas.Identity)
	}
	for _, wp := range r.Session.Waypoints() {
		marker(wp, r.Colors.Waypoint)
	}
	if c, ok := r.Session.Start(); ok {
		marker(c, r.Colors.Start)
	}
	if c, ok := r.Session.Goal(); ok {
		marker(c, r.Colors.Goal)
	}
}
