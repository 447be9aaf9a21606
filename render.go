/*
Copyright © 2024 the Hilal authors.
This file is part of Hilal.

Hilal is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Hilal is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Hilal.  If not, see <http://www.gnu.org/licenses/>.
*/

package hilal

import (
	"context"
	"fmt"
	"image"
	"image/color"
	imgdraw "image/draw"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/carto"
	"github.com/ctessum/sparse"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/spatialmodel/hilal/geodata"
)

// RenderTask holds everything needed to draw the map of one month
// from a completed grid store.
type RenderTask struct {
	Store StoreSpec

	// Lons and Lats are the grid axes the store was computed on.
	Lons, Lats []float64

	Region Region

	// Cities are the places labeled on the map. If nil, the region's
	// default cities are used.
	Cities []string

	// BoundariesFile and PlacesFile are optional shapefiles with
	// boundary lines and populated places.
	BoundariesFile, PlacesFile string

	Criterion Criterion
	Mode      Mode

	// Categories is the code order the store was written with.
	Categories []Category

	Conjunction time.Time
	MonthName   string
	HijriYear   int
	Days        int

	OutputFile string
}

func (t *RenderTask) check() error {
	if len(t.Lats) != t.Store.NumLat || len(t.Lons) != t.Store.NumLon {
		return fmt.Errorf("hilal: render axes (%d, %d) do not match store shape %v",
			len(t.Lats), len(t.Lons), t.Store.Shape())
	}
	if t.Days != t.Store.NumDays {
		return fmt.Errorf("hilal: rendering %d days from a store with %d days", t.Days, t.Store.NumDays)
	}
	if t.Mode != t.Store.Mode {
		return fmt.Errorf("hilal: rendering mode %q from a store in mode %q", t.Mode, t.Store.Mode)
	}
	if t.OutputFile == "" {
		return fmt.Errorf("hilal: render output file is not set")
	}
	return t.Region.Bounds.Check()
}

// colorScale maps stored values to colors.
type colorScale interface {
	Color(v float64) color.Color
}

// Figure dimensions. Lengths below are given for a 20 x 15 inch page
// and multiplied by the actual canvas scale.
const (
	figWidthPx  = 3000
	figHeightPx = 2250
	pageWidth   = 20 * vg.Inch
)

var (
	placeColor    = color.NRGBA{R: 0xee, G: 0x82, B: 0xee, A: 0xff} // violet
	boundaryColor = color.NRGBA{A: 0xff}
)

// Run draws the map and writes it to t.OutputFile as a JPEG.
func (t *RenderTask) Run(ctx context.Context) error {
	if err := t.check(); err != nil {
		return err
	}
	data, err := t.readGrid()
	if err != nil {
		return err
	}

	var scale colorScale
	var raw *RawScale
	var legend []CategoryInfo
	switch t.Mode {
	case RawMode:
		if raw, err = NewRawScale(data.Elements); err != nil {
			return err
		}
		scale = raw
		legend = []CategoryInfo{
			{Description: "Moonset before the new moon.", Color: beforeNewMoonColor},
			{Description: "Moonset before sunset.", Color: beforeSunsetColor},
		}
	case CategoryMode:
		table, err := NewCategoryTable(t.Criterion, t.Categories)
		if err != nil {
			return err
		}
		scale = NewCategoryScale(table)
		for i := 0; i < table.Len(); i++ {
			info, err := table.Info(uint8(i))
			if err != nil {
				return err
			}
			legend = append(legend, info)
		}
	default:
		return fmt.Errorf("hilal: invalid map mode %q", t.Mode)
	}

	b := t.Region.Bounds
	bbox := geodata.BBox(b.MinX, b.MaxX, b.MinY, b.MaxY)
	var paths [][]geom.Point
	if t.BoundariesFile != "" {
		if paths, err = geodata.LoadBoundaries(t.BoundariesFile, bbox); err != nil {
			return err
		}
	}
	var places []geodata.Place
	if t.PlacesFile != "" {
		cities := t.Cities
		if cities == nil {
			cities = t.Region.Cities
		}
		if places, err = geodata.LoadPlaces(t.PlacesFile, cities, bbox); err != nil {
			return err
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, figWidthPx, figHeightPx))
	imgdraw.Draw(img, img.Bounds(), image.White, image.ZP, imgdraw.Src)
	f := newFigure(img)

	panels := f.panelCanvases(t.Days, t.Mode == RawMode)
	for d, pc := range panels {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := t.Conjunction.UTC().AddDate(0, 0, d).Format("2006-01-02")
		title := fmt.Sprintf("New Moon Visibility on %s at Local Best Time", day)
		if err := f.drawPanel(pc, title, b, t.Lons, t.Lats, func(j, i int) float64 {
			return data.Get(j, i, d)
		}, scale, paths, places); err != nil {
			return err
		}
	}
	if err := f.drawLegend(legend); err != nil {
		return err
	}
	if raw != nil {
		if err := f.drawColorBar(raw); err != nil {
			return err
		}
	}
	if err := f.annotate(
		fmt.Sprintf("%d-Day New Moon Crescent Visibility Map for %s, %d A.H.", t.Days, t.MonthName, t.HijriYear),
		fmt.Sprintf("The New Moon (i.e. conjunction) occurs at %s UTC", t.Conjunction.UTC().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Criterion: %s", t.Criterion),
	); err != nil {
		return err
	}
	return writeJPEG(t.OutputFile, img, jpegQuality(t.Mode))
}

func (t *RenderTask) readGrid() (*sparse.DenseArray, error) {
	g, err := OpenReadOnly(t.Store)
	if err != nil {
		return nil, err
	}
	defer g.Release()
	return g.ReadAll()
}

// writeJPEG encodes img to a temporary file next to path and then
// moves it into place, so path never holds a partial image.
func writeJPEG(path string, img image.Image, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("hilal: creating map directory: %w", err)
	}
	tmp := path + ".tmp"
	w, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("hilal: creating map file: %w", err)
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		w.Close()
		os.Remove(tmp)
		return fmt.Errorf("hilal: encoding map: %w", err)
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("hilal: writing map: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("hilal: writing map: %w", err)
	}
	return nil
}

// figure is a page canvas backed by an RGBA image, so raster layers
// can be painted directly into the pixels beneath the vector layers.
type figure struct {
	img *image.RGBA
	c   draw.Canvas

	// u is the length of one point on the reference page.
	u vg.Length

	// pxPerPt converts canvas lengths to image pixels.
	pxPerPt float64
}

func newFigure(img *image.RGBA) *figure {
	c := draw.New(vgimg.NewWith(vgimg.UseImage(img)))
	w := c.Max.X - c.Min.X
	return &figure{
		img:     img,
		c:       c,
		u:       w / pageWidth,
		pxPerPt: float64(img.Bounds().Dx()) / float64(w),
	}
}

// X and Y return the canvas coordinates of the page fractions x and y.
func (f *figure) X(x float64) vg.Length { return f.c.Min.X + vg.Length(x)*(f.c.Max.X-f.c.Min.X) }
func (f *figure) Y(y float64) vg.Length { return f.c.Min.Y + vg.Length(y)*(f.c.Max.Y-f.c.Min.Y) }

// sub returns the part of the page between the given canvas coordinates.
func (f *figure) sub(x0, y0, x1, y1 vg.Length) draw.Canvas {
	return draw.Crop(f.c, x0-f.c.Min.X, x1-f.c.Max.X, y0-f.c.Min.Y, y1-f.c.Max.Y)
}

func (f *figure) textStyle(size vg.Length, c color.Color) (draw.TextStyle, error) {
	font, err := vg.MakeFont(plot.DefaultFont, size*f.u)
	if err != nil {
		return draw.TextStyle{}, err
	}
	return draw.TextStyle{Color: c, Font: font}, nil
}

// panelCanvases splits the map column into one canvas per day, leaving
// room for a panel title above each and a color bar below if needed.
func (f *figure) panelCanvases(days int, colorBar bool) []draw.Canvas {
	bottom := 0.05
	if colorBar {
		bottom = 0.12
	}
	const top, left, right, gap = 0.95, 0.05, 0.85, 0.04
	h := (top - bottom - gap*float64(days-1)) / float64(days)
	o := make([]draw.Canvas, days)
	for d := range o {
		y1 := top - float64(d)*(h+gap)
		o[d] = f.sub(f.X(left), f.Y(y1-h), f.X(right), f.Y(y1-0.025))
	}
	return o
}

// fit returns the largest part of c with the aspect ratio of b,
// centered in c.
func fit(c draw.Canvas, b Bounds) draw.Canvas {
	w, h := c.Max.X-c.Min.X, c.Max.Y-c.Min.Y
	aspect := vg.Length((b.MaxX - b.MinX) / (b.MaxY - b.MinY))
	if w/h > aspect {
		pad := (w - h*aspect) / 2
		return draw.Crop(c, pad, -pad, 0, 0)
	}
	pad := (h - w/aspect) / 2
	return draw.Crop(c, 0, 0, pad, -pad)
}

// drawPanel draws one day of the grid with its reference layers.
func (f *figure) drawPanel(c draw.Canvas, title string, b Bounds, lons, lats []float64,
	value func(j, i int) float64, scale colorScale, paths [][]geom.Point, places []geodata.Place) error {

	mc := fit(c, b)
	m := carto.NewCanvas(b.MaxY, b.MinY, b.MaxX, b.MinX, mc)
	f.paintRaster(m, b, lons, lats, value, scale)

	ls := draw.LineStyle{Color: boundaryColor, Width: 0.65 * f.u}
	var none color.NRGBA
	for _, p := range paths {
		if err := m.DrawVector(geom.LineString(p), none, ls, draw.GlyphStyle{}); err != nil {
			return err
		}
	}

	glyph := draw.GlyphStyle{Color: placeColor, Radius: 2.5 * f.u, Shape: draw.CircleGlyph{}}
	label, err := f.textStyle(9, color.White)
	if err != nil {
		return err
	}
	shadow := label
	shadow.Color = color.Black
	for _, p := range places {
		if err := m.DrawVector(p.Point, placeColor, draw.LineStyle{Color: placeColor}, glyph); err != nil {
			return err
		}
		pt := m.Coordinates(geom.Point{X: p.X + 0.05*(b.MaxX-b.MinX)/180, Y: p.Y})
		for _, o := range []vg.Point{{X: -f.u, Y: 0}, {X: f.u, Y: 0}, {X: 0, Y: -f.u}, {X: 0, Y: f.u}} {
			m.FillText(shadow, vg.Point{X: pt.X + o.X, Y: pt.Y + o.Y}, p.Name)
		}
		m.FillText(label, pt, p.Name)
	}

	frame := draw.LineStyle{Color: color.Black, Width: 0.8 * f.u}
	m.StrokeLines(frame, []vg.Point{
		{X: mc.Min.X, Y: mc.Min.Y}, {X: mc.Max.X, Y: mc.Min.Y},
		{X: mc.Max.X, Y: mc.Max.Y}, {X: mc.Min.X, Y: mc.Max.Y},
		{X: mc.Min.X, Y: mc.Min.Y},
	})

	ts, err := f.textStyle(12, color.Black)
	if err != nil {
		return err
	}
	ts.XAlign = draw.XCenter
	mc.FillText(ts, vg.Point{X: (mc.Min.X + mc.Max.X) / 2, Y: mc.Max.Y + 5*f.u}, title)
	return nil
}

// paintRaster colors every pixel of the map area with the value of the
// nearest grid point, composited over the page background.
func (f *figure) paintRaster(m *carto.Canvas, b Bounds, lons, lats []float64,
	value func(j, i int) float64, scale colorScale) {

	sw := m.Coordinates(geom.Point{X: b.MinX, Y: b.MinY})
	ne := m.Coordinates(geom.Point{X: b.MaxX, Y: b.MaxY})
	x0, x1 := f.px(sw.X), f.px(ne.X)
	y0, y1 := f.py(ne.Y), f.py(sw.Y)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	nlon, nlat := len(lons), len(lats)
	for py := y0; py < y1; py++ {
		fy := 1 - (float64(py-y0)+0.5)/float64(y1-y0)
		j := nearest(fy, nlat)
		for px := x0; px < x1; px++ {
			fx := (float64(px-x0) + 0.5) / float64(x1-x0)
			i := nearest(fx, nlon)
			c := scale.Color(value(j, i))
			f.img.SetRGBA(px, py, over(c, f.img.RGBAAt(px, py)))
		}
	}
}

// nearest returns the index of the grid point closest to fraction x of
// an axis with n evenly spaced points.
func nearest(x float64, n int) int {
	i := int(math.Floor(x*float64(n-1) + 0.5))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// px and py convert canvas coordinates to image pixel coordinates.
func (f *figure) px(x vg.Length) int {
	return int(math.Round(float64(x-f.c.Min.X) * f.pxPerPt))
}
func (f *figure) py(y vg.Length) int {
	return f.img.Bounds().Dy() - int(math.Round(float64(y-f.c.Min.Y)*f.pxPerPt))
}

// over composites c over the opaque background bg.
func over(c color.Color, bg color.RGBA) color.RGBA {
	r, g, b, a := c.RGBA()
	blend := func(v uint32, back uint8) uint8 {
		return uint8((v + uint32(back)*257*(0xffff-a)/0xffff) >> 8)
	}
	return color.RGBA{R: blend(r, bg.R), G: blend(g, bg.G), B: blend(b, bg.B), A: 0xff}
}

// drawLegend draws the color key in the right-hand column.
func (f *figure) drawLegend(entries []CategoryInfo) error {
	ts, err := f.textStyle(12, color.Black)
	if err != nil {
		return err
	}
	ts.YAlign = draw.YCenter
	box := 22 * f.u
	rowHeight := 3.2 * box
	x := f.X(0.865)
	top := f.Y(0.9)
	edge := draw.LineStyle{Color: color.Black, Width: 0.5 * f.u}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		row := len(entries) - 1 - i
		y := top - vg.Length(row)*rowHeight
		pts := []vg.Point{
			{X: x, Y: y - box}, {X: x + box, Y: y - box},
			{X: x + box, Y: y}, {X: x, Y: y}, {X: x, Y: y - box},
		}
		f.c.FillPolygon(over(e.Color, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}), pts)
		f.c.StrokeLines(edge, pts)
		lines := wrap(e.Description, 30)
		lh := ts.Height("M") * 1.2
		y0 := y - box/2 + lh*vg.Length(len(lines)-1)/2
		for k, line := range lines {
			f.c.FillText(ts, vg.Point{X: x + box*1.4, Y: y0 - vg.Length(k)*lh}, line)
		}
	}
	return nil
}

// wrap breaks s into lines of at most width characters at word
// boundaries.
func wrap(s string, width int) []string {
	var lines []string
	var cur string
	for _, w := range strings.Fields(s) {
		switch {
		case cur == "":
			cur = w
		case len(cur)+1+len(w) <= width:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// drawColorBar draws the raw-mode color bar below the map panels with
// ticks labeled in untransformed units.
func (f *figure) drawColorBar(s *RawScale) error {
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Add(&plotter.ColorBar{ColorMap: s.ColorMap()})
	p.HideY()
	p.X.Padding = 0
	p.X.Tick.Marker = s
	p.X.Label.Text = "Q Value"
	p.X.Label.Font.Size = 12 * f.u
	p.X.Tick.Label.Font.Size = 10 * f.u
	p.X.Tick.Length = 6 * f.u
	p.X.Width = 0.8 * f.u
	p.X.Tick.LineStyle.Width = 0.8 * f.u
	p.Draw(f.sub(f.X(0.2), f.Y(0.045), f.X(0.7), f.Y(0.095)))
	return nil
}

// annotate adds the page title and footer.
func (f *figure) annotate(title, conjunction, criterion string) error {
	ts, err := f.textStyle(16, color.Black)
	if err != nil {
		return err
	}
	ts.XAlign = draw.XCenter
	f.c.FillText(ts, vg.Point{X: f.X(0.5), Y: f.Y(0.975)}, title)

	foot, err := f.textStyle(12, color.Black)
	if err != nil {
		return err
	}
	foot.XAlign = draw.XCenter
	f.c.FillText(foot, vg.Point{X: f.X(0.2), Y: f.Y(0.01)}, conjunction)
	f.c.FillText(foot, vg.Point{X: f.X(0.925), Y: f.Y(0.03)}, criterion)
	return nil
}
