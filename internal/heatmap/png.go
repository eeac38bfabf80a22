package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/passengerflow-console/internal/geo"
)

// curveSteps is how many segments a quadratic edge is flattened into for stroking
const curveSteps = 32

// MaxSupersample bounds the oversized raster RenderPNG draws into
const MaxSupersample = 4

var (
	fontsOnce sync.Once
	fontsErr  error
	regular   *opentype.Font
	bold      *opentype.Font
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regular, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			return
		}
		bold, fontsErr = opentype.Parse(gobold.TTF)
	})
	return fontsErr
}

type rasterizer struct {
	img   *image.RGBA
	scale float64
	faces map[string]font.Face

	// z is reset to each primitive's clipped bounds before use
	z vector.Rasterizer
}

// RenderPNG rasterizes the scene at supersample times the target size and
// downsamples it, which smooths edges and text. supersample is clamped to
// [1, MaxSupersample].
func RenderPNG(w io.Writer, scene Scene, supersample int) error {
	if err := loadFonts(); err != nil {
		return fmt.Errorf("loading fonts: %w", err)
	}
	supersample = max(1, min(supersample, MaxSupersample))

	width := int(math.Ceil(scene.Width))
	height := int(math.Ceil(scene.Height))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid scene size %vx%v", scene.Width, scene.Height)
	}

	large := image.NewRGBA(image.Rect(0, 0, width*supersample, height*supersample))
	r := &rasterizer{img: large, scale: float64(supersample), faces: make(map[string]font.Face)}
	defer r.closeFaces()

	if scene.Background != "" {
		draw.Draw(large, large.Bounds(), image.NewUniform(parseColor(scene.Background, 1)), image.Point{}, draw.Src)
	}
	if err := r.elements(scene.Elements); err != nil {
		return err
	}

	out := large
	if supersample > 1 {
		out = image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(out, out.Bounds(), large, large.Bounds(), draw.Over, nil)
	}

	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

func (r *rasterizer) elements(els []Element) error {
	for _, el := range els {
		switch v := el.(type) {
		case Path:
			r.path(v)
		case Circle:
			r.circle(v)
		case Text:
			if err := r.text(v); err != nil {
				return err
			}
		case Group:
			if err := r.elements(v.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *rasterizer) pt(p geo.Point) geo.Point {
	return geo.Point{X: p.X * r.scale, Y: p.Y * r.scale}
}

// flatten turns path ops into polylines in device space, one per subpath
func (r *rasterizer) flatten(ops []PathOp) (lines [][]geo.Point, closed []bool) {
	var cur []geo.Point
	flush := func(isClosed bool) {
		if len(cur) > 0 {
			lines = append(lines, cur)
			closed = append(closed, isClosed)
		}
		cur = nil
	}

	for _, op := range ops {
		switch op.Kind {
		case MoveTo:
			flush(false)
			cur = []geo.Point{r.pt(op.Points[0])}
		case LineTo:
			cur = append(cur, r.pt(op.Points[0]))
		case QuadTo:
			if len(cur) == 0 {
				continue
			}
			from := cur[len(cur)-1]
			e := geo.Edge{From: from, Control: r.pt(op.Points[0]), To: r.pt(op.Points[1])}
			for i := 1; i <= curveSteps; i++ {
				cur = append(cur, e.At(float64(i)/curveSteps))
			}
		case Close:
			flush(true)
		}
	}
	flush(false)
	return lines, closed
}

func (r *rasterizer) path(p Path) {
	lines, closed := r.flatten(p.Ops)
	if p.Style.Fill != "" {
		var sh shape
		for _, line := range lines {
			sh.add(line)
		}
		r.fill(sh, p.Style.Fill, p.Style.opacity())
	}
	if p.Style.Stroke != "" && p.Style.StrokeWidth > 0 {
		var sh shape
		half := p.Style.StrokeWidth * r.scale / 2
		for i, line := range lines {
			if closed[i] && len(line) > 1 {
				line = append(line, line[0])
			}
			sh.stroke(line, half)
		}
		r.fill(sh, p.Style.Stroke, p.Style.opacity())
	}
}

func (r *rasterizer) circle(c Circle) {
	center := r.pt(c.Center)
	radius := c.R * r.scale
	if c.Style.Fill != "" {
		var sh shape
		sh.add(circlePoints(center, radius))
		r.fill(sh, c.Style.Fill, c.Style.opacity())
	}
	if c.Style.Stroke != "" && c.Style.StrokeWidth > 0 {
		half := c.Style.StrokeWidth * r.scale / 2
		var sh shape
		sh.add(circlePoints(center, radius+half))
		sh.addHole(circlePoints(center, radius-half))
		r.fill(sh, c.Style.Stroke, c.Style.opacity())
	}
}

func (r *rasterizer) face(size float64, isBold bool) (font.Face, error) {
	key := strconv.FormatFloat(size, 'f', 2, 64) + strconv.FormatBool(isBold)
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	fnt := regular
	if isBold {
		fnt = bold
	}
	f, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size * r.scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	r.faces[key] = f
	return f, nil
}

func (r *rasterizer) closeFaces() {
	for _, f := range r.faces {
		f.Close()
	}
}

func (r *rasterizer) text(t Text) error {
	if t.Content == "" {
		return nil
	}
	size := t.Size
	if size <= 0 {
		size = 14
	}
	face, err := r.face(size, t.Bold)
	if err != nil {
		return err
	}

	at := r.pt(t.At)
	x := at.X
	if t.Anchor == AnchorMiddle {
		x -= float64(font.MeasureString(face, t.Content).Round()) / 2
	}

	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(parseColor(t.Fill, 1)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(int(math.Round(x))), Y: fixed.I(int(math.Round(at.Y)))},
	}
	d.DrawString(t.Content)
	return nil
}

// fill rasterizes sh over only the pixels it can touch, then composites it
// onto the image with the given colour.
func (r *rasterizer) fill(sh shape, hex string, opacity float64) {
	clip := sh.bounds().Intersect(r.img.Bounds())
	if clip.Empty() {
		return
	}

	r.z.Reset(clip.Dx(), clip.Dy())
	ox, oy := float64(clip.Min.X), float64(clip.Min.Y)
	for _, poly := range sh {
		pts := poly.oriented()
		r.z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
		for _, p := range pts[1:] {
			r.z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		r.z.ClosePath()
	}

	r.z.DrawOp = draw.Over
	r.z.Draw(r.img, clip, image.NewUniform(parseColor(hex, opacity)), image.Point{})
}

type polygon struct {
	pts  []geo.Point
	hole bool
}

// oriented returns the points wound positive for solids and negative for
// holes, so overlapping solids union and holes cut out of them
func (p polygon) oriented() []geo.Point {
	area := signedArea(p.pts)
	if (p.hole && area > 0) || (!p.hole && area < 0) {
		return reverse(p.pts)
	}
	return p.pts
}

// shape is a set of closed polygons in device space painted in one colour
type shape []polygon

func (s *shape) add(pts []geo.Point) {
	if len(pts) >= 3 {
		*s = append(*s, polygon{pts: pts})
	}
}

func (s *shape) addHole(pts []geo.Point) {
	if len(pts) >= 3 {
		*s = append(*s, polygon{pts: pts, hole: true})
	}
}

// stroke covers each segment with a quad and each joint with a disc
func (s *shape) stroke(line []geo.Point, half float64) {
	for i := 0; i+1 < len(line); i++ {
		a, b := line[i], line[i+1]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		s.add([]geo.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		})
	}
	for _, p := range line {
		s.add(circlePoints(p, half))
	}
}

// bounds is the pixel rectangle covering every polygon, padded by one pixel
// for antialiasing
func (s shape) bounds() image.Rectangle {
	if len(s) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, poly := range s {
		for _, p := range poly.pts {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	return image.Rect(
		int(math.Floor(minX))-1, int(math.Floor(minY))-1,
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1,
	)
}

func circlePoints(c geo.Point, radius float64) []geo.Point {
	if radius <= 0 {
		return nil
	}
	n := int(math.Max(16, math.Min(128, radius)))
	pts := make([]geo.Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geo.Point{X: c.X + radius*math.Cos(a), Y: c.Y + radius*math.Sin(a)}
	}
	return pts
}

func signedArea(pts []geo.Point) float64 {
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return area / 2
}

func reverse(pts []geo.Point) []geo.Point {
	out := make([]geo.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// parseColor reads #RRGGBB; anything else falls back to black
func parseColor(hex string, opacity float64) color.NRGBA {
	c := color.NRGBA{A: uint8(math.Round(255 * math.Max(0, math.Min(1, opacity))))}
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return c
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return c
	}
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return c
}
