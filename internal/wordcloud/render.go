package wordcloud

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

const minFontSize = 8

// ErrNoWords is returned when there is nothing to draw.
var ErrNoWords = errors.New("no words to draw")

// Options sizes one cloud.
type Options struct {
	MaxWords    int
	MaxFontSize float64
	Width       int
	Height      int
}

// Placement is where one word lands on the canvas.
type Placement struct {
	Word   Word
	Size   float64
	Bounds image.Rectangle
	Color  color.RGBA
}

var palette = []color.RGBA{
	{R: 0x44, G: 0x01, B: 0x54, A: 0xff},
	{R: 0x3b, G: 0x52, B: 0x8b, A: 0xff},
	{R: 0x21, G: 0x91, B: 0x8c, A: 0xff},
	{R: 0x5e, G: 0xc9, B: 0x62, A: 0xff},
	{R: 0xc4, G: 0x8b, B: 0x1d, A: 0xff},
	{R: 0x31, G: 0x68, B: 0x8e, A: 0xff},
}

// measureFunc reports the pixel width and height of word at size.
type measureFunc func(word string, size float64) (int, int)

// Layout places words on an Archimedean spiral from the canvas centre. Font
// size scales linearly with the count; a word that does not fit is retried
// smaller and dropped below the minimum size.
func Layout(words []Word, opts Options, measure measureFunc) []Placement {
	if len(words) == 0 || opts.Width <= 0 || opts.Height <= 0 {
		return nil
	}

	canvas := image.Rect(0, 0, opts.Width, opts.Height)
	maxCount := float64(words[0].Count)
	for _, w := range words {
		maxCount = math.Max(maxCount, float64(w.Count))
	}

	var placed []Placement
	for i, w := range words {
		size := math.Max(minFontSize, opts.MaxFontSize*float64(w.Count)/maxCount)
		for ; size >= minFontSize; size -= 2 {
			width, height := measure(w.Text, size)
			if rect, ok := findSpot(canvas, placed, width, height); ok {
				placed = append(placed, Placement{
					Word:   w,
					Size:   size,
					Bounds: rect,
					Color:  palette[i%len(palette)],
				})
				break
			}
		}
	}
	return placed
}

func findSpot(canvas image.Rectangle, placed []Placement, width, height int) (image.Rectangle, bool) {
	if width > canvas.Dx() || height > canvas.Dy() {
		return image.Rectangle{}, false
	}

	cx, cy := canvas.Dx()/2, canvas.Dy()/2
	ratio := float64(canvas.Dx()) / float64(canvas.Dy())
	limit := math.Hypot(float64(canvas.Dx()), float64(canvas.Dy()))

	for t := 0.0; t < limit; t += 0.25 {
		x := cx + int(ratio*t*math.Cos(t)) - width/2
		y := cy + int(t*math.Sin(t)) - height/2
		rect := image.Rect(x, y, x+width, y+height)
		if !rect.In(canvas) {
			continue
		}
		if !overlapsAny(rect, placed) {
			return rect, true
		}
	}
	return image.Rectangle{}, false
}

func overlapsAny(rect image.Rectangle, placed []Placement) bool {
	for _, p := range placed {
		if rect.Overlaps(p.Bounds) {
			return true
		}
	}
	return false
}

// Renderer draws clouds with gg and the embedded Go Regular font. It is not
// safe for concurrent use.
type Renderer struct {
	font  *opentype.Font
	faces map[float64]font.Face
	ruler *gg.Context
}

// NewRenderer parses the embedded font.
func NewRenderer() (*Renderer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Renderer{font: f, faces: map[float64]font.Face{}, ruler: gg.NewContext(1, 1)}, nil
}

// Close releases the cached font faces.
func (r *Renderer) Close() error {
	for size, face := range r.faces {
		_ = face.Close()
		delete(r.faces, size)
	}
	return nil
}

func (r *Renderer) face(size float64) (font.Face, error) {
	if face, ok := r.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face %.0f: %w", size, err)
	}
	r.faces[size] = face
	return face, nil
}

func (r *Renderer) measure(word string, size float64) (int, int) {
	face, err := r.face(size)
	if err != nil {
		return math.MaxInt32, math.MaxInt32
	}
	r.ruler.SetFontFace(face)
	width, _ := r.ruler.MeasureString(word)
	m := face.Metrics()
	return int(math.Ceil(width)), (m.Ascent + m.Descent).Ceil()
}

// Render lays out words and encodes the cloud as PNG on a white background.
func (r *Renderer) Render(w io.Writer, words []Word, opts Options) (int, error) {
	if opts.MaxWords > 0 && len(words) > opts.MaxWords {
		words = words[:opts.MaxWords]
	}
	placements := Layout(words, opts, r.measure)
	if len(placements) == 0 {
		return 0, ErrNoWords
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(color.White)
	dc.Clear()

	for _, p := range placements {
		face, err := r.face(p.Size)
		if err != nil {
			return 0, err
		}
		dc.SetFontFace(face)
		dc.SetColor(p.Color)
		baseline := p.Bounds.Min.Y + face.Metrics().Ascent.Ceil()
		dc.DrawString(p.Word.Text, float64(p.Bounds.Min.X), float64(baseline))
	}

	if err := dc.EncodePNG(w); err != nil {
		return 0, fmt.Errorf("encode png: %w", err)
	}
	return len(placements), nil
}

// RenderFile writes the PNG to path, replacing any previous image.
func (r *Renderer) RenderFile(path string, words []Word, opts Options) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := r.Render(f, words, opts)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	return n, nil
}
