package caption

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Prefix is prepended to every burned-in caption.
const Prefix = "English: "

// CaptionText builds the caption shown for a word or key.
func CaptionText(s string) string {
	return Prefix + s
}

// Options fixes the overlay canvas and the text style.
type Options struct {
	Width     int
	Height    int
	Size      float64 // font size in points at 72 DPI
	Thickness int     // stroke thickness in pixels
}

// DefaultOptions returns a 640x100 overlay with a 28pt, 2px-thick line.
func DefaultOptions() Options {
	return Options{
		Width:     640,
		Height:    100,
		Size:      28,
		Thickness: 2,
	}
}

// Renderer draws single-line captions. A Renderer holds one font face and is not
// safe for concurrent use.
type Renderer struct {
	opts Options
	face font.Face
}

// NewRenderer parses the built-in font and prepares a face at the configured size.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid caption canvas %dx%d", opts.Width, opts.Height)
	}
	if opts.Size <= 0 {
		opts.Size = DefaultOptions().Size
	}
	if opts.Thickness <= 0 {
		opts.Thickness = 1
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return &Renderer{opts: opts, face: face}, nil
}

// Measure returns the text width (advance) and the height above the baseline.
func (r *Renderer) Measure(text string) (width, height int) {
	bounds, advance := font.BoundString(r.face, text)
	return advance.Ceil(), (-bounds.Min.Y).Ceil()
}

// Render draws text in white on a black canvas, centered on both axes.
// Text wider than the canvas is clipped, not wrapped.
func (r *Renderer) Render(text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	w, h := r.Measure(text)
	x := (r.opts.Width - w) / 2
	y := (r.opts.Height + h) / 2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: r.face,
	}
	// Thickness is emulated by stamping the glyphs on a small square of offsets.
	half := r.opts.Thickness / 2
	for dx := 0; dx < r.opts.Thickness; dx++ {
		for dy := 0; dy < r.opts.Thickness; dy++ {
			d.Dot = fixed.P(x+dx-half, y+dy-half)
			d.DrawString(text)
		}
	}
	return img
}

// RenderFile renders text and writes it as a PNG at path.
func (r *Renderer) RenderFile(text, path string) error {
	img := r.Render(text)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create caption file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode caption: %w", err)
	}
	return f.Close()
}
