package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"
)

// Surface is a raster target sized in CSS pixels with a device pixel ratio.
// The backing image is reallocated lazily when size × ratio changes.
type Surface struct {
	mu     sync.Mutex
	width  int
	height int
	ratio  float64
	img    *image.RGBA
}

func NewSurface(width, height int, ratio float64) (*Surface, error) {
	s := &Surface{}
	if err := s.Resize(width, height, ratio); err != nil {
		return nil, err
	}
	return s, nil
}

// Resize records the new geometry; the next redraw picks it up.
func (s *Surface) Resize(width, height int, ratio float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("surface size %dx%d must be positive", width, height)
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height, s.ratio = width, height, ratio
	return nil
}

// Geometry returns CSS width, height and the pixel ratio.
func (s *Surface) Geometry() (int, int, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height, s.ratio
}

func (s *Surface) pixelSize() (int, int) {
	return int(math.Round(float64(s.width) * s.ratio)), int(math.Round(float64(s.height) * s.ratio))
}

// prepare returns the backing image, reallocating it if the pixel size
// changed. Callers hold s.mu.
func (s *Surface) prepare() *image.RGBA {
	pw, ph := s.pixelSize()
	if s.img == nil || s.img.Bounds().Dx() != pw || s.img.Bounds().Dy() != ph {
		s.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
	}
	return s.img
}

// Pixels returns a copy of the current raster, nil before the first redraw.
func (s *Surface) Pixels() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil
	}
	cp := image.NewRGBA(s.img.Bounds())
	copy(cp.Pix, s.img.Pix)
	return cp
}

// PNG encodes the current raster.
func (s *Surface) PNG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img == nil {
		return nil, fmt.Errorf("surface has not been drawn")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
