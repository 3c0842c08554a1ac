package render

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme is the palette the surfaces are cleared and gridded with.
type Theme struct {
	Name       string
	Background drawing.Color
	// Ink is the grid and axis base color; grids apply their own alpha.
	Ink drawing.Color
}

var (
	Dark  = Theme{Name: ThemeDark, Background: drawing.Color{R: 0x1F, G: 0x29, B: 0x37, A: 255}, Ink: drawing.Color{R: 255, G: 255, B: 255, A: 255}}
	Light = Theme{Name: ThemeLight, Background: drawing.Color{R: 255, G: 255, B: 255, A: 255}, Ink: drawing.Color{A: 255}}
)

func ParseTheme(name string) (Theme, error) {
	switch name {
	case ThemeDark:
		return Dark, nil
	case ThemeLight:
		return Light, nil
	default:
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
}

func (t Theme) ink(alpha float64) drawing.Color {
	return withAlpha(t.Ink, alpha)
}

func withAlpha(c drawing.Color, alpha float64) drawing.Color {
	c.A = uint8(alpha*255 + 0.5)
	return c
}
