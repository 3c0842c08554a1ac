package render

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	ErrUnknownSignal = errors.New("unknown signal")
	ErrInvalidColor  = errors.New("invalid color")
	ErrUnknownTheme  = errors.New("unknown theme")
)

// Signal names a plotted series.
type Signal string

const (
	SignalECG         Signal = "ecg"
	SignalHeartRate   Signal = "heartRate"
	SignalOxygen      Signal = "oxygen"
	SignalTemperature Signal = "temperature"
)

// Signals lists every signal that has a color.
var Signals = []Signal{SignalECG, SignalHeartRate, SignalOxygen, SignalTemperature}

// Presets are the quick-pick colors offered next to the free color input.
var Presets = []string{"#10B981", "#3B82F6", "#F59E0B", "#EC4899", "#8B5CF6", "#EF4444"}

func ParseSignal(s string) (Signal, error) {
	for _, sig := range Signals {
		if string(sig) == s {
			return sig, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSignal, s)
}

var (
	hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	rgbColor = regexp.MustCompile(`^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
)

// ParseColor accepts #RGB, #RRGGBB and rgb(r, g, b).
func ParseColor(s string) (drawing.Color, error) {
	s = strings.TrimSpace(s)
	if m := hexColor.FindStringSubmatch(s); m != nil {
		hex := m[1]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		c := drawing.ColorFromHex(hex)
		c.A = 255
		return c, nil
	}
	if m := rgbColor.FindStringSubmatch(s); m != nil {
		var ch [3]uint8
		for i := range ch {
			v, err := strconv.Atoi(m[i+1])
			if err != nil || v > 255 {
				return drawing.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
			}
			ch[i] = uint8(v)
		}
		return drawing.Color{R: ch[0], G: ch[1], B: ch[2], A: 255}, nil
	}
	return drawing.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// FormatColor renders c as #RRGGBB.
func FormatColor(c drawing.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func mustColor(s string) drawing.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func defaultColors(t Theme) map[Signal]drawing.Color {
	if t.Name == ThemeLight {
		return map[Signal]drawing.Color{
			SignalECG:         mustColor("#10B981"),
			SignalHeartRate:   mustColor("rgb(5, 150, 105)"),
			SignalOxygen:      mustColor("rgb(59, 130, 246)"),
			SignalTemperature: mustColor("rgb(202, 138, 4)"),
		}
	}
	return map[Signal]drawing.Color{
		SignalECG:         mustColor("#10B981"),
		SignalHeartRate:   mustColor("rgb(16, 185, 129)"),
		SignalOxygen:      mustColor("rgb(96, 165, 250)"),
		SignalTemperature: mustColor("rgb(250, 204, 21)"),
	}
}

// ColorSet maps signals to their stroke color. Colors the user never set
// follow the theme defaults.
type ColorSet struct {
	mu     sync.RWMutex
	theme  Theme
	colors map[Signal]drawing.Color
	custom map[Signal]bool
}

func NewColorSet(t Theme) *ColorSet {
	return &ColorSet{theme: t, colors: defaultColors(t), custom: map[Signal]bool{}}
}

// Set changes the color of one signal.
func (c *ColorSet) Set(sig Signal, value string) error {
	if _, err := ParseSignal(string(sig)); err != nil {
		return err
	}
	col, err := ParseColor(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colors[sig] = col
	c.custom[sig] = true
	return nil
}

func (c *ColorSet) Get(sig Signal) (drawing.Color, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.colors[sig]
	if !ok {
		return drawing.Color{}, fmt.Errorf("%w: %q", ErrUnknownSignal, sig)
	}
	return col, nil
}

// ApplyTheme switches the defaults; user-chosen colors are kept.
func (c *ColorSet) ApplyTheme(t Theme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = t
	for sig, col := range defaultColors(t) {
		if !c.custom[sig] {
			c.colors[sig] = col
		}
	}
}

// Snapshot returns signal → #RRGGBB.
func (c *ColorSet) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.colors))
	for sig, col := range c.colors {
		out[string(sig)] = FormatColor(col)
	}
	return out
}
