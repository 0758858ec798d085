package pgm

import "fmt"

// Color is an RGB color parsed from a #rrggbb string.
type Color struct {
	R, G, B int
}

// ParseColor parses a #rrggbb string.
func ParseColor(s string) (Color, error) {
	var c Color
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q", s)
	}
	return c, nil
}

// Shift adds delta to every channel, clamping to 0..255.
func (c Color) Shift(delta int) Color {
	return Color{
		R: clampChannel(c.R + delta),
		G: clampChannel(c.G + delta),
		B: clampChannel(c.B + delta),
	}
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
