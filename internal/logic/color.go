package logic

import "math"

// hueRange is the arc swept between the off threshold (green) and the on
// threshold (red), as a fraction of the full hue circle.
const hueRange = 120.0 / 360.0

// Hue maps temp onto [0, 1/3]: 1/3 (green) at or below off, 0 (red) at or
// above on. Inverted or equal thresholds collapse to a step at on.
func Hue(temp, off, on float64) float64 {
	span := on - off
	var x float64
	if span <= 0 {
		if temp >= on {
			x = 1
		}
	} else {
		x = clamp((temp-off)/span, 0, 1)
	}
	return (1 - x) * hueRange
}

// ColorFor returns the LED color for temp, scaled by brightness (0-255).
func ColorFor(temp, off, on, brightness float64) RGB {
	r, g, b := hsvToRGB(Hue(temp, off, on), 1, clamp(brightness, 0, 255)/255)
	return RGB{
		R: uint8(r * 255),
		G: uint8(g * 255),
		B: uint8(b * 255),
	}
}

// hsvToRGB converts h, s, v in [0, 1] to r, g, b in [0, 1].
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	if s == 0 {
		return v, v, v
	}
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
