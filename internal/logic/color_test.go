package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorForEndpoints(t *testing.T) {
	assert.Equal(t, RGB{G: 255}, ColorFor(55, 55, 65, 255), "off threshold is green")
	assert.Equal(t, RGB{R: 255}, ColorFor(65, 55, 65, 255), "on threshold is red")
}

func TestColorForClamps(t *testing.T) {
	assert.Equal(t, ColorFor(55, 55, 65, 255), ColorFor(20, 55, 65, 255))
	assert.Equal(t, ColorFor(55, 55, 65, 255), ColorFor(-10, 55, 65, 255))
	assert.Equal(t, ColorFor(65, 55, 65, 255), ColorFor(80, 55, 65, 255))
	assert.Equal(t, ColorFor(65, 55, 65, 255), ColorFor(120, 55, 65, 255))
}

func TestColorForMidpointIsYellow(t *testing.T) {
	c := ColorFor(60, 55, 65, 255)
	assert.InDelta(t, 255, int(c.R), 1)
	assert.InDelta(t, 255, int(c.G), 1)
	assert.Zero(t, c.B)
}

func TestColorForBrightness(t *testing.T) {
	assert.Equal(t, RGB{}, ColorFor(60, 55, 65, 0))

	c := ColorFor(55, 55, 65, 128)
	assert.Zero(t, c.R)
	assert.InDelta(t, 128, int(c.G), 1)
	assert.Zero(t, c.B)

	assert.Equal(t, ColorFor(65, 55, 65, 255), ColorFor(65, 55, 65, 400), "brightness is clamped")
}

func TestHueStrictlyDecreasesAcrossBand(t *testing.T) {
	prev := Hue(55, 55, 65)
	for temp := 55.25; temp <= 65; temp += 0.25 {
		h := Hue(temp, 55, 65)
		assert.Less(t, h, prev, "temp %.2f", temp)
		prev = h
	}
}

func TestHueRange(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, Hue(55, 55, 65), 1e-12)
	assert.InDelta(t, 0, Hue(65, 55, 65), 1e-12)
	assert.Equal(t, Hue(55, 55, 65), Hue(0, 55, 65))
	assert.Equal(t, Hue(65, 55, 65), Hue(100, 55, 65))
}

func TestColorForMonotonicChannels(t *testing.T) {
	prev := ColorFor(55, 55, 65, 255)
	for temp := 55.5; temp <= 65; temp += 0.5 {
		c := ColorFor(temp, 55, 65, 255)
		assert.GreaterOrEqual(t, c.R, prev.R, "red never falls as temp rises (%.1f)", temp)
		assert.LessOrEqual(t, c.G, prev.G, "green never rises as temp rises (%.1f)", temp)
		assert.Zero(t, c.B)
		prev = c
	}
}

func TestHueDegenerateThresholds(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, Hue(50, 60, 60), 1e-12)
	assert.InDelta(t, 0, Hue(60, 60, 60), 1e-12)
	assert.InDelta(t, 0, Hue(70, 65, 55), 1e-12)
}

func TestHSVToRGBGray(t *testing.T) {
	r, g, b := hsvToRGB(0.4, 0, 0.5)
	assert.Equal(t, 0.5, r)
	assert.Equal(t, 0.5, g)
	assert.Equal(t, 0.5, b)
}
