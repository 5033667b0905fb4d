package shapes

import (
	"fmt"
	"image/color"
	"math/rand/v2"
)

// Channel bounds for sampled colors. The lower bound keeps colors away from black.
const (
	MinChannel = 50
	MaxChannel = 255
)

// Color is an opaque RGB color with 8-bit components.
type Color struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Hex returns the color as "#RRGGBB".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// SampleColor draws each channel independently and uniformly from [MinChannel, MaxChannel].
func SampleColor(rng *rand.Rand) Color {
	return Color{
		R: sampleChannel(rng),
		G: sampleChannel(rng),
		B: sampleChannel(rng),
	}
}

// SampleContrastingColor samples colors until one differs from bg.
func SampleContrastingColor(rng *rand.Rand, bg Color) Color {
	c := SampleColor(rng)
	for c == bg {
		c = SampleColor(rng)
	}
	return c
}

func sampleChannel(rng *rand.Rand) uint8 {
	return uint8(MinChannel + rng.IntN(MaxChannel-MinChannel+1))
}
