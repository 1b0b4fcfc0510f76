package scanning

import (
	"math"
)

const (
	// FPS - frame rate target for the decoder
	FPS = 20
	// AspectRatio - viewfinder aspect ratio requested from the decoder
	AspectRatio = 1.0
	// RegionScale - share of the shorter viewfinder edge covered by the scan box
	RegionScale = 0.7
)

// Region - square region of interest in viewfinder pixels
type Region struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RegionOfInterest - square box sized to 70% of the shorter viewfinder dimension
func RegionOfInterest(viewfinderWidth, viewfinderHeight int) Region {
	minEdge := viewfinderWidth
	if viewfinderHeight < minEdge {
		minEdge = viewfinderHeight
	}
	if minEdge < 0 {
		minEdge = 0
	}
	size := int(math.Floor(float64(minEdge) * RegionScale))
	return Region{Width: size, Height: size}
}

// DecoderConfig - settings the external decoder is started with
type DecoderConfig struct {
	FPS              int      `json:"fps"`
	AspectRatio      float64  `json:"aspectRatio"`
	RegionScale      float64  `json:"qrboxScale"`
	FormatsToSupport []Format `json:"formatsToSupport"`
}

// DefaultDecoderConfig - fixed configuration used for every capture session
func DefaultDecoderConfig() DecoderConfig {
	formats := make([]Format, len(SupportedFormats))
	copy(formats, SupportedFormats)
	return DecoderConfig{
		FPS:              FPS,
		AspectRatio:      AspectRatio,
		RegionScale:      RegionScale,
		FormatsToSupport: formats,
	}
}

// Region - region of interest for the given viewfinder size
func (c DecoderConfig) Region(viewfinderWidth, viewfinderHeight int) Region {
	return RegionOfInterest(viewfinderWidth, viewfinderHeight)
}

// Allows - reports whether the config whitelists the format
func (c DecoderConfig) Allows(f Format) bool {
	for _, s := range c.FormatsToSupport {
		if s == f {
			return true
		}
	}
	return false
}
