package imagecache

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/snapvault/widgetsync/internal/common"
)

const (
	// boundedDim is the target bound for the longer processing pass: images
	// are subsampled until half of each dimension no longer exceeds it.
	boundedDim = 512

	// jpegQuality for re-encoded cache files.
	jpegQuality = 90
)

// sampleFactor picks the power-of-two divisor for an image of the given
// size: the largest factor for which half the width and half the height,
// divided by the factor, still reach the bound. A small image keeps factor 1.
func sampleFactor(width, height int) int {
	factor := 1
	halfW, halfH := width/2, height/2
	for halfW/factor >= boundedDim && halfH/factor >= boundedDim {
		factor *= 2
	}
	return factor
}

// Process decodes an image payload, downscales it by its sample factor and
// re-encodes it as a quality-90 JPEG. Any decode failure comes back wrapped
// in common.ErrDecode.
func Process(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: reading image header: %v", common.ErrDecode, err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", common.ErrDecode, err)
	}

	factor := sampleFactor(cfg.Width, cfg.Height)
	out := src
	if factor > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, cfg.Width/factor, cfg.Height/factor))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding cached image: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadFromPath decodes a previously cached image file. An empty path, a
// missing file and an empty or corrupt file all yield (nil, nil): the caller
// renders without an image, the same as before the download finished.
func LoadFromPath(path string) (image.Image, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}
	return img, nil
}
