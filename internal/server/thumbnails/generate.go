// Package thumbnails produces the placeholder profile picture given to every
// new user and keeps it in blob storage.
package thumbnails

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
)

// Size is the width and height of a generated thumbnail.
const Size = 200

var palette = []color.RGBA{
	{R: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
}

// Generate draws a Size x Size PNG where every pixel is red, blue or yellow
// chosen at random.
func Generate(rng *rand.Rand) ([]byte, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			img.SetRGBA(x, y, palette[rng.IntN(len(palette))])
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
