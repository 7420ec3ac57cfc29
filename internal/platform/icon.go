package platform

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
)

// bgraToImage converts a bottom-up 32-bit BGRA DIB into an RGBA image.
// Bitmaps that carry no alpha at all are treated as fully opaque.
func bgraToImage(data []byte, width, height int) *image.RGBA {
	if width <= 0 || height <= 0 || len(data) < width*height*4 {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	hasAlpha := false

	for y := 0; y < height; y++ {
		srcY := height - 1 - y
		for x := 0; x < width; x++ {
			src := (srcY*width + x) * 4
			dst := (y*width + x) * 4

			img.Pix[dst+0] = data[src+2]
			img.Pix[dst+1] = data[src+1]
			img.Pix[dst+2] = data[src+0]
			img.Pix[dst+3] = data[src+3]
			if data[src+3] != 0 {
				hasAlpha = true
			}
		}
	}

	if !hasAlpha {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// pngDataURL encodes img as a data:image/png URL
func pngDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
