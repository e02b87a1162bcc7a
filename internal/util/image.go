package util

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	"image/png"
)

// CreateProbeImageBase64 renders a small all-white PNG and returns it
// base64-encoded. The vision probe embeds it as an inline data URL; the
// content of the picture is irrelevant, only that the endpoint accepts
// image parts at all.
func CreateProbeImageBase64(width, height int) (string, error) {
	if width <= 0 {
		width = 16
	}
	if height <= 0 {
		height = 16
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
