package sign

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/a3tai/pdf-sign-server/internal/pdfdoc"
)

// DecodeSignatureImage parses a data-URI signature payload into a raster
// ready for embedding. PNG and JPEG media types are supported; PNG alpha
// is flattened over white since the page background shows through the
// overlay opacity anyway.
func DecodeSignatureImage(dataURI string) (*pdfdoc.RasterImage, error) {
	mediaType, payload, err := splitDataURI(dataURI)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image payload: %w", err)
	}

	switch mediaType {
	case "image/png":
		return decodePNG(raw)
	case "image/jpeg", "image/jpg":
		return decodeJPEG(raw)
	default:
		return nil, fmt.Errorf("unsupported image media type %q", mediaType)
	}
}

// splitDataURI separates "data:<mediatype>;base64,<payload>".
func splitDataURI(uri string) (mediaType, payload string, err error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", "", fmt.Errorf("signature image is not a data URI")
	}
	rest := uri[len("data:"):]

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", "", fmt.Errorf("malformed data URI: missing payload separator")
	}
	meta, payload := rest[:comma], rest[comma+1:]

	if !strings.HasSuffix(meta, ";base64") {
		return "", "", fmt.Errorf("data URI payload must be base64 encoded")
	}
	return strings.TrimSuffix(meta, ";base64"), payload, nil
}

func decodePNG(raw []byte) (*pdfdoc.RasterImage, error) {
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("PNG has empty bounds")
	}

	rgb := make([]byte, 0, w*h*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgb = append(rgb, flattenOverWhite(img.At(x, y))...)
		}
	}

	return &pdfdoc.RasterImage{Width: w, Height: h, RGB: rgb}, nil
}

// flattenOverWhite composites one pixel over a white background and
// returns its 8-bit RGB samples.
func flattenOverWhite(c color.Color) []byte {
	r, g, b, a := c.RGBA() // alpha-premultiplied, 16-bit
	if a == 0 {
		return []byte{0xff, 0xff, 0xff}
	}
	inv := 0xffff - a
	return []byte{
		uint8((r + inv) >> 8),
		uint8((g + inv) >> 8),
		uint8((b + inv) >> 8),
	}
}

func decodeJPEG(raw []byte) (*pdfdoc.RasterImage, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to read JPEG header: %w", err)
	}
	// Full decode proves the payload is drawable before it is embedded
	// verbatim as a DCT stream.
	if _, err := jpeg.Decode(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to decode JPEG: %w", err)
	}

	return &pdfdoc.RasterImage{
		Width:  cfg.Width,
		Height: cfg.Height,
		JPEG:   raw,
		Gray:   cfg.ColorModel == color.GrayModel,
	}, nil
}
