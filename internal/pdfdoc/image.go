package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// RasterImage is a decoded raster ready for embedding as an image XObject.
// Exactly one of JPEG or RGB is set: JPEG carries the original DCT-encoded
// bytes and is embedded as-is, RGB carries 8-bit 3-component samples and
// is flate-compressed on embedding.
type RasterImage struct {
	Width  int
	Height int
	JPEG   []byte
	Gray   bool // JPEG only: single-component DeviceGray
	RGB    []byte
}

func (r *RasterImage) streamDict(ctx *model.Context) (*types.StreamDict, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", r.Width, r.Height)
	}

	if r.JPEG != nil {
		return r.jpegStreamDict()
	}
	return r.rgbStreamDict(ctx)
}

// jpegStreamDict embeds the JPEG bytes directly under a DCTDecode filter.
func (r *RasterImage) jpegStreamDict() (*types.StreamDict, error) {
	cs := "DeviceRGB"
	if r.Gray {
		cs = "DeviceGray"
	}

	sd := types.StreamDict{
		Dict: types.Dict(map[string]types.Object{
			"Type":             types.Name("XObject"),
			"Subtype":          types.Name("Image"),
			"Width":            types.Integer(r.Width),
			"Height":           types.Integer(r.Height),
			"ColorSpace":       types.Name(cs),
			"BitsPerComponent": types.Integer(8),
		}),
		Raw:            r.JPEG,
		FilterPipeline: []types.PDFFilter{{Name: filter.DCT, DecodeParms: nil}},
	}
	sd.InsertName("Filter", filter.DCT)
	sd.InsertInt("Length", len(r.JPEG))
	length := int64(len(r.JPEG))
	sd.StreamLength = &length
	return &sd, nil
}

// rgbStreamDict flate-compresses raw RGB samples.
func (r *RasterImage) rgbStreamDict(ctx *model.Context) (*types.StreamDict, error) {
	if want := r.Width * r.Height * 3; len(r.RGB) != want {
		return nil, fmt.Errorf("image sample buffer has %d bytes, want %d", len(r.RGB), want)
	}

	sd, err := ctx.NewStreamDictForBuf(r.RGB)
	if err != nil {
		return nil, fmt.Errorf("failed to create image stream: %w", err)
	}
	sd.InsertName("Type", "XObject")
	sd.InsertName("Subtype", "Image")
	sd.InsertInt("Width", r.Width)
	sd.InsertInt("Height", r.Height)
	sd.InsertName("ColorSpace", "DeviceRGB")
	sd.InsertInt("BitsPerComponent", 8)

	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode image stream: %w", err)
	}
	return sd, nil
}
