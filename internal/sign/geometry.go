package sign

// FittedRect is the size and centering offset of an image placed inside a
// bounding box without distortion.
type FittedRect struct {
	Width   float64
	Height  float64
	XOffset float64
	YOffset float64
}

// FitRect scales an image of intrinsic size imgW×imgH to fit entirely
// inside a maxW×maxH box, preserving its aspect ratio, and centers it.
// If the image is relatively wider than the box its width is clamped to
// maxW, otherwise its height is clamped to maxH. Callers guarantee
// positive box dimensions (coordinate validation) and positive image
// dimensions (decode).
func FitRect(imgW, imgH, maxW, maxH float64) FittedRect {
	imageRatio := imgW / imgH
	boxRatio := maxW / maxH

	var w, h float64
	if imageRatio > boxRatio {
		w = maxW
		h = maxW / imageRatio
	} else {
		h = maxH
		w = maxH * imageRatio
	}

	return FittedRect{
		Width:   w,
		Height:  h,
		XOffset: (maxW - w) / 2,
		YOffset: (maxH - h) / 2,
	}
}
