package sign

import (
	"fmt"
	"time"

	"github.com/a3tai/pdf-sign-server/internal/pdfdoc"
)

const (
	// signatureOpacity suggests an overlay rather than opaque ink.
	signatureOpacity = 0.9

	fieldFontSize = 10.0
	borderWidth   = 1.0

	// radioInset is the margin between the box edge and the circle.
	radioInset = 2.0

	dateLayout = "01/02/2006"
)

// EmbedOutcome names how a signature field ended up on the page.
type EmbedOutcome int

const (
	// EmbedNone: no signature payload was supplied, nothing was drawn.
	EmbedNone EmbedOutcome = iota
	// EmbedImage: the payload decoded and was drawn as an image.
	EmbedImage
	// EmbedPlaceholder: decode or embedding failed and the bordered
	// "SIGNATURE" placeholder was drawn instead.
	EmbedPlaceholder
)

// Renderer dispatches one field to its drawing rule. It mutates the
// in-memory document only and never touches persistent storage.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a field renderer using the wall clock for date
// fields.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// RenderField draws f onto its target page. Out-of-range page numbers
// clamp silently to the last page. The returned outcome is meaningful for
// signature fields only.
func (r *Renderer) RenderField(doc *pdfdoc.Document, f PlacedField, signatureImage string) (EmbedOutcome, error) {
	page, err := doc.Page(doc.ClampPage(f.Rect.Page))
	if err != nil {
		return EmbedNone, err
	}

	switch f.Type {
	case FieldSignature:
		return r.renderSignature(page, f.Rect, signatureImage)
	case FieldText:
		return EmbedNone, r.renderText(page, f.Rect, f.Value)
	case FieldDate:
		return EmbedNone, r.renderDate(page, f.Rect)
	case FieldRadio:
		return EmbedNone, r.renderRadio(page, f.Rect)
	case FieldImage:
		return EmbedNone, r.renderImagePlaceholder(page, f.Rect)
	}
	return EmbedNone, fmt.Errorf("unknown field type %q", f.Type)
}

// origin converts the field's top-left-origin box into the PDF-space
// coordinates of its bottom-left corner.
func origin(page *pdfdoc.Page, rect Rect) (x, y float64) {
	return rect.X, page.Height() - rect.Y - rect.Height
}

// renderSignature embeds the decoded payload aspect-fitted into the box
// at partial opacity. Decode or embed failures degrade to the placeholder
// instead of failing the request; an empty payload draws nothing.
func (r *Renderer) renderSignature(page *pdfdoc.Page, rect Rect, payload string) (EmbedOutcome, error) {
	if payload == "" {
		return EmbedNone, nil
	}

	img, err := DecodeSignatureImage(payload)
	if err != nil {
		return EmbedPlaceholder, r.drawPlaceholder(page, rect, "SIGNATURE")
	}

	name, err := page.AddImage(img)
	if err != nil {
		return EmbedPlaceholder, r.drawPlaceholder(page, rect, "SIGNATURE")
	}

	gs, err := page.EnsureOpacityGState(signatureOpacity)
	if err != nil {
		return EmbedNone, err
	}

	fit := FitRect(float64(img.Width), float64(img.Height), rect.Width, rect.Height)
	bx, by := origin(page, rect)

	cw := pdfdoc.NewContentWriter()
	cw.SaveState()
	cw.SetGState(gs)
	cw.Image(name, bx+fit.XOffset, by+fit.YOffset, fit.Width, fit.Height)
	cw.RestoreState()

	if err := page.AppendContent(cw.Bytes()); err != nil {
		return EmbedNone, err
	}
	return EmbedImage, nil
}

// renderText draws a bordered white box with the value vertically
// centered inside it. An empty value draws nothing.
func (r *Renderer) renderText(page *pdfdoc.Page, rect Rect, value string) error {
	if value == "" {
		return nil
	}
	return r.drawLabeledBox(page, rect, value, [3]float64{1, 1, 1}, false)
}

// renderDate always draws: a bordered light-blue box with the current
// date vertically centered.
func (r *Renderer) renderDate(page *pdfdoc.Page, rect Rect) error {
	date := r.now().Format(dateLayout)
	return r.drawLabeledBox(page, rect, date, [3]float64{0.88, 0.93, 1}, false)
}

// renderRadio draws an unfilled circle inscribed in the box with a
// two-unit inset margin.
func (r *Renderer) renderRadio(page *pdfdoc.Page, rect Rect) error {
	bx, by := origin(page, rect)

	radius := rect.Width
	if rect.Height < radius {
		radius = rect.Height
	}
	radius = radius/2 - radioInset

	cw := pdfdoc.NewContentWriter()
	cw.SaveState()
	cw.SetLineWidth(borderWidth)
	cw.SetStrokeRGB(0, 0, 0)
	cw.Circle(bx+rect.Width/2, by+rect.Height/2, radius)
	cw.Stroke()
	cw.RestoreState()

	return page.AppendContent(cw.Bytes())
}

// renderImagePlaceholder draws the structural "[IMAGE]" placeholder. This
// field type never decodes a payload.
func (r *Renderer) renderImagePlaceholder(page *pdfdoc.Page, rect Rect) error {
	return r.drawPlaceholder(page, rect, "[IMAGE]")
}

// drawPlaceholder draws a bordered rectangle with a centered label.
func (r *Renderer) drawPlaceholder(page *pdfdoc.Page, rect Rect, label string) error {
	return r.drawLabeledBox(page, rect, label, [3]float64{1, 1, 1}, true)
}

// drawLabeledBox fills and strokes the field box, then draws the label
// vertically centered. Centered labels are also horizontally centered
// using the average Helvetica glyph width; left-aligned labels get a
// small padding.
func (r *Renderer) drawLabeledBox(page *pdfdoc.Page, rect Rect, label string, fill [3]float64, centered bool) error {
	font, err := page.EnsureHelvetica()
	if err != nil {
		return err
	}

	bx, by := origin(page, rect)

	size := fieldFontSize
	if rect.Height < size+2 {
		size = rect.Height - 2
	}
	if size < 1 {
		size = 1
	}

	tx := bx + 4
	if centered {
		// Approximate width: Helvetica averages about half the point
		// size per glyph.
		textWidth := 0.5 * size * float64(len(label))
		tx = bx + (rect.Width-textWidth)/2
		if tx < bx {
			tx = bx
		}
	}
	// Baseline sits a bit above vertical center minus the cap height.
	ty := by + (rect.Height-size)/2 + size*0.2

	cw := pdfdoc.NewContentWriter()
	cw.SaveState()
	cw.SetLineWidth(borderWidth)
	cw.SetFillRGB(fill[0], fill[1], fill[2])
	cw.SetStrokeRGB(0, 0, 0)
	cw.Rect(bx, by, rect.Width, rect.Height)
	cw.FillStroke()
	cw.SetFillRGB(0, 0, 0)
	cw.Text(font, size, tx, ty, label)
	cw.RestoreState()

	return page.AppendContent(cw.Bytes())
}
