package pdfdoc

import (
	"bytes"
	"strconv"
	"strings"
)

// circleK is the cubic Bézier control-point factor approximating a
// quarter circle.
const circleK = 0.5523

// ContentWriter accumulates PDF content-stream operators. Coordinates are
// PDF user space (origin bottom-left).
type ContentWriter struct {
	buf bytes.Buffer
}

// NewContentWriter returns an empty content-stream builder.
func NewContentWriter() *ContentWriter {
	return &ContentWriter{}
}

// Bytes returns the accumulated operator stream.
func (c *ContentWriter) Bytes() []byte {
	return c.buf.Bytes()
}

func (c *ContentWriter) op(name string, args ...float64) {
	for _, a := range args {
		c.buf.WriteString(num(a))
		c.buf.WriteByte(' ')
	}
	c.buf.WriteString(name)
	c.buf.WriteByte('\n')
}

// SaveState emits q.
func (c *ContentWriter) SaveState() { c.op("q") }

// RestoreState emits Q.
func (c *ContentWriter) RestoreState() { c.op("Q") }

// SetGState selects a named ExtGState resource.
func (c *ContentWriter) SetGState(name string) {
	c.buf.WriteString("/" + name + " gs\n")
}

// SetLineWidth sets the stroke line width.
func (c *ContentWriter) SetLineWidth(w float64) { c.op("w", w) }

// SetFillRGB sets the non-stroking color.
func (c *ContentWriter) SetFillRGB(r, g, b float64) { c.op("rg", r, g, b) }

// SetStrokeRGB sets the stroking color.
func (c *ContentWriter) SetStrokeRGB(r, g, b float64) { c.op("RG", r, g, b) }

// Rect adds a rectangle to the current path.
func (c *ContentWriter) Rect(x, y, w, h float64) { c.op("re", x, y, w, h) }

// Fill fills the current path.
func (c *ContentWriter) Fill() { c.op("f") }

// Stroke strokes the current path.
func (c *ContentWriter) Stroke() { c.op("S") }

// FillStroke fills then strokes the current path.
func (c *ContentWriter) FillStroke() { c.op("B") }

// Circle adds a circle of radius r centered at (cx, cy) to the current
// path, approximated by four cubic Bézier segments.
func (c *ContentWriter) Circle(cx, cy, r float64) {
	k := circleK * r
	c.op("m", cx+r, cy)
	c.op("c", cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	c.op("c", cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	c.op("c", cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	c.op("c", cx+k, cy-r, cx+r, cy-k, cx+r, cy)
}

// Text draws s with the named font resource at the given baseline origin.
func (c *ContentWriter) Text(font string, size, x, y float64, s string) {
	c.buf.WriteString("BT\n")
	c.buf.WriteString("/" + font + " " + num(size) + " Tf\n")
	c.buf.WriteString(num(x) + " " + num(y) + " Td\n")
	c.buf.WriteString("(" + escapeText(s) + ") Tj\n")
	c.buf.WriteString("ET\n")
}

// Image draws the named image XObject scaled into the w×h box anchored at
// (x, y).
func (c *ContentWriter) Image(name string, x, y, w, h float64) {
	c.SaveState()
	c.op("cm", w, 0, 0, h, x, y)
	c.buf.WriteString("/" + name + " Do\n")
	c.RestoreState()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// escapeText escapes the characters with special meaning inside a PDF
// literal string.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
