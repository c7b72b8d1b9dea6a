// Package pdfdoc provides a mutable in-memory PDF document on top of
// pdfcpu's context model. It exposes exactly the operations the field
// renderer needs: page lookup with clamping, content-stream appends and
// page-level resource registration (fonts, image XObjects, graphics
// states).
package pdfdoc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Document wraps a pdfcpu context for mutation. A Document is owned by a
// single pipeline invocation and is not safe for concurrent use.
type Document struct {
	ctx *model.Context

	// guarded tracks pages whose original content has been wrapped in
	// q/Q so leftover graphics state cannot leak into appended drawing.
	guarded map[int]bool

	// imageSeq numbers generated image resource names.
	imageSeq int
}

// Load reads a PDF document into a mutable context.
func Load(rs io.ReadSeeker) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return &Document{
		ctx:     ctx,
		guarded: make(map[int]bool),
	}, nil
}

// LoadBytes reads a PDF document from an in-memory byte slice.
func LoadBytes(b []byte) (*Document, error) {
	return Load(bytes.NewReader(b))
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// ClampPage maps a 1-based requested page number onto a valid page.
// Requests past the last page clamp to the last page rather than erroring.
func (d *Document) ClampPage(requested int) int {
	if requested > d.ctx.PageCount {
		return d.ctx.PageCount
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// Page returns a handle for mutating the given 1-based page.
func (d *Document) Page(number int) (*Page, error) {
	pageDict, _, inhAttrs, err := d.ctx.PageDict(number, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve page %d: %w", number, err)
	}
	if pageDict == nil {
		return nil, fmt.Errorf("page %d not found", number)
	}

	return &Page{
		doc:    d,
		number: number,
		dict:   pageDict,
		attrs:  inhAttrs,
	}, nil
}

// WriteTo serializes the document, rewriting the cross-reference table.
func (d *Document) WriteTo(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("failed to write PDF context: %w", err)
	}
	return nil
}

// Bytes serializes the document into a fresh byte slice.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// newContentStream flate-encodes buf into a new stream object and returns
// an indirect reference to it.
func (d *Document) newContentStream(buf []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("failed to encode content stream: %w", err)
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// Page is a mutable handle on one document page.
type Page struct {
	doc    *Document
	number int
	dict   types.Dict
	attrs  *model.InheritedPageAttrs
}

// Number returns the 1-based page number.
func (p *Page) Number() int {
	return p.number
}

// Height returns the page height in PDF user-space units, taken from the
// effective MediaBox. Used to convert top-left-origin field coordinates
// into PDF's bottom-left origin.
func (p *Page) Height() float64 {
	if p.attrs != nil && p.attrs.MediaBox != nil {
		return p.attrs.MediaBox.Height()
	}
	// No MediaBox anywhere in the page tree; fall back to US Letter.
	return 792
}

// Width returns the page width in PDF user-space units.
func (p *Page) Width() float64 {
	if p.attrs != nil && p.attrs.MediaBox != nil {
		return p.attrs.MediaBox.Width()
	}
	return 612
}

// resources returns the page's own resource dictionary, materializing one
// from the inherited attributes if the page relies on inheritance. The
// inherited entries are copied so the original content keeps resolving.
func (p *Page) resources() (types.Dict, error) {
	if obj, found := p.dict.Find("Resources"); found {
		res, err := p.doc.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference page resources: %w", err)
		}
		if res != nil {
			return res, nil
		}
	}

	res := types.NewDict()
	if p.attrs != nil && p.attrs.Resources != nil {
		for k, v := range p.attrs.Resources {
			res[k] = v
		}
	}
	p.dict["Resources"] = res
	return res, nil
}

// resourceSubDict returns the named resource subdictionary (Font, XObject,
// ExtGState, ...), creating it if absent.
func (p *Page) resourceSubDict(name string) (types.Dict, error) {
	res, err := p.resources()
	if err != nil {
		return nil, err
	}

	if obj, found := res.Find(name); found {
		sub, err := p.doc.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference %s resources: %w", name, err)
		}
		if sub != nil {
			return sub, nil
		}
	}

	sub := types.NewDict()
	res[name] = sub
	return sub, nil
}

// EnsureHelvetica registers the built-in Helvetica font on the page and
// returns its resource name. Idempotent per page.
func (p *Page) EnsureHelvetica() (string, error) {
	fonts, err := p.resourceSubDict("Font")
	if err != nil {
		return "", err
	}

	const name = "FSHelv"
	if _, found := fonts.Find(name); !found {
		d := types.Dict(map[string]types.Object{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name("Helvetica"),
			"Encoding": types.Name("WinAnsiEncoding"),
		})
		ir, err := p.doc.ctx.IndRefForNewObject(d)
		if err != nil {
			return "", fmt.Errorf("failed to register font: %w", err)
		}
		fonts[name] = *ir
	}
	return name, nil
}

// EnsureOpacityGState registers an ExtGState carrying the given constant
// alpha for both stroking and non-stroking operations and returns its
// resource name. Idempotent per page and alpha value.
func (p *Page) EnsureOpacityGState(alpha float64) (string, error) {
	states, err := p.resourceSubDict("ExtGState")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("FSGS%d", int(alpha*100))
	if _, found := states.Find(name); !found {
		d := types.Dict(map[string]types.Object{
			"Type": types.Name("ExtGState"),
			"CA":   types.Float(alpha),
			"ca":   types.Float(alpha),
		})
		ir, err := p.doc.ctx.IndRefForNewObject(d)
		if err != nil {
			return "", fmt.Errorf("failed to register graphics state: %w", err)
		}
		states[name] = *ir
	}
	return name, nil
}

// AddImage registers a decoded raster as an image XObject on the page and
// returns its generated resource name.
func (p *Page) AddImage(img *RasterImage) (string, error) {
	xobjects, err := p.resourceSubDict("XObject")
	if err != nil {
		return "", err
	}

	sd, err := img.streamDict(p.doc.ctx)
	if err != nil {
		return "", err
	}
	ir, err := p.doc.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return "", fmt.Errorf("failed to register image XObject: %w", err)
	}

	p.doc.imageSeq++
	name := fmt.Sprintf("FSIm%d", p.doc.imageSeq)
	xobjects[name] = *ir
	return name, nil
}

// AppendContent adds ops as a new content stream after the page's existing
// streams. On first touch the original content is wrapped in q/Q once so
// its graphics state cannot affect appended drawing.
func (p *Page) AppendContent(ops []byte) error {
	if !p.doc.guarded[p.number] {
		if err := p.guardExistingContent(); err != nil {
			return err
		}
		p.doc.guarded[p.number] = true
	}

	ir, err := p.doc.newContentStream(ops)
	if err != nil {
		return err
	}
	return p.appendContentRef(*ir)
}

// guardExistingContent brackets the page's current content streams with
// save/restore streams, normalizing Contents into an array.
func (p *Page) guardExistingContent() error {
	obj, found := p.dict.Find("Contents")
	if !found {
		// Empty page, nothing to guard.
		return nil
	}

	pre, err := p.doc.newContentStream([]byte("q\n"))
	if err != nil {
		return err
	}
	post, err := p.doc.newContentStream([]byte("\nQ\n"))
	if err != nil {
		return err
	}

	switch o := obj.(type) {
	case types.IndirectRef:
		deref, err := p.doc.ctx.Dereference(o)
		if err != nil {
			return fmt.Errorf("failed to dereference page contents: %w", err)
		}
		if arr, ok := deref.(types.Array); ok {
			guarded := append(types.Array{*pre}, arr...)
			p.dict["Contents"] = append(guarded, *post)
		} else {
			p.dict["Contents"] = types.Array{*pre, o, *post}
		}
	case types.Array:
		guarded := append(types.Array{*pre}, o...)
		p.dict["Contents"] = append(guarded, *post)
	default:
		return fmt.Errorf("unexpected page contents type %T", obj)
	}
	return nil
}

func (p *Page) appendContentRef(ir types.IndirectRef) error {
	obj, found := p.dict.Find("Contents")
	if !found {
		p.dict["Contents"] = types.Array{ir}
		return nil
	}

	switch o := obj.(type) {
	case types.Array:
		p.dict["Contents"] = append(o, ir)
	case types.IndirectRef:
		p.dict["Contents"] = types.Array{o, ir}
	default:
		return fmt.Errorf("unexpected page contents type %T", obj)
	}
	return nil
}
