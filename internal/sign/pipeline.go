package sign

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-sign-server/internal/audit"
	"github.com/a3tai/pdf-sign-server/internal/pdfdoc"
)

// SourceProvider supplies the immutable base document. An absent document
// surfaces as an error wrapping fs.ErrNotExist.
type SourceProvider interface {
	Load() ([]byte, error)
}

// ArtifactStore persists rendered output bytes under a generated name.
type ArtifactStore interface {
	Save(data []byte) (name string, err error)
}

// Pipeline runs one signing request end to end: validate, render, hash,
// persist, audit. Each invocation is self-contained and internally
// sequential; concurrent invocations share only the read-only source
// document and the append-only ledger.
type Pipeline struct {
	source   SourceProvider
	store    ArtifactStore
	audits   audit.Store
	renderer *Renderer
	logger   *zap.Logger
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(source SourceProvider, store ArtifactStore, audits audit.Store, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		store:    store,
		audits:   audits,
		renderer: NewRenderer(),
		logger:   logger,
	}
}

// Sign executes the pipeline. Client input errors return
// ErrInvalidRequest before any document is read; an absent base document
// returns ErrSourceMissing; everything else surfaces as an internal
// error.
func (p *Pipeline) Sign(ctx context.Context, req Request) (*Result, error) {
	if req.PDFID == "" {
		return nil, fmt.Errorf("%w: pdfId is required", ErrInvalidRequest)
	}
	if req.Fields == nil {
		return nil, fmt.Errorf("%w: fields must be a list", ErrInvalidRequest)
	}

	placed, err := ValidateFields(req.Fields)
	if err != nil {
		return nil, err
	}

	src, err := p.source.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSourceMissing
		}
		return nil, err
	}
	originalHash := HashBytes(src)

	doc, err := pdfdoc.LoadBytes(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load source document: %w", err)
	}

	for i, f := range placed {
		outcome, err := p.renderer.RenderField(doc, f, req.SignatureImage)
		if err != nil {
			return nil, fmt.Errorf("failed to render field %d (%s): %w", i, f.Type, err)
		}
		if outcome == EmbedPlaceholder {
			p.logger.Warn("signature image could not be embedded, drew placeholder",
				zap.String("pdf_id", req.PDFID),
				zap.Int("field", i))
		}
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize signed document: %w", err)
	}
	signedHash := HashBytes(out)

	name, err := p.store.Save(out)
	if err != nil {
		return nil, fmt.Errorf("failed to persist signed document: %w", err)
	}

	rec := audit.NewRecord(req.PDFID, originalHash, signedHash,
		auditFields(placed), req.IPAddress, req.UserAgent)
	saved, err := p.audits.Save(ctx, rec)
	if err != nil {
		// The artifact is already finalized; name it so the orphan is
		// observable.
		return nil, fmt.Errorf("failed to record audit entry for artifact %s: %w", name, err)
	}

	p.logger.Info("document signed",
		zap.String("pdf_id", req.PDFID),
		zap.String("artifact", name),
		zap.String("audit_id", saved.ID),
		zap.Int("fields", len(placed)))

	return &Result{
		SignedName:   name,
		OriginalHash: originalHash,
		SignedHash:   signedHash,
		AuditID:      saved.ID,
	}, nil
}

// auditFields converts placed fields into their ledger form. Redaction of
// non-text values happens in audit.NewRecord.
func auditFields(placed []PlacedField) []audit.Field {
	fields := make([]audit.Field, len(placed))
	for i, f := range placed {
		fields[i] = audit.Field{
			Type: string(f.Type),
			Coordinates: audit.Coordinates{
				X:      f.Rect.X,
				Y:      f.Rect.Y,
				Width:  f.Rect.Width,
				Height: f.Rect.Height,
				Page:   f.Rect.Page,
			},
			Value: f.Value,
		}
	}
	return fields
}
