// Package sourcedoc hands out the immutable base document all signing
// operations start from.
package sourcedoc

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/ledongthuc/pdf"
)

// Provider reads the configured base document. The document is only ever
// read, never written, so concurrent requests may load it in parallel.
type Provider struct {
	path        string
	maxFileSize int64
}

// NewProvider returns a provider for the base document at path.
func NewProvider(path string, maxFileSize int64) *Provider {
	return &Provider{
		path:        path,
		maxFileSize: maxFileSize,
	}
}

// Path returns the configured base-document location.
func (p *Provider) Path() string {
	return p.path
}

// Load returns the base document bytes. An absent file surfaces as
// fs.ErrNotExist so callers can map it to their not-found taxonomy.
func (p *Provider) Load() ([]byte, error) {
	info, err := os.Stat(p.path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("source document %s: %w", p.path, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access source document %s: %w", p.path, err)
	}

	if info.Size() == 0 {
		return nil, fmt.Errorf("source document %s is empty", p.path)
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("source document too large: %d bytes (max: %d bytes)",
			info.Size(), p.maxFileSize)
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("cannot read source document %s: %w", p.path, err)
	}
	return data, nil
}

// Probe cheaply verifies the configured source opens as a PDF. Intended
// as a startup check; an absent file is not an error here since the
// document may be provisioned after boot.
func (p *Provider) Probe() error {
	if _, err := os.Stat(p.path); os.IsNotExist(err) {
		return nil
	}

	f, _, err := pdf.Open(p.path)
	if err != nil {
		return fmt.Errorf("source document %s is not a valid PDF: %w", p.path, err)
	}
	return f.Close()
}
