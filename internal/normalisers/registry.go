package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/normalisers/docx"
	"github.com/custodia-labs/docrag/internal/normalisers/html"
	"github.com/custodia-labs/docrag/internal/normalisers/markdown"
	"github.com/custodia-labs/docrag/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the highest priority normaliser
// that accepts their MIME type or, failing that, their file extension.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterDefaults registers the built-in format normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

// Normalise transforms a raw document using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n := r.Select(raw.MIMEType, raw.URI)
	if n == nil {
		return nil, fmt.Errorf("no normaliser for %q (%s): %w", raw.URI, raw.MIMEType, domain.ErrUnsupportedType)
	}
	logger.Debug("normalising %s with %T", raw.URI, n)
	return n.Normalise(ctx, raw)
}

// Select returns the normaliser for a MIME type, falling back to the
// extension of name. Returns nil when nothing matches.
func (r *Registry) Select(mimeType, name string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if base := baseMIMEType(mimeType); base != "" {
		for _, n := range r.normalisers {
			if contains(n.SupportedMIMETypes(), base) {
				return n
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil
	}
	for _, n := range r.normalisers {
		if contains(n.SupportedExtensions(), ext) {
			return n
		}
	}
	if guessed := baseMIMEType(mime.TypeByExtension(ext)); guessed != "" {
		for _, n := range r.normalisers {
			if contains(n.SupportedMIMETypes(), guessed) {
				return n
			}
		}
	}
	return nil
}

// baseMIMEType drops parameters such as "; charset=utf-8".
func baseMIMEType(t string) string {
	if t == "" {
		return ""
	}
	media, _, err := mime.ParseMediaType(t)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(t, ";", 2)[0]))
	}
	return media
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
