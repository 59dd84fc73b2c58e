package schema

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry caches schema documents by exact version.
// Versions are append-only: once registered a version cannot be replaced.
type Registry struct {
	docs   map[Version]*Document
	logger *slog.Logger
	mu     sync.RWMutex
}

// RegistryOption configures the registry
type RegistryOption func(*Registry)

// WithLogger sets the logger used for registration events
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		docs:   make(map[Version]*Document),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register inserts a document. It fails with *DuplicateVersionError if the version is taken.
func (r *Registry) Register(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.docs[doc.Version()]; exists {
		return &DuplicateVersionError{
			Version:  doc.Version().String(),
			Name:     doc.Name(),
			Existing: existing.Name(),
		}
	}

	r.docs[doc.Version()] = doc

	r.logger.Info("schema registered",
		"version", doc.Version().String(),
		"name", doc.Name(),
		"fields", doc.Len(),
	)

	return nil
}

// Load parses data and registers the resulting document
func (r *Registry) Load(data []byte) (*Document, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := r.Register(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadFile parses the file at path and registers the resulting document
func (r *Registry) LoadFile(path string) (*Document, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := r.Register(doc); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", path, err)
	}
	return doc, nil
}

// LoadDir loads every .yaml, .yml and .json file in dir (non-recursive) in lexical order.
// Loading stops at the first failure.
func (r *Registry) LoadDir(dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", dir, err)
	}

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}

		doc, err := r.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Resolve returns the document registered for the exact version
func (r *Registry) Resolve(version string) (*Document, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return nil, &UnknownVersionError{Version: version, Known: r.knownVersions()}
	}

	r.mu.RLock()
	doc, exists := r.docs[v]
	r.mu.RUnlock()

	if !exists {
		return nil, &UnknownVersionError{Version: version, Known: r.knownVersions()}
	}

	return doc, nil
}

// ResolveConstraint returns the highest registered document whose version satisfies
// constraint. An empty constraint resolves to the latest version.
func (r *Registry) ResolveConstraint(constraint string) (*Document, error) {
	if strings.TrimSpace(constraint) == "" {
		return r.Latest()
	}

	c, err := ParseConstraint(constraint)
	if err != nil {
		return nil, &UnknownVersionError{Version: constraint, Known: r.knownVersions()}
	}

	versions := r.Versions()
	for i := len(versions) - 1; i >= 0; i-- {
		if !c.Check(versions[i]) {
			continue
		}
		r.mu.RLock()
		doc := r.docs[versions[i]]
		r.mu.RUnlock()
		return doc, nil
	}

	return nil, &UnknownVersionError{Version: constraint, Known: r.knownVersions()}
}

// Versions returns all registered versions in ascending order
func (r *Registry) Versions() []Version {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := make([]Version, 0, len(r.docs))
	for v := range r.docs {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Compare(versions[j]) < 0
	})

	return versions
}

// Latest returns the document with the highest version
func (r *Registry) Latest() (*Document, error) {
	versions := r.Versions()
	if len(versions) == 0 {
		return nil, &UnknownVersionError{Version: "latest"}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.docs[versions[len(versions)-1]], nil
}

// Len returns the number of registered documents
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *Registry) knownVersions() []string {
	versions := r.Versions()
	known := make([]string, 0, len(versions))
	for _, v := range versions {
		known = append(known, v.String())
	}
	return known
}
