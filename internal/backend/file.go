package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"vocabhub/internal/codec"
	"vocabhub/internal/domain"
)

// FileBackend serves vocabularies parsed from RDF files under a directory.
// Each file is one vocabulary whose ID is the file name without extension.
type FileBackend struct {
	dir      string
	patterns []string
	lang     string
	logger   *slog.Logger

	mu     sync.RWMutex
	graphs map[string]*domain.Graph
	paths  map[string]string
}

// FileOption configures a FileBackend
type FileOption func(*FileBackend)

// WithLanguage sets the preferred language for discovered titles
func WithLanguage(lang string) FileOption {
	return func(b *FileBackend) {
		b.lang = lang
	}
}

// WithFileLogger sets the logger
func WithFileLogger(l *slog.Logger) FileOption {
	return func(b *FileBackend) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewFileBackend creates a file backend over dir. Call Load to read the files.
func NewFileBackend(dir string, patterns []string, opts ...FileOption) *FileBackend {
	if len(patterns) == 0 {
		patterns = []string{"**/*.ttl", "**/*.nt"}
	}
	b := &FileBackend{
		dir:      dir,
		patterns: patterns,
		lang:     "en",
		logger:   slog.Default(),
		graphs:   make(map[string]*domain.Graph),
		paths:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dir returns the watched directory
func (b *FileBackend) Dir() string {
	return b.dir
}

// Kind implements Backend
func (b *FileBackend) Kind() domain.SourceKind {
	return domain.SourceFile
}

// Load parses every matching file. A file that fails to parse is logged and
// skipped; the returned error reports only glob failures.
func (b *FileBackend) Load(ctx context.Context) error {
	files, err := b.glob()
	if err != nil {
		return err
	}

	graphs := make(map[string]*domain.Graph, len(files))
	paths := make(map[string]string, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, err := parseFile(path)
		if err != nil {
			b.logger.Warn("skipping vocabulary file", "path", path, "error", err)
			continue
		}
		id := VocabularyID(path)
		if prev, dup := paths[id]; dup {
			b.logger.Warn("duplicate vocabulary id, keeping first file", "id", id, "kept", prev, "ignored", path)
			continue
		}
		graphs[id] = g
		paths[id] = path
	}

	b.mu.Lock()
	b.graphs = graphs
	b.paths = paths
	b.mu.Unlock()

	b.logger.Info("loaded vocabulary files", "dir", b.dir, "count", len(graphs))
	return nil
}

func (b *FileBackend) glob() ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range b.patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(b.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether path is a vocabulary file this backend would load
func (b *FileBackend) Matches(path string) bool {
	rel, err := filepath.Rel(b.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range b.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Reload re-parses a single file, or forgets it when it no longer exists
func (b *FileBackend) Reload(path string) error {
	id := VocabularyID(path)

	g, err := parseFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		b.mu.Lock()
		if b.paths[id] == path {
			delete(b.graphs, id)
			delete(b.paths, id)
		}
		b.mu.Unlock()
		b.logger.Info("vocabulary file removed", "id", id, "path", path)
		return nil
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.graphs[id] = g
	b.paths[id] = path
	b.mu.Unlock()

	b.logger.Info("vocabulary file reloaded", "id", id, "path", path, "triples", g.Len())
	return nil
}

// Discover lists the loaded vocabularies. The title comes from the concept
// scheme's dcterms:title or skos:prefLabel and the root is the scheme itself.
func (b *FileBackend) Discover() []domain.Vocabulary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	vocabs := make([]domain.Vocabulary, 0, len(b.graphs))
	for id, g := range b.graphs {
		v := domain.Vocabulary{
			ID:     id,
			Title:  id,
			Source: domain.SourceFile,
		}
		if schemes := g.SubjectsOfType(domain.SKOSConceptScheme); len(schemes) > 0 {
			v.Root = schemes[0]
			if title := g.PreferredLabel(v.Root, domain.DCTermsTitle, b.lang); title != "" {
				v.Title = title
			} else if title := g.PreferredLabel(v.Root, domain.SKOSPrefLabel, b.lang); title != "" {
				v.Title = title
			}
		}
		vocabs = append(vocabs, v)
	}
	sort.Slice(vocabs, func(i, j int) bool { return vocabs[i].ID < vocabs[j].ID })
	return vocabs
}

// Vocabulary returns a backend scoped to one loaded vocabulary
func (b *FileBackend) Vocabulary(id string) Backend {
	return &fileVocabulary{files: b, id: id}
}

func (b *FileBackend) graph(id string) (*domain.Graph, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	g, ok := b.graphs[id]
	return g, ok
}

type fileVocabulary struct {
	files *FileBackend
	id    string
}

func (v *fileVocabulary) Kind() domain.SourceKind {
	return domain.SourceFile
}

func (v *fileVocabulary) FetchNarrower(ctx context.Context, uri string) (*domain.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, ok := v.files.graph(v.id)
	if !ok {
		return nil, fmt.Errorf("vocabulary file %s is not loaded", v.id)
	}
	return domain.NarrowerGraph(g, uri), nil
}

// VocabularyID derives a vocabulary ID from a file path
func VocabularyID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseFile(path string) (*domain.Graph, error) {
	c := codec.ForPath(path)
	if c == nil {
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}
