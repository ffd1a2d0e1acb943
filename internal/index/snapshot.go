// Package index builds and caches the in-memory search indexes. A
// build produces an immutable Snapshot; the Cache swaps snapshots
// atomically so readers never observe a half-built index.
package index

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devapihub/apisearch/internal/corpus"
	"github.com/devapihub/apisearch/internal/embed"
	"github.com/devapihub/apisearch/internal/errors"
	"github.com/devapihub/apisearch/internal/fuzzy"
	"github.com/devapihub/apisearch/internal/store"
	"github.com/devapihub/apisearch/internal/vector"
)

// Snapshot is one complete, immutable search index. All fields are
// populated at build time and never mutated afterwards.
type Snapshot struct {
	builtAt       time.Time
	documentCount int
	encoderStats  embed.Stats

	docs    map[store.EntityType][]store.Document
	byID    map[string]store.Document
	order   map[string]int
	vectors map[store.EntityType]vector.Store
	matcher *fuzzy.Matcher
}

// BuiltAt returns when the snapshot was built.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// DocumentCount returns the total number of indexed documents.
func (s *Snapshot) DocumentCount() int { return s.documentCount }

// EncoderStats describes the encoder that embedded this snapshot.
func (s *Snapshot) EncoderStats() embed.Stats { return s.encoderStats }

// Documents returns the corpus documents of one type, in corpus order.
func (s *Snapshot) Documents(typ store.EntityType) []store.Document {
	return s.docs[typ]
}

// Document returns one corpus document by ID.
func (s *Snapshot) Document(docID string) (store.Document, bool) {
	d, ok := s.byID[docID]
	return d, ok
}

// Order returns the corpus ordinal of a document within its type, and
// whether the document exists.
func (s *Snapshot) Order(docID string) (int, bool) {
	ord, ok := s.order[docID]
	return ord, ok
}

// VectorSearch runs semantic search over one entity type.
func (s *Snapshot) VectorSearch(ctx context.Context, typ store.EntityType, query []float32, limit int, threshold float64) ([]vector.Result, error) {
	vs, ok := s.vectors[typ]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownEntityType,
			"no vector index for entity type: "+string(typ), nil)
	}
	return vs.Search(ctx, query, limit, threshold)
}

// FuzzySearch runs keyword search over one entity type.
func (s *Snapshot) FuzzySearch(ctx context.Context, typ store.EntityType, query string, limit int, filters map[string]string) ([]fuzzy.Result, error) {
	return s.matcher.Search(ctx, typ, query, limit, filters)
}

// VectorStore selects the vector index implementation a Builder
// produces.
type VectorStore string

// Supported vector store kinds.
const (
	VectorStoreLinear VectorStore = "linear"
	VectorStoreHNSW   VectorStore = "hnsw"
)

// Builder assembles snapshots from the rendered corpus.
type Builder struct {
	corpus      *corpus.Builder
	factory     *embed.Factory
	vectorStore VectorStore
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithVectorStore selects the vector index implementation. The linear
// store is the default; HNSW trades exactness for sub-linear search on
// large corpora.
func WithVectorStore(kind VectorStore) BuilderOption {
	return func(b *Builder) {
		if kind != "" {
			b.vectorStore = kind
		}
	}
}

// NewBuilder creates a snapshot builder.
func NewBuilder(cb *corpus.Builder, factory *embed.Factory, opts ...BuilderOption) *Builder {
	b := &Builder{corpus: cb, factory: factory, vectorStore: VectorStoreLinear}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders the corpus, embeds it, and indexes both search sides.
// Any failure aborts the build; the caller keeps serving its previous
// snapshot.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	encoder, err := b.factory.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := b.corpus.Build(ctx)
	if err != nil {
		return nil, err
	}

	matcher, err := fuzzy.NewMatcher()
	if err != nil {
		return nil, err
	}

	for typ, typDocs := range docs {
		if err := matcher.Index(ctx, typ, fuzzy.FromCorpus(typ, typDocs)); err != nil {
			_ = matcher.Close()
			return nil, err
		}
	}

	vectors := make(map[store.EntityType]vector.Store, len(docs))
	var vecMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, typ := range store.AllEntityTypes() {
		g.Go(func() error {
			vs, err := b.buildVectors(gctx, encoder, docs[typ])
			if err != nil {
				return err
			}
			vecMu.Lock()
			vectors[typ] = vs
			vecMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = matcher.Close()
		return nil, err
	}

	order := make(map[string]int)
	byID := make(map[string]store.Document)
	total := 0
	for _, typDocs := range docs {
		for i, d := range typDocs {
			order[d.ID] = i
			byID[d.ID] = d
			total++
		}
	}

	return &Snapshot{
		builtAt:       time.Now(),
		documentCount: total,
		encoderStats:  b.factory.Stats(),
		docs:          docs,
		byID:          byID,
		order:         order,
		vectors:       vectors,
		matcher:       matcher,
	}, nil
}

func (b *Builder) newVectorStore(dimensions int) vector.Store {
	if b.vectorStore == VectorStoreHNSW {
		return vector.NewHNSWStore(vector.HNSWConfig{Dimensions: dimensions})
	}
	return vector.NewLinearStore(dimensions)
}

func (b *Builder) buildVectors(ctx context.Context, encoder embed.Encoder, docs []store.Document) (vector.Store, error) {
	vs := b.newVectorStore(encoder.Dimensions())
	if len(docs) == 0 {
		return vs, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	embeddings, err := encoder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.New(errors.ErrCodeEmbeddingFailed,
			"failed to embed corpus documents", err)
	}

	if err := vs.Upsert(docs, embeddings); err != nil {
		return nil, err
	}
	return vs, nil
}
