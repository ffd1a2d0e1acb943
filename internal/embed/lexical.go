package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// LexicalEncoder generates term-frequency embeddings by hashing tokens
// into a fixed-size vector. It needs no network and no model download,
// so it is always available; semantic quality is reduced compared to a
// neural model but identical input always yields identical vectors.
type LexicalEncoder struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

// englishStopWords are dropped before hashing.
var englishStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "is": true,
	"are": true, "was": true, "be": true, "this": true, "that": true,
}

// apiKeywords get boosted weight so endpoint-shaped queries land on
// the right buckets even with few tokens.
var apiKeywords = map[string]bool{
	"api": true, "get": true, "post": true, "put": true, "delete": true,
	"patch": true, "create": true, "update": true, "query": true,
	"list": true, "user": true, "order": true, "data": true,
	"interface": true, "request": true, "response": true,
}

// Weights for vector generation.
const (
	tokenWeight     = 0.7
	ngramWeight     = 0.3
	apiKeywordBoost = 1.5
	ngramSize       = 3
)

// tokenRegex matches alphanumeric runs and individual Han characters,
// so CJK entity names tokenize one character at a time.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+|\p{Han}`)

// NewLexicalEncoder creates a lexical encoder with the given
// dimensionality. Dimensionality is fixed at construction and stable
// across calls.
func NewLexicalEncoder(dims int) *LexicalEncoder {
	if dims <= 0 {
		dims = DefaultLexicalDimensions
	}
	return &LexicalEncoder{dims: dims}
}

// Embed generates the embedding for a single text.
func (e *LexicalEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("encoder is closed")
	}
	e.mu.RUnlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dims), nil
	}

	return normalizeVector(e.generateVector(trimmed)), nil
}

// generateVector builds the raw term-frequency vector.
func (e *LexicalEncoder) generateVector(text string) []float32 {
	vector := make([]float32, e.dims)

	for _, token := range Tokenize(text) {
		weight := float32(tokenWeight)
		if apiKeywords[token] {
			weight *= apiKeywordBoost
		}
		vector[hashToIndex(token, e.dims)] += weight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range extractNgrams(normalized, ngramSize) {
		vector[hashToIndex(ngram, e.dims)] += ngramWeight
	}

	return vector
}

// Tokenize splits text into lowercase tokens: alphanumeric runs are
// split on path separators, dashes, underscores, dots and camelCase
// boundaries; Han characters become single-rune tokens; English stop
// words are dropped.
func Tokenize(text string) []string {
	var tokens []string

	words := tokenRegex.FindAllString(text, -1)
	for _, word := range words {
		for _, t := range splitCamelCase(word) {
			lower := strings.ToLower(t)
			if lower == "" || englishStopWords[lower] {
				continue
			}
			tokens = append(tokens, lower)
		}
	}

	return tokens
}

// splitCamelCase splits camelCase identifiers, keeping acronym runs
// together (HTTPServer -> HTTP, Server).
func splitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// normalizeForNgrams keeps letters and digits only, lowercased.
func normalizeForNgrams(text string) string {
	var result strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// extractNgrams extracts n-rune sliding windows.
func extractNgrams(text string, n int) []string {
	runes := []rune(text)
	if len(runes) < n {
		return []string{}
	}

	ngrams := make([]string, 0, len(runes)-n+1)
	for i := 0; i <= len(runes)-n; i++ {
		ngrams = append(ngrams, string(runes[i:i+n]))
	}
	return ngrams
}

// hashToIndex uses FNV-64 to map a string to a bucket.
func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// EmbedBatch generates embeddings for multiple texts.
func (e *LexicalEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("encoder is closed")
	}
	e.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = emb
	}

	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *LexicalEncoder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *LexicalEncoder) ModelName() string {
	return "lexical-tf"
}

// Available reports readiness (always true until closed).
func (e *LexicalEncoder) Available(_ context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close releases resources.
func (e *LexicalEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
