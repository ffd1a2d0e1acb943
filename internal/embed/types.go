// Package embed turns text into fixed-length vectors.
//
// Two interchangeable encoders exist: a neural one backed by an Ollama
// sentence-embedding model, and a lexical term-frequency fallback that
// needs no network and no model files. The factory resolves which one
// the process uses, exactly once.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBatchSize is the default batch size for embedding requests.
	DefaultBatchSize = 32

	// DefaultRequestTimeout bounds a single embedding HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultLexicalDimensions is the fallback vector dimensionality.
	DefaultLexicalDimensions = 384
)

// Encoder generates vector embeddings for text.
// Embed is deterministic for identical input and encoder instance.
type Encoder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available checks if the encoder is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// Stats describes the resolved encoder for introspection surfaces.
type Stats struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Dimensions  int    `json:"dimensions"`
	UseFallback bool   `json:"useFallback"`
}

// ProgressStage identifies a step of encoder resolution.
type ProgressStage string

const (
	StageAttemptingModel ProgressStage = "attempting_model"
	StageModelReady      ProgressStage = "model_ready"
	StageModelFailed     ProgressStage = "model_failed"
	StageFallback        ProgressStage = "fallback"
)

// ProgressEvent is emitted during encoder resolution so callers can
// observe model loading without coupling to a logging mechanism.
type ProgressEvent struct {
	Stage   ProgressStage
	Model   string
	Attempt int
	Err     error
}

// ProgressFunc receives resolution progress events.
type ProgressFunc func(ProgressEvent)

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
