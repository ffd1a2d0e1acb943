package embed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/devapihub/apisearch/internal/errors"
)

// State tracks encoder resolution.
type State string

const (
	StateUninitialized    State = "uninitialized"
	StateAttemptingNeural State = "attempting_neural"
	StateNeuralReady      State = "neural_ready"
	StateFallbackReady    State = "fallback_ready"
)

// FactoryConfig configures encoder resolution.
type FactoryConfig struct {
	// Provider selects the strategy: "auto" tries neural then falls
	// back, "ollama" requires neural, "lexical" skips neural entirely.
	Provider string

	// Endpoint is the Ollama API endpoint.
	Endpoint string

	// Models is the ordered candidate model list.
	Models []string

	// Dimensions is the lexical fallback dimensionality.
	Dimensions int

	// CacheSize is the embedding LRU capacity.
	CacheSize int

	// MaxAttempts bounds neural connection attempts.
	MaxAttempts int

	// RequestTimeout bounds a single request during resolution.
	RequestTimeout time.Duration
}

// Factory resolves which encoder the process uses. Resolution runs at
// most once per Factory; every later Resolve call returns the same
// encoder. The lexical fallback is the guaranteed last entry of the
// strategy list, so resolution only fails when neural is explicitly
// required.
type Factory struct {
	cfg      FactoryConfig
	progress ProgressFunc

	once        sync.Once
	mu          sync.RWMutex
	state       State
	encoder     Encoder
	useFallback bool
	resolveErr  error
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithProgress subscribes an observer to resolution progress events.
func WithProgress(fn ProgressFunc) FactoryOption {
	return func(f *Factory) {
		f.progress = fn
	}
}

// NewFactory creates an encoder factory.
func NewFactory(cfg FactoryConfig, opts ...FactoryOption) *Factory {
	if cfg.Provider == "" {
		cfg.Provider = "auto"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultLexicalDimensions
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 2
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	f := &Factory{cfg: cfg, state: StateUninitialized}
	for _, opt := range opts {
		opt(f)
	}
	if f.progress == nil {
		f.progress = func(ev ProgressEvent) {
			attrs := []any{
				slog.String("stage", string(ev.Stage)),
				slog.String("model", ev.Model),
				slog.Int("attempt", ev.Attempt),
			}
			if ev.Err != nil {
				attrs = append(attrs, slog.String("error", ev.Err.Error()))
			}
			slog.Debug("encoder resolution", attrs...)
		}
	}
	return f
}

// Resolve returns the process encoder, initializing it on first call.
// Later calls return the already-resolved encoder without re-running
// the neural attempt.
func (f *Factory) Resolve(ctx context.Context) (Encoder, error) {
	f.once.Do(func() {
		f.resolve(ctx)
	})

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.encoder, f.resolveErr
}

func (f *Factory) resolve(ctx context.Context) {
	provider := strings.ToLower(f.cfg.Provider)

	if provider == "lexical" {
		f.setFallback()
		return
	}

	f.setState(StateAttemptingNeural)

	attempt := 0
	retryCfg := errors.RetryConfig{
		MaxRetries:   f.cfg.MaxAttempts - 1,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
	neural, err := errors.RetryWithResult(ctx, retryCfg, func() (*OllamaEncoder, error) {
		attempt++
		f.progress(ProgressEvent{Stage: StageAttemptingModel, Model: f.cfg.Endpoint, Attempt: attempt})

		enc, err := NewOllamaEncoder(ctx, OllamaConfig{
			Endpoint:       f.cfg.Endpoint,
			Models:         f.cfg.Models,
			RequestTimeout: f.cfg.RequestTimeout,
		})
		if err != nil {
			f.progress(ProgressEvent{Stage: StageModelFailed, Model: f.cfg.Endpoint, Attempt: attempt, Err: err})
		}
		return enc, err
	})

	if err == nil {
		f.progress(ProgressEvent{Stage: StageModelReady, Model: neural.ModelName()})
		f.mu.Lock()
		f.state = StateNeuralReady
		f.encoder = NewCachedEncoder(neural, f.cfg.CacheSize)
		f.useFallback = false
		f.mu.Unlock()
		return
	}

	if provider == "ollama" {
		// Neural explicitly required; no fallback.
		f.mu.Lock()
		f.state = StateUninitialized
		f.resolveErr = errors.EncoderInitError("neural encoder required but unavailable", err)
		f.mu.Unlock()
		return
	}

	f.setFallback()
}

func (f *Factory) setFallback() {
	f.progress(ProgressEvent{Stage: StageFallback, Model: "lexical-tf"})

	f.mu.Lock()
	f.state = StateFallbackReady
	f.encoder = NewCachedEncoder(NewLexicalEncoder(f.cfg.Dimensions), f.cfg.CacheSize)
	f.useFallback = true
	f.mu.Unlock()
}

func (f *Factory) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// State returns the current resolution state.
func (f *Factory) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// UseFallback reports whether the lexical fallback was selected.
func (f *Factory) UseFallback() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.useFallback
}

// Stats describes the resolved encoder. Zero value before resolution.
func (f *Factory) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.encoder == nil {
		return Stats{Provider: string(f.state)}
	}

	provider := "ollama"
	if f.useFallback {
		provider = "lexical"
	}
	return Stats{
		Provider:    provider,
		Model:       f.encoder.ModelName(),
		Dimensions:  f.encoder.Dimensions(),
		UseFallback: f.useFallback,
	}
}

// Close closes the resolved encoder, if any.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.encoder != nil {
		return f.encoder.Close()
	}
	return nil
}
