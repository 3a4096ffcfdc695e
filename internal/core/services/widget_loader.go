package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/srgjo27/booking_flow/internal/core/ports"
	"github.com/srgjo27/booking_flow/internal/platform/metrics"
)

// WidgetLoader fetches the provider's embed script at most once per process.
//
// The started flag is set before a fetch begins and cleared only when the
// fetch fails, so concurrent EnsureLoaded calls never fetch twice and a failed
// load can be retried by a later call. Each load carries the generation it was
// started under; a load whose generation was superseded by Reset discards its
// result.
type WidgetLoader struct {
	fetcher   ports.ScriptFetcher
	scriptURL string
	namespace string
	origin    string
	settle    time.Duration
	logger    *zap.Logger
	metrics   *metrics.FlowMetrics

	mu         sync.Mutex
	started    bool
	loaded     bool
	bundle     []byte
	generation uint64
	cancelLoad context.CancelFunc
}

type WidgetLoaderConfig struct {
	ScriptURL   string
	Namespace   string
	Origin      string
	SettleDelay time.Duration
}

func NewWidgetLoader(fetcher ports.ScriptFetcher, cfg WidgetLoaderConfig, logger *zap.Logger, m *metrics.FlowMetrics) *WidgetLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WidgetLoader{
		fetcher:   fetcher,
		scriptURL: cfg.ScriptURL,
		namespace: cfg.Namespace,
		origin:    cfg.Origin,
		settle:    cfg.SettleDelay,
		logger:    logger,
		metrics:   m,
	}
}

// EnsureLoaded starts loading the script unless a load has already started.
// It does not wait for the load to finish.
func (l *WidgetLoader) EnsureLoaded(ctx context.Context) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	// The load belongs to the process, not to the request that triggered it.
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancelLoad = cancel
	gen := l.generation
	l.mu.Unlock()

	go l.load(loadCtx, gen)
}

func (l *WidgetLoader) IsLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Script returns the initialized embed bundle once loading has completed.
func (l *WidgetLoader) Script() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		return nil, false
	}
	return l.bundle, true
}

// Reset forgets any previous load so the next EnsureLoaded fetches again.
// A load still in flight is cancelled and its result dropped.
func (l *WidgetLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelLoad != nil {
		l.cancelLoad()
		l.cancelLoad = nil
	}
	l.generation++
	l.started = false
	l.loaded = false
	l.bundle = nil
}

func (l *WidgetLoader) load(ctx context.Context, gen uint64) {
	script, err := l.fetcher.FetchScript(ctx, l.scriptURL)
	if err != nil {
		l.mu.Lock()
		if l.generation == gen {
			l.started = false
			l.cancelLoad = nil
		}
		l.mu.Unlock()
		l.metrics.ObserveWidgetLoad("failure")
		l.logger.Warn("widget script load failed", zap.String("src", l.scriptURL), zap.Error(err))
		return
	}

	// The provider's global is not usable the instant the script arrives.
	select {
	case <-ctx.Done():
		l.logger.Debug("widget script load abandoned", zap.String("src", l.scriptURL))
		return
	case <-time.After(l.settle):
	}

	bundle := l.initialize(script)

	l.mu.Lock()
	if l.generation != gen {
		l.mu.Unlock()
		l.logger.Debug("widget script load superseded", zap.String("src", l.scriptURL))
		return
	}
	l.bundle = bundle
	l.loaded = true
	l.cancelLoad = nil
	l.mu.Unlock()

	l.metrics.ObserveWidgetLoad("success")
	l.logger.Info("widget script loaded", zap.String("src", l.scriptURL), zap.Int("bytes", len(script)))
}

// initialize appends the provider's init call for our namespace.
func (l *WidgetLoader) initialize(script []byte) []byte {
	initCall := fmt.Sprintf("\nCal(\"init\", %q, {origin: %q});\n", l.namespace, l.origin)
	bundle := make([]byte, 0, len(script)+len(initCall))
	bundle = append(bundle, script...)
	return append(bundle, initCall...)
}
