package dataset

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

// Loader produces a prepared table. *Preparer implements it.
type Loader interface {
	Load(ctx context.Context) (*types.Table, error)
	SourceName() string
}

// Change is published each time a freshly loaded table is memoized.
type Change struct {
	Version uint64
	Reason  string
	Rows    int
	At      time.Time
}

// Handle memoizes the prepared table for the process lifetime. The first Get loads
// it, concurrent callers share that load, and Invalidate forces the next Get to load
// again. Failed loads are never memoized.
type Handle struct {
	loader Loader
	logger *slog.Logger
	group  singleflight.Group

	mu      sync.RWMutex
	table   *types.Table
	version uint64
	reason  string
	subs    map[int]chan Change
	nextSub int
	onLoad  func(time.Duration, error)
}

func NewHandle(loader Loader, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{
		loader:  loader,
		logger:  logger,
		version: 1,
		reason:  "startup",
		subs:    make(map[int]chan Change),
	}
}

// OnLoad registers a hook called after every load attempt. Call it before the first Get.
func (h *Handle) OnLoad(fn func(d time.Duration, err error)) {
	h.mu.Lock()
	h.onLoad = fn
	h.mu.Unlock()
}

// Get returns the memoized table, loading it if needed. Cancelling ctx abandons the
// wait but not a load already shared with other callers.
func (h *Handle) Get(ctx context.Context) (*types.Table, error) {
	h.mu.RLock()
	t, version := h.table, h.version
	h.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	// Keyed by version so a Get after Invalidate never joins a load of older data.
	ch := h.group.DoChan(strconv.FormatUint(version, 10), func() (any, error) {
		return h.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.Table), nil
	}
}

func (h *Handle) load(ctx context.Context) (*types.Table, error) {
	h.mu.RLock()
	if h.table != nil {
		t := h.table
		h.mu.RUnlock()
		return t, nil
	}
	version, reason, hook := h.version, h.reason, h.onLoad
	h.mu.RUnlock()

	start := time.Now()
	t, err := h.loader.Load(ctx)
	if hook != nil {
		hook(time.Since(start), err)
	}
	if err != nil {
		h.logger.Error("dataset load failed", "source", h.loader.SourceName(), "version", version, "error", err)
		return nil, err
	}

	h.mu.Lock()
	if h.version != version {
		// Invalidated while loading; hand the table to this caller only.
		h.mu.Unlock()
		return t, nil
	}
	h.table = t
	change := Change{Version: version, Reason: reason, Rows: t.Len(), At: time.Now().UTC()}
	for _, sub := range h.subs {
		select {
		case sub <- change:
		default:
		}
	}
	h.mu.Unlock()

	h.logger.Info("dataset loaded", "version", version, "reason", reason, "rows", t.Len())
	return t, nil
}

// Invalidate drops the memoized table and returns the new version.
func (h *Handle) Invalidate(reason string) uint64 {
	h.mu.Lock()
	h.table = nil
	h.version++
	h.reason = reason
	v := h.version
	h.mu.Unlock()

	h.logger.Info("dataset invalidated", "version", v, "reason", reason)
	return v
}

// Reload invalidates and loads again immediately.
func (h *Handle) Reload(ctx context.Context, reason string) (*types.Table, error) {
	h.Invalidate(reason)
	return h.Get(ctx)
}

func (h *Handle) Version() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

// Loaded reports whether a table is currently memoized.
func (h *Handle) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.table != nil
}

// Subscribe returns a channel of Changes and a func that cancels the subscription.
// Slow subscribers miss changes rather than block loading.
func (h *Handle) Subscribe(buffer int) (<-chan Change, func()) {
	ch := make(chan Change, buffer)
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}
