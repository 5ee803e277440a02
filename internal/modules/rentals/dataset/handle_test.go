package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
)

// countingLoader returns a fresh table per call, optionally failing or blocking.
type countingLoader struct {
	calls atomic.Int32
	fail  atomic.Bool
	gate  chan struct{}
}

func (l *countingLoader) SourceName() string { return "counting" }

func (l *countingLoader) Load(ctx context.Context) (*types.Table, error) {
	l.calls.Add(1)
	if l.gate != nil {
		<-l.gate
	}
	if l.fail.Load() {
		return nil, &LoadError{Source: "counting", Err: errors.New("boom")}
	}
	records := []types.RentalRecord{{Instant: int(l.calls.Load()), Cnt: 10}}
	return types.NewTable(records, nil, dataframeStub()), nil
}

func TestHandle_MemoizesFirstLoad(t *testing.T) {
	loader := &countingLoader{}
	h := NewHandle(loader, quietLogger)

	if h.Loaded() {
		t.Fatal("Loaded() = true before first Get")
	}
	a, err := h.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := h.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a != b {
		t.Error("second Get returned a different table")
	}
	if n := loader.calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
	if !h.Loaded() {
		t.Error("Loaded() = false after Get")
	}
}

func TestHandle_ConcurrentFirstGetSharesLoad(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	h := NewHandle(loader, quietLogger)

	var wg sync.WaitGroup
	tables := make([]*types.Table, 8)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i], _ = h.Get(context.Background())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(loader.gate)
	wg.Wait()

	if n := loader.calls.Load(); n != 1 {
		t.Errorf("loader called %d times, want 1", n)
	}
	for i, tb := range tables {
		if tb == nil || tb != tables[0] {
			t.Errorf("caller %d got %p, want %p", i, tb, tables[0])
		}
	}
}

func TestHandle_InvalidateReloads(t *testing.T) {
	loader := &countingLoader{}
	h := NewHandle(loader, quietLogger)

	first, _ := h.Get(context.Background())
	v := h.Version()
	if got := h.Invalidate("test"); got != v+1 {
		t.Errorf("Invalidate() = %d, want %d", got, v+1)
	}
	if h.Loaded() {
		t.Error("Loaded() = true after Invalidate")
	}
	second, err := h.Reload(context.Background(), "again")
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if second == first {
		t.Error("Reload returned the stale table")
	}
	if n := loader.calls.Load(); n != 2 {
		t.Errorf("loader called %d times, want 2", n)
	}
	if h.Version() != v+2 {
		t.Errorf("Version() = %d, want %d", h.Version(), v+2)
	}
}

func TestHandle_ErrorsAreNotMemoized(t *testing.T) {
	loader := &countingLoader{}
	loader.fail.Store(true)
	h := NewHandle(loader, quietLogger)

	var hookErrs atomic.Int32
	h.OnLoad(func(_ time.Duration, err error) {
		if err != nil {
			hookErrs.Add(1)
		}
	})

	if _, err := h.Get(context.Background()); !errors.Is(err, ErrDataLoad) {
		t.Fatalf("Get() error = %v, want ErrDataLoad", err)
	}
	loader.fail.Store(false)
	if _, err := h.Get(context.Background()); err != nil {
		t.Fatalf("Get() after recovery error = %v", err)
	}
	if n := loader.calls.Load(); n != 2 {
		t.Errorf("loader called %d times, want 2", n)
	}
	if hookErrs.Load() != 1 {
		t.Errorf("OnLoad saw %d errors, want 1", hookErrs.Load())
	}
}

func TestHandle_Subscribe(t *testing.T) {
	h := NewHandle(&countingLoader{}, quietLogger)
	changes, cancel := h.Subscribe(4)

	if _, err := h.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Reload(context.Background(), "file changed"); err != nil {
		t.Fatal(err)
	}

	first := <-changes
	second := <-changes
	if first.Reason != "startup" || second.Reason != "file changed" {
		t.Errorf("reasons = %q, %q", first.Reason, second.Reason)
	}
	if second.Version != first.Version+1 || second.Rows != 1 {
		t.Errorf("second change = %+v", second)
	}

	cancel()
	cancel()
	if _, ok := <-changes; ok {
		t.Error("channel still open after cancel")
	}
}

func TestHandle_GetHonoursContext(t *testing.T) {
	loader := &countingLoader{gate: make(chan struct{})}
	defer close(loader.gate)
	h := NewHandle(loader, quietLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.Get(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get() error = %v, want deadline exceeded", err)
	}
}

func dataframeStub() dataframe.DataFrame {
	return dataframe.New(series.New([]int{10}, series.Int, types.ColCnt))
}
