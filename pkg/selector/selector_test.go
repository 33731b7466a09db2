package selector_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cms-forms/internal/logging"
	"github.com/goliatone/go-cms-forms/pkg/model"
	"github.com/goliatone/go-cms-forms/pkg/selector"
)

type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) selector.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func (c *manualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward, running due timers in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		pending := make([]*manualTimer, 0, len(c.timers))
		for _, t := range c.timers {
			if !t.fired && !t.stopped && t.at <= target {
				pending = append(pending, t)
			}
		}
		if len(pending) == 0 {
			break
		}
		sort.SliceStable(pending, func(i, j int) bool { return pending[i].at < pending[j].at })
		next := pending[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

type fetchCall struct {
	query string
	at    time.Duration
}

type recordingFetcher struct {
	mu    sync.Mutex
	clock *manualClock
	calls []fetchCall
	data  map[string][]model.Option
	err   error
}

func (f *recordingFetcher) Fetch(_ context.Context, query string) ([]model.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{query: query, at: f.clock.Now()})
	if f.err != nil {
		return nil, f.err
	}
	return f.data[query], nil
}

func (f *recordingFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

var genres = map[string][]model.Option{
	"":      {{ID: 1, Label: "Acción"}, {ID: 2, Label: "Drama"}},
	"dra":   {{ID: 2, Label: "Drama"}},
	"drama": {{ID: 2, Label: "Drama"}, {ID: 7, Label: "Docudrama"}},
	"abc":   {{ID: 9, Label: "Abc"}},
}

func newSelector(t *testing.T, delay time.Duration) (*selector.Selector, *manualClock, *recordingFetcher) {
	t.Helper()
	clock := &manualClock{}
	fetcher := &recordingFetcher{clock: clock, data: genres}
	sel := selector.New(fetcher.Fetch,
		selector.WithClock(clock),
		selector.WithDelay(delay),
		selector.WithLogger(logging.Discard()),
	)
	t.Cleanup(sel.Close)
	return sel, clock, fetcher
}

func TestSelector_DebounceFiresOnceWithLatestQuery(t *testing.T) {
	sel, clock, fetcher := newSelector(t, 1500*time.Millisecond)

	sel.Input("a")
	clock.Advance(100 * time.Millisecond)
	sel.Input("ab")
	clock.Advance(100 * time.Millisecond)
	sel.Input("abc")

	clock.Advance(1499 * time.Millisecond)
	sel.WaitIdle()
	if calls := fetcher.Calls(); len(calls) != 0 {
		t.Fatalf("expected no fetch before the delay elapsed, got %#v", calls)
	}

	clock.Advance(time.Millisecond)
	sel.WaitIdle()

	want := []fetchCall{{query: "abc", at: 1700 * time.Millisecond}}
	if diff := cmp.Diff(want, fetcher.Calls(), cmp.AllowUnexported(fetchCall{})); diff != "" {
		t.Fatalf("fetch calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(genres["abc"], sel.State().Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if sel.State().Loading {
		t.Fatalf("loading flag should be cleared after the fetch")
	}
}

func TestSelector_StaleResponseIsDropped(t *testing.T) {
	clock := &manualClock{}
	started := make(chan string, 2)
	release := map[string]chan []model.Option{
		"a":  make(chan []model.Option),
		"ab": make(chan []model.Option),
	}
	fetch := func(_ context.Context, query string) ([]model.Option, error) {
		started <- query
		return <-release[query], nil
	}
	sel := selector.New(fetch,
		selector.WithClock(clock),
		selector.WithDelay(100*time.Millisecond),
		selector.WithLogger(logging.Discard()),
	)
	defer sel.Close()

	sel.Input("a")
	clock.Advance(100 * time.Millisecond)
	if got := <-started; got != "a" {
		t.Fatalf("expected fetch for a, got %q", got)
	}

	sel.Input("ab")
	clock.Advance(100 * time.Millisecond)
	if got := <-started; got != "ab" {
		t.Fatalf("expected fetch for ab, got %q", got)
	}

	abResult := []model.Option{{ID: 2, Label: "Abducción"}}
	release["ab"] <- abResult
	release["a"] <- []model.Option{{ID: 1, Label: "Acción"}}
	sel.WaitIdle()

	state := sel.State()
	if diff := cmp.Diff(abResult, state.Options); diff != "" {
		t.Fatalf("stale response leaked into the options (-want +got):\n%s", diff)
	}
	if state.Query != "ab" || state.Loading {
		t.Fatalf("unexpected final state %#v", state)
	}
}

func TestSelector_ResolvedQueryServedFromCache(t *testing.T) {
	sel, clock, fetcher := newSelector(t, 50*time.Millisecond)

	for _, q := range []string{"dra", "drama", "dra"} {
		sel.Input(q)
		clock.Advance(50 * time.Millisecond)
		sel.WaitIdle()
	}

	if got := len(fetcher.Calls()); got != 2 {
		t.Fatalf("expected 2 remote calls, got %d", got)
	}
	if diff := cmp.Diff(genres["dra"], sel.State().Options); diff != "" {
		t.Fatalf("cached options mismatch (-want +got):\n%s", diff)
	}
}

func TestSelector_PreloadFetchesDefaultsImmediately(t *testing.T) {
	sel, _, fetcher := newSelector(t, time.Hour)

	sel.Preload()
	sel.WaitIdle()

	if diff := cmp.Diff([]fetchCall{{query: ""}}, fetcher.Calls(), cmp.AllowUnexported(fetchCall{})); diff != "" {
		t.Fatalf("preload calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(genres[""], sel.State().Options); diff != "" {
		t.Fatalf("default options mismatch (-want +got):\n%s", diff)
	}
}

func TestSelector_FetchFailureKeepsOptionsAndClearsLoading(t *testing.T) {
	sel, clock, fetcher := newSelector(t, 10*time.Millisecond)

	sel.Preload()
	sel.WaitIdle()

	fetcher.mu.Lock()
	fetcher.err = errors.New("upstream down")
	fetcher.mu.Unlock()

	sel.Input("drama")
	clock.Advance(10 * time.Millisecond)
	sel.WaitIdle()

	state := sel.State()
	if state.Loading {
		t.Fatalf("loading must resolve after a failure")
	}
	if !state.Unavailable {
		t.Fatalf("expected unavailable flag after failure")
	}
	if diff := cmp.Diff(genres[""], state.Options); diff != "" {
		t.Fatalf("failure must leave options unchanged (-want +got):\n%s", diff)
	}
	if got := sel.Search(context.Background(), "terror"); len(got) != 0 {
		t.Fatalf("expected empty search result on failure, got %#v", got)
	}
}

func TestSelector_ConcurrentSearchesShareOneFetch(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	fetch := func(_ context.Context, query string) ([]model.Option, error) {
		calls.Add(1)
		<-gate
		return genres[query], nil
	}
	sel := selector.New(fetch, selector.WithLogger(logging.Discard()))
	defer sel.Close()

	var wg sync.WaitGroup
	results := make([][]model.Option, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = sel.Search(context.Background(), "drama")
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one shared fetch, got %d", got)
	}
	for _, res := range results {
		if diff := cmp.Diff(genres["drama"], res); diff != "" {
			t.Fatalf("search result mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestSelector_CloseCancelsPendingTimer(t *testing.T) {
	sel, clock, fetcher := newSelector(t, 100*time.Millisecond)

	sel.Input("dra")
	sel.Close()
	clock.Advance(time.Second)
	sel.WaitIdle()

	if calls := fetcher.Calls(); len(calls) != 0 {
		t.Fatalf("expected no fetch after close, got %#v", calls)
	}
}

func TestSelector_SubscribersSeeLoadingThenResult(t *testing.T) {
	sel, clock, _ := newSelector(t, 10*time.Millisecond)

	var mu sync.Mutex
	var states []selector.State
	sel.Subscribe(func(st selector.State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, st)
	})

	sel.Input("dra")
	clock.Advance(10 * time.Millisecond)
	sel.WaitIdle()

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 {
		t.Fatalf("expected at least two notifications, got %d", len(states))
	}
	if !states[0].Loading {
		t.Fatalf("first notification should report loading")
	}
	last := states[len(states)-1]
	if last.Loading || last.Query != "dra" {
		t.Fatalf("unexpected last state %#v", last)
	}
}
