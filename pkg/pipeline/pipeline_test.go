package pipeline

import (
	"context"
	"io"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/linkroute/pkg/cache"
	lrerrors "github.com/matzehuels/linkroute/pkg/errors"
	"github.com/matzehuels/linkroute/pkg/layout"
	"github.com/matzehuels/linkroute/pkg/observability"
	"github.com/matzehuels/linkroute/pkg/route"
)

// memCache is an in-memory Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func quietLogger() *log.Logger { return log.New(io.Discard) }

func twoRows() *layout.Scenario {
	return &layout.Scenario{
		Name: "two rows",
		Grid: layout.GridDoc{
			Cells:    [][]string{{"S", "", ""}, {"", "A", ""}, {"", "", ""}, {"", "", "B"}},
			RowPitch: 300,
			ColPitch: 300,
			Origin:   &layout.PointDoc{X: -150, Y: -150},
		},
		Links: []layout.LinkDoc{
			{ID: "a", Source: "S", Target: "A"},
			{ID: "b", Source: "S", Target: "B"},
		},
	}
}

func TestExecute(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	out, err := r.Execute(context.Background(), twoRows(), Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out.CacheHit {
		t.Error("NullCache run should not hit")
	}
	res := out.Result
	if res.PassID == "" || res.Scenario != "two rows" || res.Axis != "vertical" {
		t.Errorf("result header = %q %q %q", res.PassID, res.Scenario, res.Axis)
	}
	if len(res.Trees) != 1 || len(out.Trees) != 1 {
		t.Fatalf("got %d docs / %d trees, want 1", len(res.Trees), len(out.Trees))
	}

	var ends []layout.PointDoc
	for _, s := range res.Trees[0].Segments {
		if s.End != nil {
			ends = append(ends, *s.End)
		}
	}
	want := []layout.PointDoc{{X: 0, Y: 300}, {X: 0, Y: 900}, {X: 300, Y: 300}, {X: 600, Y: 900}}
	if diff := cmp.Diff(want, ends); diff != "" {
		t.Errorf("segment ends mismatch (-want +got):\n%s", diff)
	}
	wantStats := Stats{Sources: 1, Links: 2, Segments: 5}
	got := out.Stats
	got.RouteTime = 0
	if got != wantStats {
		t.Errorf("Stats = %+v, want %+v", got, wantStats)
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, quietLogger())

	first, err := r.Execute(ctx, twoRows(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, twoRows(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Fatalf("CacheHit = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if second.Result.PassID != first.Result.PassID {
		t.Error("cached result should keep its pass id")
	}
	if diff := cmp.Diff(first.Result, second.Result); diff != "" {
		t.Errorf("cached result differs (-first +second):\n%s", diff)
	}
	if len(second.Trees) != 1 || second.Trees[0].SegmentCount() != 5 {
		t.Error("cached result should rebuild its trees")
	}

	refreshed, err := r.Execute(ctx, twoRows(), Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit || refreshed.Result.PassID == first.Result.PassID {
		t.Error("Refresh should route again")
	}

	// A different axis is a different cache entry.
	other, err := r.Execute(ctx, twoRows(), Options{Axis: "horizontal"})
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("different settings should miss")
	}
}

type cacheCounter struct {
	mu                sync.Mutex
	hits, misses, set map[string]int
}

func newCacheCounter() *cacheCounter {
	return &cacheCounter{hits: map[string]int{}, misses: map[string]int{}, set: map[string]int{}}
}

func (c *cacheCounter) OnCacheHit(_ context.Context, k string) {
	c.mu.Lock()
	c.hits[k]++
	c.mu.Unlock()
}

func (c *cacheCounter) OnCacheMiss(_ context.Context, k string) {
	c.mu.Lock()
	c.misses[k]++
	c.mu.Unlock()
}

func (c *cacheCounter) OnCacheSet(_ context.Context, k string, _ int) {
	c.mu.Lock()
	c.set[k]++
	c.mu.Unlock()
}

func TestExecuteCacheHooks(t *testing.T) {
	counter := newCacheCounter()
	observability.SetCacheHooks(counter)
	defer observability.Reset()

	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, quietLogger())
	for range 2 {
		if _, err := r.Execute(ctx, twoRows(), Options{}); err != nil {
			t.Fatal(err)
		}
	}
	if counter.misses["result"] != 1 || counter.hits["result"] != 1 || counter.set["result"] != 1 {
		t.Errorf("result hooks: misses %d, hits %d, sets %d; want 1 each",
			counter.misses["result"], counter.hits["result"], counter.set["result"])
	}
}

func TestExecuteCorruptCacheEntry(t *testing.T) {
	ctx := context.Background()
	mc := newMemCache()
	r := NewRunner(mc, nil, quietLogger())
	if _, err := r.Execute(ctx, twoRows(), Options{}); err != nil {
		t.Fatal(err)
	}
	for k := range mc.data {
		mc.data[k] = []byte("{garbage")
	}
	out, err := r.Execute(ctx, twoRows(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.CacheHit {
		t.Error("corrupt entry should be treated as a miss")
	}
}

func TestExecuteErrors(t *testing.T) {
	noLinks := twoRows()
	noLinks.Links = nil
	missingNode := twoRows()
	missingNode.Links = append(missingNode.Links, layout.LinkDoc{ID: "c", Source: "S", Target: "Z"})
	badAxis := twoRows()
	badAxis.Options.Axis = "diagonal"

	tests := []struct {
		name string
		s    *layout.Scenario
		opts Options
		code lrerrors.Code
	}{
		{"no links", noLinks, Options{}, lrerrors.ErrCodeInvalidScenario},
		{"target not on grid", missingNode, Options{}, lrerrors.ErrCodeNotFound},
		{"bad scenario axis", badAxis, Options{}, lrerrors.ErrCodeInvalidInput},
		{"bad option axis", twoRows(), Options{Axis: "diagonal"}, lrerrors.ErrCodeInvalidInput},
		{"slot unit below snap", twoRows(), Options{SlotUnit: 1}, lrerrors.ErrCodeInvalidInput},
		{"negative tolerance", twoRows(), Options{MatchTolerance: ptr(-1.0)}, lrerrors.ErrCodeInvalidInput},
	}
	r := NewRunner(nil, nil, quietLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), tt.s, tt.opts)
			if !lrerrors.Is(err, tt.code) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(nil, nil, quietLogger())
	if _, err := r.Execute(ctx, twoRows(), Options{}); err == nil {
		t.Error("Execute on a canceled context should fail")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if o.SlotUnit != route.DefaultSlotUnit || o.MatchTolerance == nil || *o.MatchTolerance != route.DefaultMatchTolerance {
		t.Errorf("defaults = %g, %v", o.SlotUnit, o.MatchTolerance)
	}

	exact := Options{MatchTolerance: ptr(0.0)}
	if err := exact.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if *exact.MatchTolerance != 0 {
		t.Errorf("explicit zero tolerance = %g, want 0", *exact.MatchTolerance)
	}
	if o.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	for _, bad := range []Options{
		{SlotUnit: math.NaN()},
		{SlotUnit: 5},
		{MatchTolerance: ptr(math.Inf(1))},
		{Axis: "up"},
	} {
		if err := bad.ValidateAndSetDefaults(); err == nil {
			t.Errorf("ValidateAndSetDefaults(%+v) should fail", bad)
		}
	}
}

func TestResolve(t *testing.T) {
	o := Options{Axis: "horizontal", SlotUnit: 20}
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	s := twoRows()
	st, err := o.Resolve(s)
	if err != nil {
		t.Fatal(err)
	}
	want := Settings{Axis: route.Horizontal, SlotUnit: 20, MatchTolerance: route.DefaultMatchTolerance}
	if st != want {
		t.Errorf("Resolve() = %+v, want %+v", st, want)
	}

	s.Options = layout.OptionsDoc{Axis: "vertical", SlotUnit: 30, MatchTolerance: ptr(1.0)}
	st, err = o.Resolve(s)
	if err != nil {
		t.Fatal(err)
	}
	want = Settings{Axis: route.Vertical, SlotUnit: 30, MatchTolerance: 1}
	if st != want {
		t.Errorf("scenario options should win: got %+v, want %+v", st, want)
	}
	if got := st.KeyOpts(); got != (cache.ResultKeyOpts{Axis: "vertical", SlotUnit: 30, MatchTolerance: 1}) {
		t.Errorf("KeyOpts() = %+v", got)
	}

	s.Options = layout.OptionsDoc{MatchTolerance: ptr(0.0)}
	st, err = o.Resolve(s)
	if err != nil {
		t.Fatal(err)
	}
	if st.MatchTolerance != 0 {
		t.Errorf("scenario match_tolerance = 0: got %g, want 0", st.MatchTolerance)
	}
}

func TestRenderCaches(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, quietLogger())
	out, err := r.Execute(ctx, twoRows(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	dot, hit, err := r.Render(ctx, out, "dot", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first render should miss")
	}
	if !strings.HasPrefix(string(dot), "digraph linkroute {") {
		t.Errorf("unexpected DOT:\n%s", dot)
	}

	// A second pass over the same scenario has a new pass id but the same
	// geometry, so its rendering is cached.
	again, err := r.Execute(ctx, twoRows(), Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	dot2, hit, err := r.Render(ctx, again, "dot", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !hit || string(dot2) != string(dot) {
		t.Errorf("render of identical geometry: hit %v, same %v", hit, string(dot2) == string(dot))
	}

	if _, _, err := r.Render(ctx, out, "gif", Options{}); !lrerrors.Is(err, lrerrors.ErrCodeUnsupported) {
		t.Errorf("Render(gif) error = %v, want UNSUPPORTED", err)
	}
}

func TestRunnerTTL(t *testing.T) {
	for _, tt := range []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{"default", 0, cache.TTLResult},
		{"override", time.Hour, time.Hour},
	} {
		t.Run(tt.name, func(t *testing.T) {
			mc := newMemCache()
			r := NewRunner(mc, nil, quietLogger())
			r.TTL = tt.ttl
			if _, err := r.Execute(context.Background(), twoRows(), Options{}); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if len(mc.ttls) != 1 {
				t.Fatalf("cache entries = %d, want 1", len(mc.ttls))
			}
			for key, got := range mc.ttls {
				if got != tt.want {
					t.Errorf("ttl of %s = %v, want %v", key, got, tt.want)
				}
			}
		})
	}
}
