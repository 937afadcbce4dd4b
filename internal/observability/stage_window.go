package observability

import (
	"math"
	"slices"
	"sync"
	"time"
)

const (
	StageTurnTotal   = "turn_total"
	StageStoreLoad   = "store_load"
	StageStoreSave   = "store_save"
	StageEntitlement = "entitlement_lookup"
)

// stageTargets holds the p95 budget per stage in milliseconds. The platform
// abandons a skill response after eight seconds. Stages not listed here are
// not recorded.
var stageTargets = map[string]float64{
	StageEntitlement: 400,
	StageStoreLoad:   150,
	StageStoreSave:   150,
	StageTurnTotal:   1000,
}

type StageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	TargetP95MS float64 `json:"target_p95_ms"`
	OverTarget  bool    `json:"over_target"`
}

type Indicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StageSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
	Indicators  []Indicator  `json:"indicators,omitempty"`
}

// stageWindow keeps the most recent samples of each known stage.
type stageWindow struct {
	mu         sync.Mutex
	size       int
	rings      map[string]*ring
	indicators map[string]int
}

type ring struct {
	samples []float64
	pos     int
	last    float64
}

func (r *ring) add(v float64, size int) {
	if len(r.samples) < size {
		r.samples = append(r.samples, v)
	} else {
		r.samples[r.pos] = v
		r.pos = (r.pos + 1) % size
	}
	r.last = v
}

func newStageWindow(size int) *stageWindow {
	if size <= 0 {
		size = 256
	}
	w := &stageWindow{size: size}
	w.Reset()
	return w
}

// Observe records ms for stage; unknown stages and negative durations are dropped.
func (w *stageWindow) Observe(stage string, ms float64) {
	if ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := w.rings[stage]; ok {
		r.add(ms, w.size)
	}
}

func (w *stageWindow) ObserveIndicator(name string) {
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

func (w *stageWindow) Snapshot() StageSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := StageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.size,
		Stages:      []StageStats{},
	}
	for _, stage := range sortedKeys(w.rings) {
		r := w.rings[stage]
		if len(r.samples) == 0 {
			continue
		}
		sorted := slices.Clone(r.samples)
		slices.Sort(sorted)
		var sum float64
		for _, v := range sorted {
			sum += v
		}
		p95 := nearestRank(sorted, 0.95)
		snap.Stages = append(snap.Stages, StageStats{
			Stage:       stage,
			Samples:     len(sorted),
			LastMS:      round2(r.last),
			AvgMS:       round2(sum / float64(len(sorted))),
			P50MS:       round2(nearestRank(sorted, 0.50)),
			P95MS:       round2(p95),
			TargetP95MS: stageTargets[stage],
			OverTarget:  p95 > stageTargets[stage],
		})
	}
	for _, name := range sortedKeys(w.indicators) {
		snap.Indicators = append(snap.Indicators, Indicator{Name: name, Count: w.indicators[name]})
	}
	return snap
}

func (w *stageWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rings = make(map[string]*ring, len(stageTargets))
	for stage := range stageTargets {
		w.rings[stage] = &ring{}
	}
	w.indicators = make(map[string]int)
}

// nearestRank returns the smallest sample with at least q of the samples at or below it.
func nearestRank(sorted []float64, q float64) float64 {
	rank := int(math.Ceil(q * float64(len(sorted))))
	rank = max(1, min(rank, len(sorted)))
	return sorted[rank-1]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
