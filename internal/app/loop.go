package app

import (
	"time"

	"github.com/dshills/rover/internal/cache"
	"github.com/dshills/rover/internal/event"
)

// tick runs one main loop iteration.
func (r *Runtime) tick() {
	settings := r.config.Settings()

	r.bus.Emit(event.SignalLoopStart, nil)
	r.loader.WorkFor(settings.LoadBudget)
	r.frontend.Draw(r.View())

	if in, ok := r.frontend.Poll(settings.InputTimeout); ok {
		r.handleInput(in)
	}

	r.bus.Emit(event.SignalLoopEnd, nil)

	r.ticks++
	r.metrics.LoopIteration()
	if settings.GCTicks > 0 && r.ticks%settings.GCTicks == 0 {
		r.collect(settings.GCAge)
	}
	r.publish()
}

// collect evicts aged directories and announces the result.
func (r *Runtime) collect(age time.Duration) int {
	evicted := r.cache.GarbageCollect(age)
	r.bus.Emit(event.SignalGarbageCollect, map[string]any{"evicted": evicted, "age": age})
	return evicted
}

// Reset evicts every directory outside the pathway and re-enters the
// current directory so it is reloaded.
func (r *Runtime) Reset() error {
	evicted := r.collect(cache.ForceCollect)
	if d := r.Current(); d != nil {
		d.MarkStale()
	}
	r.log.Debug("reset", "evicted", evicted)
	return r.enter(r.cwd, false)
}

// Reload marks the current directory stale so the data loader rescans
// it.
func (r *Runtime) Reload() {
	if d := r.Current(); d != nil {
		d.MarkStale()
	}
}

// Ticks returns the number of completed loop iterations.
func (r *Runtime) Ticks() int { return r.ticks }
