package plugins

import (
	"context"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/plugin"
	"github.com/dshills/rover/internal/watcher"
)

// drainLimit caps the events handled per loop iteration.
const drainLimit = 256

// watch keeps the pathway under watch and marks changed cached
// directories stale; dirloader then rescans the pathway ones.
type watch struct {
	host       Host
	newWatcher func() (watcher.Watcher, error)
	w          watcher.Watcher
	dropped    int64
	bindings   bindings
}

func newWatch(host Host, newWatcher func() (watcher.Watcher, error)) *watch {
	return &watch{host: host, newWatcher: newWatcher}
}

func (p *watch) descriptor() *plugin.Descriptor {
	return &plugin.Descriptor{
		Name:         "watch",
		Version:      "1.0.0",
		Description:  "Rescans directories that change on disk",
		Dependencies: []string{"dirloader"},
		Implements:   []string{FeatureFSWatch},
		Activate:     p.activate,
		Deactivate:   p.deactivate,
	}
}

func (p *watch) activate(context.Context) error {
	w, err := p.newWatcher()
	if err != nil {
		return err
	}
	p.w = w
	p.dropped = 0
	p.bindings.bus = p.host.Bus()

	if err := p.bindings.addFunc(event.SignalCd, func(*event.Signal) {
		p.sync(p.host.Settings().WatchPathway)
	}, 0.7); err != nil {
		return err
	}
	if err := p.bindings.addFunc(event.SignalSettingChanged, func(sig *event.Signal) {
		if sig.String("key") == "watch_pathway" {
			p.sync(sig.Bool("value"))
		}
	}, 0.1); err != nil {
		return err
	}
	// Runs ahead of dirloader's loop.start handler so fresh staleness
	// is rescanned in the same iteration.
	if err := p.bindings.addFunc(event.SignalLoopStart, func(*event.Signal) { p.drain() }, 0.6); err != nil {
		return err
	}
	p.sync(p.host.Settings().WatchPathway)
	return nil
}

func (p *watch) deactivate(context.Context) error {
	p.bindings.clear()
	if p.w == nil {
		return nil
	}
	err := p.w.Close()
	p.w = nil
	return err
}

func (p *watch) sync(enabled bool) {
	if p.w == nil {
		return
	}
	var paths []string
	if enabled {
		for _, d := range p.host.Cache().Pathway() {
			paths = append(paths, d.Path)
		}
	}
	if err := watcher.Sync(p.w, paths); err != nil {
		p.host.Logger().Debug("watch sync", "err", err)
	}
}

func (p *watch) drain() {
	if p.w == nil {
		return
	}
	dirs := watcher.Drain(p.w, drainLimit, func(err error) {
		p.host.Logger().Warn("watcher error", "err", err)
	})
	// Dropped events may have touched any watched directory.
	if dc, ok := p.w.(watcher.DropCounter); ok {
		if n := dc.Dropped(); n > p.dropped {
			p.host.Logger().Debug("watcher dropped events, rescanning watched paths", "dropped", n-p.dropped)
			p.dropped = n
			dirs = append(dirs, p.w.WatchedPaths()...)
		}
	}
	c := p.host.Cache()
	for _, dir := range dirs {
		if c.Contains(dir) {
			c.Get(dir).MarkStale()
		}
	}
}
